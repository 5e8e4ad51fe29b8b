package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lmittmann/tint"

	"aircombine/internal/analytics/application"
	"aircombine/internal/analytics/domain/stats"
	"aircombine/internal/config"
	"aircombine/internal/console"
	"aircombine/internal/export"
	masterdata "aircombine/internal/masterdata/domain"
	masterfile "aircombine/internal/masterdata/infrastructure/csvfile"
	masterrepo "aircombine/internal/masterdata/infrastructure/postgres"
	"aircombine/internal/observability/metrics"
	telemetry "aircombine/internal/telemetry/domain"
	"aircombine/internal/telemetry/infrastructure/csvfile"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	err := execute(ctx, args, getenv, stdout, stderr)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errHelp):
		return exitOK
	case errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitConfigError
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}

func execute(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	opts, err := loadOptions(args, getenv, stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Build(opts)
	if err != nil {
		return err
	}

	logger := slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.TimeOnly,
	}))
	for _, warning := range cfg.Warnings {
		logger.Warn(warning, "event", "config_adjusted")
	}

	if cfg.ListStations {
		stations, err := masterfile.LoadStations(cfg.StationTable)
		if err != nil {
			return fmt.Errorf("station table %s: %w", cfg.StationTable, err)
		}
		catalog, err := masterdata.NewStationCatalog(stations)
		if err != nil {
			return fmt.Errorf("station table %s: %w", cfg.StationTable, err)
		}
		return console.ListStations(stdout, catalog.All())
	}

	var progress csvfile.Progress
	if cfg.Progress {
		progress = console.NewProgress(stderr)
	}

	sensors := loadSensors(ctx, cfg, logger)
	primary := csvfile.NewPrimaryLoader(cfg.DataDir,
		csvfile.WithPattern(cfg.PrimaryPattern),
		csvfile.WithSourceZone(cfg.PrimaryZone),
		csvfile.WithSensorDirectory(sensors),
		csvfile.WithProgress(progress),
		csvfile.WithLogger(logger),
	)
	files, err := primary.Files()
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: %w: %s matching %s", config.ErrInvalidConfig, csvfile.ErrNoPrimaryFiles, cfg.DataDir, cfg.PrimaryPattern)
	}

	m := metrics.New()
	runnerOpts := []application.RunnerOption{
		application.WithMetrics(m),
		application.WithRunLogger(logger),
	}

	prefix, reference, err := referenceSource(cfg, progress, logger)
	if err != nil {
		return err
	}
	if reference != nil {
		runnerOpts = append(runnerOpts, reference)
	}
	if cfg.ExternalWind {
		runnerOpts = append(runnerOpts, application.WithExternalWind(csvfile.NewWindLoader(cfg.DataDir, logger)))
	}
	outputs := sinks(cfg, prefix)
	if !cfg.Force {
		if err := export.CheckExisting(cfg.OutputDir, outputs); err != nil {
			if errors.Is(err, export.ErrOutputExists) {
				return fmt.Errorf("%w: %w; rerun with -force to overwrite", config.ErrInvalidConfig, err)
			}
			return err
		}
	}
	runnerOpts = append(runnerOpts, application.WithSinks(outputs...))

	runner, err := application.NewRunner(application.Settings{
		Interval: cfg.Interval,
		Location: cfg.LocalZone,
		Join:     cfg.Join,
	}, primary, runnerOpts...)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	result, runErr := runner.Run(ctx)
	if result != nil && result.RawStats.Count > 0 {
		if err := console.PrintStats(stdout, result.RawStats, result.SummaryStats); err != nil {
			logger.Warn("print statistics failed", "event", "stats_failed", "error", err)
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("write metrics textfile failed", "event", "metrics_failed", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	return runErr
}

// loadSensors reads sensor coordinates from Postgres when a DSN is set,
// otherwise from the sensor table file. A missing or broken source leaves
// coordinates to the file names.
func loadSensors(ctx context.Context, cfg config.Config, logger *slog.Logger) masterdata.SensorDirectory {
	var source masterdata.SensorSource
	origin := cfg.SensorTable
	if cfg.MetadataDSN != "" {
		db, err := sql.Open("pgx", cfg.MetadataDSN)
		if err != nil {
			logger.Warn("sensor metadata unavailable", "event", "sensor_metadata_unavailable", "source", "postgres", "error", err)
			return emptyCatalog()
		}
		defer db.Close()
		source = masterrepo.NewSensorRepository(db)
		origin = "postgres"
	} else {
		if _, err := os.Stat(cfg.SensorTable); err != nil {
			logger.Warn("sensor table not found", "event", "sensor_metadata_unavailable", "source", cfg.SensorTable)
			return emptyCatalog()
		}
		source = masterfile.NewSensorFile(cfg.SensorTable)
	}

	list, err := source.ListSensors(ctx)
	if err != nil {
		logger.Warn("sensor metadata unavailable", "event", "sensor_metadata_unavailable", "source", origin, "error", err)
		return emptyCatalog()
	}
	catalog, err := masterdata.NewSensorCatalog(list)
	if err != nil {
		logger.Warn("sensor metadata rejected", "event", "sensor_metadata_unavailable", "source", origin, "error", err)
		return emptyCatalog()
	}
	logger.Info("sensor metadata loaded", "event", "sensor_metadata_loaded", "source", origin, "sensors", catalog.Len())
	return catalog
}

func emptyCatalog() *masterdata.SensorCatalog {
	catalog, _ := masterdata.NewSensorCatalog(nil)
	return catalog
}

// referenceSource resolves the station and builds the runner option loading
// its files. The prefix is empty and the option nil when no station files
// are used.
func referenceSource(cfg config.Config, progress csvfile.Progress, logger *slog.Logger) (string, application.RunnerOption, error) {
	if !cfg.ReferenceEnabled() {
		return "", nil, nil
	}
	prefix, err := csvfile.ResolvePrefix(cfg.DataDir, cfg.Station)
	switch {
	case errors.Is(err, csvfile.ErrAmbiguousStation):
		return "", nil, fmt.Errorf("%w: %w; choose one with -station", config.ErrInvalidConfig, err)
	case errors.Is(err, csvfile.ErrNoReferenceFiles):
		logger.Warn("no reference files found, continuing without reference data",
			"event", "reference_missing", "dir", cfg.DataDir)
		return "", nil, nil
	case err != nil:
		return "", nil, err
	}

	cols := telemetry.NewColumnSet(telemetry.RefPM25)
	if cfg.StationWind() {
		cols = cols.With(telemetry.WindDirection).With(telemetry.WindSpeed)
	}
	loaderOpts := []csvfile.ReferenceOption{
		csvfile.WithReferenceColumns(cols),
		csvfile.WithReferenceProgress(progress),
		csvfile.WithReferenceLogger(logger),
	}

	var station *masterdata.ReferenceStation
	if found, ok := lookupStation(cfg.StationTable, prefix, logger); ok {
		station = &found
		loaderOpts = append(loaderOpts, csvfile.WithStationCoordinates(found.Lat, found.Lon))
	}
	loader := csvfile.NewReferenceLoader(cfg.DataDir, prefix, loaderOpts...)
	return prefix, application.WithReference(loader, prefix, station), nil
}

func lookupStation(path, prefix string, logger *slog.Logger) (masterdata.ReferenceStation, bool) {
	stations, err := masterfile.LoadStations(path)
	if err != nil {
		logger.Warn("station table unavailable", "event", "station_metadata_unavailable", "path", path, "error", err)
		return masterdata.ReferenceStation{}, false
	}
	catalog, err := masterdata.NewStationCatalog(stations)
	if err != nil {
		logger.Warn("station table rejected", "event", "station_metadata_unavailable", "path", path, "error", err)
		return masterdata.ReferenceStation{}, false
	}
	station, ok := catalog.Lookup(prefix)
	if !ok {
		logger.Warn("station not in station table", "event", "station_metadata_missing", "prefix", prefix)
	}
	return station, ok
}

func sinks(cfg config.Config, prefix string) []application.Sink {
	out := cfg.OutputDir
	var list []application.Sink
	if cfg.Full {
		list = append(list, export.NewFlatCSV(out))
	}
	if cfg.Outputs.CSV {
		list = append(list, export.NewSummaryCSV(out))
	}
	if cfg.Outputs.Spreadsheet {
		list = append(list, export.NewSummaryXLSX(out))
	}
	if cfg.Outputs.Transport {
		list = append(list, export.NewTransportCSV(out, cfg.Transport))
	}
	if prefix != "" || cfg.ExternalWind {
		list = append(list, export.NewStationMergedCSV(out, prefix))
	}
	if cfg.SensorStats {
		list = append(list, export.NewSensorStatsCSV(out))
	}
	if cfg.AnalyzeSource {
		list = append(list, export.NewSourceCSV(out, stats.Point{Lat: cfg.SourceLat, Lon: cfg.SourceLon}))
	}
	if cfg.Plot {
		list = append(list, export.NewPlotPDF(out, cfg.PlotYMax))
	}
	return list
}
