package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"aircombine/internal/analytics/domain/resample"
)

const (
	defaultDirectory      = "data"
	defaultPrimaryPattern = "*Primary*.csv"
	defaultLocalZone      = "America/Los_Angeles"
	defaultStationTable   = "ref_stations.csv"
	defaultSensorTable    = "sensors.csv"
	defaultInterval       = "1H"

	// Default emission source for wind-side analysis.
	defaultSourceLat = 33.7555312
	defaultSourceLon = -117.481027
)

// Options is the raw, layered configuration before validation.
type Options struct {
	DataRoot         string   `yaml:"data_root"`
	Directory        string   `yaml:"directory"`
	OutputDir        string   `yaml:"output_dir"`
	PrimaryPattern   string   `yaml:"primary_pattern"`
	PrimaryTimezone  string   `yaml:"primary_timezone"`
	LocalTimezone    string   `yaml:"local_timezone"`
	SensorTable      string   `yaml:"sensor_table"`
	StationTable     string   `yaml:"station_table"`
	MetadataDSN      string   `yaml:"metadata_dsn"`
	Reference        bool     `yaml:"reference"`
	Wind             bool     `yaml:"wind"`
	ExternalWind     bool     `yaml:"external_wind"`
	Station          string   `yaml:"station"`
	Interval         string   `yaml:"interval"`
	JoinPolicy       string   `yaml:"join_policy"`
	Output           []string `yaml:"output"`
	Full             bool     `yaml:"full"`
	Plot             bool     `yaml:"plot"`
	YAxis            float64  `yaml:"y_axis"`
	SensorStats      bool     `yaml:"sensor_stats"`
	AnalyzeSource    bool     `yaml:"analyze_source"`
	SourceLat        float64  `yaml:"source_lat"`
	SourceLon        float64  `yaml:"source_lon"`
	TransportMissing string   `yaml:"transport_missing"`
	MetricsTextfile  string   `yaml:"metrics_textfile"`
	Progress         bool     `yaml:"progress"`
	LogLevel         string   `yaml:"log_level"`
	Force            bool     `yaml:"force"`
	ListStations     bool     `yaml:"-"`
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		DataRoot:         ".",
		Directory:        defaultDirectory,
		PrimaryPattern:   defaultPrimaryPattern,
		PrimaryTimezone:  "UTC",
		LocalTimezone:    defaultLocalZone,
		StationTable:     defaultStationTable,
		Interval:         defaultInterval,
		JoinPolicy:       string(resample.JoinInner),
		Output:           []string{"csv", "retigo"},
		SourceLat:        defaultSourceLat,
		SourceLon:        defaultSourceLon,
		TransportMissing: string(TransportDrop),
		Progress:         true,
		LogLevel:         "info",
	}
}

// Config is the validated, immutable run configuration.
type Config struct {
	DataDir         string
	OutputDir       string
	PrimaryPattern  string
	PrimaryZone     *time.Location
	LocalZone       *time.Location
	SensorTable     string
	StationTable    string
	MetadataDSN     string
	Reference       bool
	Wind            bool
	ExternalWind    bool
	Station         string
	Interval        resample.Interval
	Join            resample.JoinPolicy
	Outputs         Outputs
	Full            bool
	Plot            bool
	PlotYMax        float64
	SensorStats     bool
	AnalyzeSource   bool
	SourceLat       float64
	SourceLon       float64
	Transport       TransportPolicy
	MetricsTextfile string
	Progress        bool
	LogLevel        slog.Level
	Force           bool
	ListStations    bool

	// Warnings holds adjustments made while building, for the caller to log.
	Warnings []string
}

// ReferenceEnabled reports whether station files are loaded.
func (c Config) ReferenceEnabled() bool {
	return c.Reference || c.Wind
}

// StationWind reports whether wind columns come from the station files.
func (c Config) StationWind() bool {
	return c.Wind && !c.ExternalWind
}

// WindEnabled reports whether any wind columns are joined.
func (c Config) WindEnabled() bool {
	return c.Wind || c.ExternalWind
}

// Build validates options. Every failure wraps ErrInvalidConfig and happens
// before any data file is opened.
func Build(opts Options) (Config, error) {
	cfg := Config{
		PrimaryPattern:  strings.TrimSpace(opts.PrimaryPattern),
		MetadataDSN:     strings.TrimSpace(opts.MetadataDSN),
		Reference:       opts.Reference,
		Wind:            opts.Wind,
		ExternalWind:    opts.ExternalWind,
		Station:         strings.TrimSpace(opts.Station),
		Full:            opts.Full,
		Plot:            opts.Plot,
		PlotYMax:        opts.YAxis,
		SensorStats:     opts.SensorStats,
		AnalyzeSource:   opts.AnalyzeSource,
		SourceLat:       opts.SourceLat,
		SourceLon:       opts.SourceLon,
		MetricsTextfile: strings.TrimSpace(opts.MetricsTextfile),
		Progress:        opts.Progress,
		Force:           opts.Force,
		ListStations:    opts.ListStations,
	}

	if strings.TrimSpace(opts.Directory) == "" && strings.TrimSpace(opts.DataRoot) == "" {
		return Config{}, invalid(ErrDataDirRequired)
	}
	cfg.DataDir = filepath.Join(opts.DataRoot, opts.Directory)
	cfg.OutputDir = cfg.DataDir
	if dir := strings.TrimSpace(opts.OutputDir); dir != "" {
		cfg.OutputDir = dir
	}
	if cfg.PrimaryPattern == "" {
		cfg.PrimaryPattern = defaultPrimaryPattern
	}
	cfg.SensorTable = strings.TrimSpace(opts.SensorTable)
	if cfg.SensorTable == "" {
		cfg.SensorTable = filepath.Join(cfg.DataDir, defaultSensorTable)
	}
	cfg.StationTable = strings.TrimSpace(opts.StationTable)
	if cfg.StationTable != "" && !filepath.IsAbs(cfg.StationTable) {
		cfg.StationTable = filepath.Join(opts.DataRoot, cfg.StationTable)
	}

	var err error
	if cfg.ListStations {
		// Listing reads only the station table.
		if cfg.LogLevel, err = parseLevel(opts.LogLevel); err != nil {
			cfg.LogLevel = slog.LevelInfo
		}
		return cfg, nil
	}
	if cfg.Interval, err = resample.ParseInterval(opts.Interval); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.Join, err = resample.ParseJoinPolicy(opts.JoinPolicy); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.Outputs, err = ParseOutputs(opts.Output); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.Transport, err = ParseTransportPolicy(opts.TransportMissing); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.PrimaryZone, err = loadZone(opts.PrimaryTimezone, time.UTC); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.LocalZone, err = loadZone(opts.LocalTimezone, nil); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.LogLevel, err = parseLevel(opts.LogLevel); err != nil {
		return Config{}, invalid(err)
	}
	if cfg.SourceLat < -90 || cfg.SourceLat > 90 || cfg.SourceLon < -180 || cfg.SourceLon > 180 {
		return Config{}, invalid(fmt.Errorf("source point %v,%v out of range", cfg.SourceLat, cfg.SourceLon))
	}

	if cfg.Wind && cfg.Interval.Duration != time.Hour {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("wind data is hourly; interval %s replaced by 1H", cfg.Interval))
		cfg.Interval = resample.MustParseInterval("1H")
	}
	if cfg.ExternalWind && cfg.Wind {
		cfg.Warnings = append(cfg.Warnings, "external wind replaces station wind columns")
	}
	if cfg.AnalyzeSource && !cfg.WindEnabled() {
		cfg.Warnings = append(cfg.Warnings, "source analysis needs wind data; enable wind or external wind")
		cfg.AnalyzeSource = false
	}
	return cfg, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func loadZone(name string, fallback *time.Location) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if fallback != nil {
			return fallback, nil
		}
		name = defaultLocalZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(value) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, value)
	}
	return level, nil
}
