package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"aircombine/internal/config"
)

// errHelp reports that usage was printed on request.
var errHelp = errors.New("help requested")

const dotEnvFile = ".env"

// loadOptions layers defaults, .env, the YAML file, AIRCOMBINE_* variables
// and finally command-line flags.
func loadOptions(args []string, getenv func(string) string, stderr io.Writer) (config.Options, error) {
	opts := config.DefaultOptions()
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return opts, fmt.Errorf("%w: %s: %w", config.ErrInvalidConfig, dotEnvFile, err)
	}
	if path := configPath(args, getenv); path != "" {
		if err := config.LoadFile(path, &opts); err != nil {
			if errors.Is(err, config.ErrInvalidConfig) {
				return opts, err
			}
			return opts, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	}
	config.ApplyEnv(&opts, getenv)

	fs := flag.NewFlagSet("aircombine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configFile string
	fs.StringVar(&configFile, "config", "", "YAML configuration file (also "+config.ConfigPathEnv+")")

	stringFlag(fs, &opts.Directory, "data directory under the data root", "d", "directory")
	stringFlag(fs, &opts.DataRoot, "root directory holding data directories", "root")
	stringFlag(fs, &opts.OutputDir, "output directory, defaults to the data directory", "out")
	stringFlag(fs, &opts.PrimaryPattern, "glob matching primary sensor files", "pattern")
	boolFlag(fs, &opts.Reference, "include reference station PM2.5", "r", "reference")
	boolFlag(fs, &opts.Wind, "include reference station wind; forces a 1H interval", "w", "wind")
	boolFlag(fs, &opts.ExternalWind, "use external wind from DSKY_station_merged.csv", "k", "external-wind")
	stringFlag(fs, &opts.Station, "reference station prefix when several are present", "station")
	stringFlag(fs, &opts.Interval, "summary interval, e.g. 1H, 15min, D, W or PT1H", "s", "summary")
	boolFlag(fs, &opts.ListStations, "list reference stations and exit", "l", "listref")
	boolFlag(fs, &opts.Plot, "write a PM2.5 plot", "p", "plot")
	floatFlag(fs, &opts.YAxis, "plot y-axis maximum, 0 for auto", "y", "yaxis")
	boolFlag(fs, &opts.Full, "write combined_full.csv", "f", "full")
	boolFlag(fs, &opts.AnalyzeSource, "write source.csv wind-side analysis", "a", "analyze")
	boolFlag(fs, &opts.SensorStats, "write sensor_stats.csv", "t", "stats")
	floatFlag(fs, &opts.SourceLat, "source latitude for -a", "source-lat")
	floatFlag(fs, &opts.SourceLon, "source longitude for -a", "source-lon")
	stringFlag(fs, &opts.LocalTimezone, "display time zone", "tz")
	stringFlag(fs, &opts.PrimaryTimezone, "zone of naive primary timestamps", "primary-tz")
	stringFlag(fs, &opts.JoinPolicy, "reference join: inner or left", "join")
	stringFlag(fs, &opts.TransportMissing, "RETIGO rows missing fields: drop, fail or emit", "transport-missing")
	stringFlag(fs, &opts.SensorTable, "sensor coordinates table", "sensor-table")
	stringFlag(fs, &opts.StationTable, "reference station table", "station-table")
	stringFlag(fs, &opts.MetadataDSN, "Postgres DSN for sensor metadata", "metadata-dsn")
	stringFlag(fs, &opts.MetricsTextfile, "write Prometheus metrics to this file", "metrics-textfile")
	boolFlag(fs, &opts.Progress, "show file reading progress", "progress")
	stringFlag(fs, &opts.LogLevel, "log level: debug, info, warn or error", "log-level")
	boolFlag(fs, &opts.Force, "overwrite existing output files", "force")

	outputs := strings.Join(opts.Output, " ")
	stringFlag(fs, &outputs, "outputs: csv, xl, retigo, all or none; several may follow", "o", "output")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, errHelp
		}
		return opts, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	// -o accepts several tokens ("-o xl retigo"); flag parsing stops at the
	// first bare token, so collect those and resume.
	outputSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "o" || f.Name == "output" {
			outputSet = true
		}
	})
	extra := []string{}
	for fs.NArg() > 0 {
		token := fs.Arg(0)
		if !outputSet {
			return opts, fmt.Errorf("%w: unexpected argument %q", config.ErrInvalidConfig, token)
		}
		extra = append(extra, token)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return opts, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	}
	opts.Output = append([]string{outputs}, extra...)
	return opts, nil
}

// configPath finds -config before flags are parsed so the file can supply
// flag defaults.
func configPath(args []string, getenv func(string) string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return strings.TrimSpace(getenv(config.ConfigPathEnv))
}

func stringFlag(fs *flag.FlagSet, target *string, usage string, names ...string) {
	for _, name := range names {
		fs.StringVar(target, name, *target, usage)
	}
}

func boolFlag(fs *flag.FlagSet, target *bool, usage string, names ...string) {
	for _, name := range names {
		fs.BoolVar(target, name, *target, usage)
	}
}

func floatFlag(fs *flag.FlagSet, target *float64, usage string, names ...string) {
	for _, name := range names {
		fs.Float64Var(target, name, *target, usage)
	}
}
