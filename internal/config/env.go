package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the tool reads.
const EnvPrefix = "AIRCOMBINE_"

// ConfigPathEnv names the variable pointing at a YAML config file.
const ConfigPathEnv = EnvPrefix + "CONFIG"

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFile overlays a YAML file onto opts. Keys absent from the file keep
// their current values.
func LoadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return invalid(err)
	}
	return nil
}

// ApplyEnv overlays AIRCOMBINE_* variables onto opts.
func ApplyEnv(opts *Options, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := envReader{getenv: getenv}
	opts.DataRoot = env.str("DATA_ROOT", opts.DataRoot)
	opts.Directory = env.str("DIRECTORY", opts.Directory)
	opts.OutputDir = env.str("OUTPUT_DIR", opts.OutputDir)
	opts.PrimaryPattern = env.str("PRIMARY_PATTERN", opts.PrimaryPattern)
	opts.PrimaryTimezone = env.str("PRIMARY_TIMEZONE", opts.PrimaryTimezone)
	opts.LocalTimezone = env.str("LOCAL_TIMEZONE", opts.LocalTimezone)
	opts.SensorTable = env.str("SENSOR_TABLE", opts.SensorTable)
	opts.StationTable = env.str("STATION_TABLE", opts.StationTable)
	opts.MetadataDSN = env.str("METADATA_DSN", opts.MetadataDSN)
	opts.Reference = env.boolean("REFERENCE", opts.Reference)
	opts.Wind = env.boolean("WIND", opts.Wind)
	opts.ExternalWind = env.boolean("EXTERNAL_WIND", opts.ExternalWind)
	opts.Station = env.str("STATION", opts.Station)
	opts.Interval = env.str("INTERVAL", opts.Interval)
	opts.JoinPolicy = env.str("JOIN_POLICY", opts.JoinPolicy)
	opts.Output = env.list("OUTPUT", opts.Output)
	opts.Full = env.boolean("FULL", opts.Full)
	opts.Plot = env.boolean("PLOT", opts.Plot)
	opts.YAxis = env.float("Y_AXIS", opts.YAxis)
	opts.SensorStats = env.boolean("SENSOR_STATS", opts.SensorStats)
	opts.AnalyzeSource = env.boolean("ANALYZE_SOURCE", opts.AnalyzeSource)
	opts.SourceLat = env.float("SOURCE_LAT", opts.SourceLat)
	opts.SourceLon = env.float("SOURCE_LON", opts.SourceLon)
	opts.TransportMissing = env.str("TRANSPORT_MISSING", opts.TransportMissing)
	opts.MetricsTextfile = env.str("METRICS_TEXTFILE", opts.MetricsTextfile)
	opts.Progress = env.boolean("PROGRESS", opts.Progress)
	opts.LogLevel = env.str("LOG_LEVEL", opts.LogLevel)
	opts.Force = env.boolean("FORCE", opts.Force)
}

type envReader struct {
	getenv func(string) string
}

func (e envReader) str(key, fallback string) string {
	value := strings.TrimSpace(e.getenv(EnvPrefix + key))
	if value == "" {
		return fallback
	}
	return value
}

func (e envReader) boolean(key string, fallback bool) bool {
	value := e.str(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (e envReader) float(key string, fallback float64) float64 {
	value := e.str(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func (e envReader) list(key string, fallback []string) []string {
	value := e.str(key, "")
	if value == "" {
		return fallback
	}
	return []string{value}
}
