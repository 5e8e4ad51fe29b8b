package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null"

	"aircombine/internal/analytics/domain/aqi"
	"aircombine/internal/analytics/domain/resample"
	"aircombine/internal/analytics/domain/stats"
	masterdata "aircombine/internal/masterdata/domain"
	"aircombine/internal/observability/metrics"
	telemetry "aircombine/internal/telemetry/domain"
)

// TableSource loads one kind of input into a table.
type TableSource interface {
	Load(ctx context.Context) (telemetry.Table, telemetry.LoadReport, error)
}

// Sink writes one output of a finished run.
type Sink interface {
	Name() string
	Write(ctx context.Context, run *Run) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Settings are the run parameters the pipeline needs.
type Settings struct {
	Interval resample.Interval
	Location *time.Location
	Join     resample.JoinPolicy
}

// Run is the state of one finished pipeline execution handed to sinks.
type Run struct {
	ID        string
	StartedAt time.Time
	Interval  resample.Interval
	Location  *time.Location

	// Station is nil when no reference data was requested or the prefix is
	// missing from the station table.
	Station       *masterdata.ReferenceStation
	StationPrefix string

	Primary   telemetry.Table
	Reference telemetry.Table
	Summary   resample.Result

	RawStats     stats.Description
	SummaryStats stats.Description
	Coverage     []stats.Coverage
	Skipped      []telemetry.SkippedFile
}

// ReferenceSensor returns the identity reference rows carry.
func (r *Run) ReferenceSensor() string {
	if r.StationPrefix == "" {
		return ""
	}
	return r.StationPrefix + "_REF"
}

// Runner executes load, clip, align, index and output stages in order.
type Runner struct {
	settings  Settings
	primary   TableSource
	reference TableSource
	wind      TableSource
	station   *masterdata.ReferenceStation
	prefix    string
	sinks     []Sink
	metrics   *metrics.Metrics
	clock     Clock
	logger    *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithReference adds station reference data for prefix. station may be nil
// when the prefix has no entry in the station table.
func WithReference(source TableSource, prefix string, station *masterdata.ReferenceStation) RunnerOption {
	return func(r *Runner) {
		r.reference = source
		r.prefix = prefix
		r.station = station
	}
}

// WithExternalWind adds wind data that replaces station wind columns.
func WithExternalWind(source TableSource) RunnerOption {
	return func(r *Runner) {
		r.wind = source
	}
}

// WithSinks appends output sinks, written in the given order.
func WithSinks(sinks ...Sink) RunnerOption {
	return func(r *Runner) {
		for _, sink := range sinks {
			if sink != nil {
				r.sinks = append(r.sinks, sink)
			}
		}
	}
}

// WithMetrics records run metrics.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithRunLogger sets the logger.
func WithRunLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner validates settings and builds a Runner.
func NewRunner(settings Settings, primary TableSource, opts ...RunnerOption) (*Runner, error) {
	if primary == nil {
		return nil, ErrPrimarySourceRequired
	}
	r := &Runner{
		settings: settings,
		primary:  primary,
		clock:    systemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := resample.NewAligner(r.alignerOptions(), r.logger); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) alignerOptions() resample.Options {
	return resample.Options{
		Interval: r.settings.Interval,
		Location: r.settings.Location,
		Join:     r.settings.Join,
	}
}

// Run executes the pipeline. Output failures do not stop other outputs and
// are returned joined after every sink ran.
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	started := r.clock.Now()
	run := &Run{
		ID:            uuid.NewString(),
		StartedAt:     started,
		Interval:      r.settings.Interval,
		Location:      r.settings.Location,
		Station:       r.station,
		StationPrefix: r.prefix,
	}
	logger := r.logger.With("run_id", run.ID)
	err := r.execute(ctx, run, logger)
	elapsed := r.clock.Now().Sub(started)
	r.metrics.ObserveRun(err, elapsed)
	if err != nil {
		logger.Error("run failed", "event", "run_failed", "error", err, "duration", elapsed)
		return run, err
	}
	logger.Info("run completed",
		"event", "run_completed",
		"sensors", len(run.Summary.Sensors),
		"rows", len(run.Summary.Rows),
		"duration", elapsed)
	return run, nil
}

func (r *Runner) execute(ctx context.Context, run *Run, logger *slog.Logger) error {
	aligner, err := resample.NewAligner(r.alignerOptions(), logger)
	if err != nil {
		return err
	}

	primary, report, err := r.primary.Load(ctx)
	r.observeLoad("primary", primary, report)
	run.Skipped = append(run.Skipped, report.Skipped...)
	if err != nil {
		return fmt.Errorf("load primary: %w", err)
	}
	run.Primary = primary
	logger.Info("primary data loaded",
		"event", "primary_loaded", "files", report.Loaded(), "rows", primary.Len())

	if native := resample.NativeInterval(primary); native > 0 && r.settings.Interval.Duration <= native {
		logger.Warn("resample interval not larger than native sampling interval",
			"event", "interval_below_native",
			"interval", r.settings.Interval.String(),
			"native", native.Round(time.Second))
	}

	span, _ := primary.Span()
	clip := span.Hours()

	reference, err := r.loadReference(ctx, run, clip, logger)
	if err != nil {
		return err
	}
	run.Reference = reference

	var ref *telemetry.Table
	if reference.Len() > 0 {
		ref = &reference
	}
	result, err := aligner.Align(primary, ref)
	if err != nil {
		return fmt.Errorf("align: %w", err)
	}
	if err := annotateIndex(&result); err != nil {
		return err
	}
	run.Summary = result
	r.metrics.ObserveResample(len(result.Rows), len(result.Dropped))
	logger.Info("resample completed",
		"event", "resample_completed",
		"interval", r.settings.Interval.String(),
		"grid_start", result.Grid.Boundary(0),
		"grid_rows", result.Grid.Len(),
		"sensors", len(result.Sensors),
		"dropped", len(result.Dropped),
		"reference_joined", result.ReferenceJoined)

	run.RawStats = stats.Describe(primary.Values(telemetry.PM25A))
	run.SummaryStats = stats.Describe(result.Values(telemetry.PM25A))
	run.Coverage = stats.SensorCoverage(primary)

	return r.writeOutputs(ctx, run, logger)
}

// loadReference loads station and external wind series, clips both to the
// primary range and joins them into one table.
func (r *Runner) loadReference(ctx context.Context, run *Run, clip telemetry.Span, logger *slog.Logger) (telemetry.Table, error) {
	var series []telemetry.Table
	if r.reference != nil {
		tbl, report, err := r.reference.Load(ctx)
		r.observeLoad("reference", tbl, report)
		run.Skipped = append(run.Skipped, report.Skipped...)
		if err != nil {
			return telemetry.Table{}, fmt.Errorf("load reference: %w", err)
		}
		if r.wind != nil {
			tbl = tbl.Select(tbl.Columns.Without(telemetry.WindDirection).Without(telemetry.WindSpeed))
		}
		series = append(series, tbl.Clip(clip))
	}
	if r.wind != nil {
		tbl, report, err := r.wind.Load(ctx)
		r.observeLoad("wind", tbl, report)
		run.Skipped = append(run.Skipped, report.Skipped...)
		if err != nil {
			return telemetry.Table{}, fmt.Errorf("load external wind: %w", err)
		}
		series = append(series, tbl.Clip(clip))
	}
	if len(series) == 0 {
		return telemetry.Table{}, nil
	}

	name := run.ReferenceSensor()
	if name == "" {
		name = "REF"
	}
	merged := telemetry.OuterJoin(name, series...)
	if run.Station != nil {
		lat, lon := null.FloatFrom(run.Station.Lat), null.FloatFrom(run.Station.Lon)
		for i := range merged.Rows {
			merged.Rows[i].Lat, merged.Rows[i].Lon = lat, lon
		}
	}
	if merged.Len() == 0 {
		logger.Warn("no reference rows inside primary range",
			"event", "reference_empty", "clip_start", clip.Start, "clip_end", clip.End)
		return telemetry.Table{}, nil
	}
	logger.Info("reference data merged",
		"event", "reference_merged", "rows", merged.Len(), "columns", merged.Columns.String())
	return merged, nil
}

func (r *Runner) writeOutputs(ctx context.Context, run *Run, logger *slog.Logger) error {
	var errs []error
	for _, sink := range r.sinks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := sink.Write(ctx, run)
		r.metrics.ObserveOutput(sink.Name(), err)
		if err != nil {
			logger.Error("output failed", "event", "output_failed", "output", sink.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		logger.Info("output written", "event", "output_written", "output", sink.Name())
	}
	return errors.Join(errs...)
}

func (r *Runner) observeLoad(kind string, tbl telemetry.Table, report telemetry.LoadReport) {
	r.metrics.ObserveFiles(kind, report.Loaded(), len(report.Skipped))
	r.metrics.AddRows(kind, tbl.Len())
}

// annotateIndex fills the rolling AQI of every row from the channel A
// concentration of the same sensor.
func annotateIndex(result *resample.Result) error {
	calc, err := aqi.NewCalculator(aqi.PM25, aqi.WindowFor(result.Grid.Step))
	if err != nil {
		return err
	}
	for _, rows := range result.SensorRows() {
		values := make([]null.Float, len(rows))
		for i, row := range rows {
			values[i] = row.Values[telemetry.PM25A]
		}
		for i, index := range calc.Compute(values) {
			rows[i].AQI = index
		}
	}
	return nil
}
