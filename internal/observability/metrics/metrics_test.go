package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := New()
	m.ObserveFiles("primary", 3, 1)
	m.ObserveFiles("reference", 2, 0)
	m.AddRows("primary", 270)
	m.ObserveResample(6, 1)
	m.ObserveOutput("combined_summarized_csv.csv", nil)
	m.ObserveOutput("combined_summarized_xl.xlsx", errors.New("disk full"))
	m.ObserveRun(nil, 2*time.Second)

	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues("primary", ResultSuccess)); got != 3 {
		t.Fatalf("expected 3 primary files, got %v", got)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues("primary", ResultSkipped)); got != 1 {
		t.Fatalf("expected 1 skipped file, got %v", got)
	}
	if got := testutil.ToFloat64(m.RowsLoaded.WithLabelValues("primary")); got != 270 {
		t.Fatalf("expected 270 rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.RowsResampled); got != 6 {
		t.Fatalf("expected 6 resampled rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.SensorsDropped); got != 1 {
		t.Fatalf("expected 1 dropped sensor, got %v", got)
	}
	if got := testutil.ToFloat64(m.OutputsTotal.WithLabelValues("combined_summarized_xl.xlsx", ResultError)); got != 1 {
		t.Fatalf("expected 1 failed output, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 run, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFiles("primary", 1, 1)
	m.AddRows("primary", 1)
	m.ObserveResample(1, 1)
	m.ObserveOutput("x", nil)
	m.ObserveRun(nil, time.Second)
	if err := m.WriteTextfile("ignored.prom"); err != nil {
		t.Fatalf("expected nil metrics to ignore textfile, got %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun(nil, time.Second)
	path := filepath.Join(t.TempDir(), "aircombine.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `aircombine_runs_total{result="success"} 1`) {
		t.Fatalf("expected run counter in textfile, got %s", data)
	}
}
