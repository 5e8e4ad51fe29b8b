package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aircombine/internal/export"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func primaryCSV(start time.Time, pm25 float64) string {
	var b strings.Builder
	b.WriteString("created_at,entry_id,PM1.0_CF_ATM_ug/m3,PM2.5_CF_ATM_ug/m3,PM10.0_CF_ATM_ug/m3,UptimeMinutes,ADC,Temperature_F,Humidity_%,PM2.5_CF_1_ug/m3\n")
	for i := 0; i < 90; i++ {
		ts := start.Add(time.Duration(i) * 2 * time.Minute)
		fmt.Fprintf(&b, "%s UTC,%d,1.0,%v,3.0,%d,-60,70,40,2.0\n", ts.Format("2006-01-02 15:04:05"), i+1, pm25, i*2)
	}
	return b.String()
}

func invoke(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, noEnv, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunRejectsInvalidInterval(t *testing.T) {
	code, _, stderr := invoke(t, "-root", t.TempDir(), "-s", "banana", "-progress=false")
	if code != exitConfigError {
		t.Fatalf("expected exit %d, got %d", exitConfigError, code)
	}
	if !strings.Contains(stderr, "configuration error") {
		t.Fatalf("expected configuration error, got %q", stderr)
	}
}

func TestRunRejectsUnknownOutput(t *testing.T) {
	code, _, _ := invoke(t, "-root", t.TempDir(), "-o", "pdf", "-progress=false")
	if code != exitConfigError {
		t.Fatalf("expected exit %d, got %d", exitConfigError, code)
	}
}

func TestRunWithoutPrimaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data"), "notes.txt", "nothing here")
	code, _, stderr := invoke(t, "-root", root, "-progress=false")
	if code != exitConfigError || !strings.Contains(stderr, "no primary") {
		t.Fatalf("expected missing primary configuration error, got %d %q", code, stderr)
	}
}

func TestRunListsStations(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ref_stations.csv",
		"sensor_name,site_name,AQS_NO,ARB_NO,Lat,Lon,Elev_M,Address,filename_format\n"+
			"LKE_REF,Lake Elsinore,060659001,33158,33.676,-117.331,400,506 W Flint St,LKE_REF_25.csv\n")
	code, stdout, _ := invoke(t, "-l", "-s", "banana", "-station-table", path, "-progress=false")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "LKE") || !strings.Contains(stdout, "Lake Elsinore") {
		t.Fatalf("expected station listing, got %q", stdout)
	}
}

func TestRunAmbiguousStation(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	start := time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, data, "SENSOR_A (33.75 -117.48) Primary.csv", primaryCSV(start, 10))
	writeFile(t, data, "LKE_REF_25.csv", "Date Time,Value\n2019-08-31 16:00,12\n")
	writeFile(t, data, "MRL_REF_25.csv", "Date Time,Value\n2019-08-31 16:00,12\n")
	code, _, stderr := invoke(t, "-root", root, "-r", "-progress=false")
	if code != exitConfigError || !strings.Contains(stderr, "LKE") {
		t.Fatalf("expected ambiguous station error, got %d %q", code, stderr)
	}
}

func TestRunWritesRequestedOutputs(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	start := time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, data, "SENSOR_A (33.75 -117.48) Primary.csv", primaryCSV(start, 10))
	writeFile(t, data, "SENSOR_B (33.76 -117.49) Primary.csv", primaryCSV(start, 20))
	writeFile(t, data, "LKE_REF_25.csv", "Date Time,Value\n2019-08-31 16:00,12\n2019-08-31 17:00,14\n2019-08-31 18:00,16\n")
	textfile := filepath.Join(root, "metrics.prom")

	code, stdout, stderr := invoke(t,
		"-root", root, "-d", "data", "-r", "-f", "-t",
		"-progress=false", "-log-level", "error",
		"-metrics-textfile", textfile,
		"-o", "csv", "xl", "retigo",
	)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	for _, name := range []string{
		export.FlatFile, export.SummaryCSVFile, export.SummaryXLSXFile,
		export.TransportFile, export.SensorStatsFile, export.StationFile("LKE"),
	} {
		if _, err := os.Stat(filepath.Join(data, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(data, export.PlotFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no plot without -p")
	}
	if !strings.Contains(stdout, "Summarized") {
		t.Fatalf("expected statistics table, got %q", stdout)
	}
	prom, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), `aircombine_runs_total{result="success"} 1`) {
		t.Fatalf("expected successful run metric, got %s", prom)
	}

	summary, err := os.ReadFile(filepath.Join(data, export.SummaryCSVFile))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(summary)), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 2 sensors x 3 hours, got %d lines", len(lines)-1)
	}
}

func TestRunRefusesToOverwriteOutputs(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	start := time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, data, "SENSOR_A (33.75 -117.48) Primary.csv", primaryCSV(start, 10))
	existing := writeFile(t, data, export.SummaryCSVFile, "keep me\n")

	code, _, stderr := invoke(t, "-root", root, "-o", "csv", "-progress=false", "-log-level", "error")
	if code != exitConfigError || !strings.Contains(stderr, export.SummaryCSVFile) {
		t.Fatalf("expected refusal naming %s, got %d %q", export.SummaryCSVFile, code, stderr)
	}
	if content, _ := os.ReadFile(existing); string(content) != "keep me\n" {
		t.Fatalf("expected existing file untouched, got %q", content)
	}

	code, _, stderr = invoke(t, "-root", root, "-o", "csv", "-force", "-progress=false", "-log-level", "error")
	if code != exitOK {
		t.Fatalf("expected exit 0 with -force, got %d: %s", code, stderr)
	}
	if content, _ := os.ReadFile(existing); string(content) == "keep me\n" {
		t.Fatalf("expected summary rewritten with -force")
	}
}

func TestConfigPath(t *testing.T) {
	if got := configPath([]string{"-r", "-config", "a.yaml"}, noEnv); got != "a.yaml" {
		t.Fatalf("expected a.yaml, got %q", got)
	}
	if got := configPath([]string{"--config=b.yaml"}, noEnv); got != "b.yaml" {
		t.Fatalf("expected b.yaml, got %q", got)
	}
	env := func(key string) string {
		if key == "AIRCOMBINE_CONFIG" {
			return "c.yaml"
		}
		return ""
	}
	if got := configPath(nil, env); got != "c.yaml" {
		t.Fatalf("expected c.yaml, got %q", got)
	}
}

func TestLoadOptionsCollectsOutputTokens(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := loadOptions([]string{"-o", "xl", "retigo", "-p", "-y", "75"}, noEnv, &stderr)
	if err != nil {
		t.Fatalf("load options: %v", err)
	}
	if strings.Join(opts.Output, " ") != "xl retigo" {
		t.Fatalf("expected xl retigo, got %v", opts.Output)
	}
	if !opts.Plot || opts.YAxis != 75 {
		t.Fatalf("expected plot with y axis 75, got %v %v", opts.Plot, opts.YAxis)
	}
	if _, err := loadOptions([]string{"stray"}, noEnv, &stderr); err == nil {
		t.Fatalf("expected error for stray argument")
	}
}
