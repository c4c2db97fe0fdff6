package diagnostics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/internal/config"
	"murmur/internal/preflight"
)

func TestRunAndPrintEmitsValidJSON(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogFile = ""

	var buf bytes.Buffer
	if _, err := RunAndPrint(&buf, cfg, "diagnose", "test", false); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var report map[string]any
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report["schema_version"] != float64(1) {
		t.Fatalf("unexpected schema version: %v", report["schema_version"])
	}
	if report["command"] != "diagnose" {
		t.Fatalf("unexpected command: %v", report["command"])
	}
	if _, ok := report["smoke_test"]; ok {
		t.Fatalf("smoke_test must be omitted when not requested")
	}
}

func TestCollectLogsTailsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "murmur.log")
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "line")
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info := collectLogs(path)
	if !info.LogFileExists {
		t.Fatalf("expected log file to exist")
	}
	if len(info.TailLines) != logTailLines {
		t.Fatalf("expected %d tail lines, got %d", logTailLines, len(info.TailLines))
	}
}

func TestCollectLogsMissingFile(t *testing.T) {
	t.Parallel()

	info := collectLogs(filepath.Join(t.TempDir(), "absent.log"))
	if info.LogFileExists {
		t.Fatalf("missing file must not be reported as existing")
	}
	if len(info.TailLines) != 0 {
		t.Fatalf("expected no tail lines, got %v", info.TailLines)
	}
}

func TestCollectPreflightCounts(t *testing.T) {
	t.Parallel()

	report := preflight.Report{Checks: []preflight.Check{
		{Name: "a", Passed: true, Severity: preflight.SeverityCritical},
		{Name: "b", Severity: preflight.SeverityCritical, Message: "bad"},
		{Name: "c", Severity: preflight.SeverityWarning, Message: "meh"},
	}}

	info := collectPreflight(report)
	if info.CriticalFailures != 1 || info.Warnings != 1 {
		t.Fatalf("unexpected counts: %+v", info)
	}
	if len(info.Checks) != 3 {
		t.Fatalf("expected all checks carried over, got %d", len(info.Checks))
	}
}
