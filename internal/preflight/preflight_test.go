package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pass(name string) Check {
	return Check{Name: name, Passed: true, Severity: SeverityCritical, Message: "ok"}
}

func fail(name string, severity Severity) Check {
	return Check{Name: name, Severity: severity, Message: "bad", Hint: "fix it"}
}

func TestReportNoFailures(t *testing.T) {
	t.Parallel()

	r := Report{Checks: []Check{pass("a"), pass("b")}}
	if r.HasCriticalFailures() || r.HasWarnings() {
		t.Fatalf("expected clean report")
	}
	if r.CriticalFailureSummary() != "" {
		t.Fatalf("expected empty summary, got %q", r.CriticalFailureSummary())
	}
}

func TestReportCriticalFailure(t *testing.T) {
	t.Parallel()

	r := Report{Checks: []Check{pass("a"), fail("input", SeverityCritical)}}
	if !r.HasCriticalFailures() {
		t.Fatalf("expected critical failure")
	}
	if r.HasWarnings() {
		t.Fatalf("did not expect warnings")
	}
	if got := r.CriticalFailureSummary(); got != "Setup required: input" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestReportWarningOnly(t *testing.T) {
	t.Parallel()

	r := Report{Checks: []Check{pass("a"), fail("model", SeverityWarning)}}
	if r.HasCriticalFailures() {
		t.Fatalf("warnings must not count as critical")
	}
	if !r.HasWarnings() {
		t.Fatalf("expected warning")
	}
}

func TestReportMultipleCriticalFailures(t *testing.T) {
	t.Parallel()

	r := Report{Checks: []Check{fail("input", SeverityCritical), fail("arecord", SeverityCritical)}}
	if got := r.CriticalFailureSummary(); got != "Setup required: input, arecord" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestReportStringFormatsPassAndFail(t *testing.T) {
	t.Parallel()

	r := Report{Checks: []Check{pass("arecord"), fail("input", SeverityCritical), fail("model", SeverityWarning)}}
	out := r.String()

	if !strings.Contains(out, "PASS") || !strings.Contains(out, "arecord") {
		t.Fatalf("missing pass line: %q", out)
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "WARN") {
		t.Fatalf("missing fail/warn tags: %q", out)
	}
	if !strings.Contains(out, "hint: fix it") {
		t.Fatalf("missing hint line: %q", out)
	}
}

func TestCheckDirectoryCreatesPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "murmur-test")
	c := checkDirectory("test dir", path, SeverityCritical)
	if !c.Passed {
		t.Fatalf("expected pass: %+v", c)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestCheckDirectoryFileInTheWay(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := checkDirectory("test dir", path, SeverityCritical)
	if c.Passed {
		t.Fatalf("expected failure for file in the way")
	}
}

func TestCheckRecorderMissing(t *testing.T) {
	t.Parallel()

	c := checkRecorder("definitely-not-a-recorder-binary")
	if c.Passed {
		t.Fatalf("expected failure for missing recorder")
	}
	if c.Severity != SeverityCritical {
		t.Fatalf("recorder check must be critical")
	}
}
