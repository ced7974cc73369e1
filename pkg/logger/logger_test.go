package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerEmitsServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "recon-test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithOrgID(context.Background(), "org-1")
	ctx = logg.WithRunID(ctx, "run-9")
	logg.Info(ctx, "partition complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["service"] != "recon-test" {
		t.Fatalf("service field missing: %v", entry)
	}
	if entry["org_id"] != "org-1" || entry["run_id"] != "run-9" {
		t.Fatalf("context fields missing: %v", entry)
	}
	if entry["message"] != "partition complete" {
		t.Fatalf("unexpected message: %v", entry)
	}
}

func TestLoggerContextIsolation(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "recon-test", Output: &buf})

	scoped := logg.WithSKU(context.Background(), "WIDGET-001")
	logg.Info(context.Background(), "no sku here")
	logg.Info(scoped, "sku here")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if strings.Contains(lines[0], "WIDGET-001") {
		t.Fatalf("base context leaked scoped field: %s", lines[0])
	}
	if !strings.Contains(lines[1], "WIDGET-001") {
		t.Fatalf("scoped field missing: %s", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"trace":   zerolog.TraceLevel,
		"nonsen!": zerolog.InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
