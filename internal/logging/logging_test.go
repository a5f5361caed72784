package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger

	return buf.String()
}

func TestInitLoggerTo(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		format   Format
		logDebug bool
		wantJSON bool
	}{
		{"debug json", LevelDebug, FormatJSON, true, true},
		{"info json", LevelInfo, FormatJSON, false, true},
		{"warn text", LevelWarn, FormatText, false, false},
		{"error text", LevelError, FormatText, false, false},
		{"invalid level defaults to info", Level(999), FormatJSON, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level, tt.format)
			defer InitLogger(LevelWarn, FormatText)

			Debug("debug message")
			Error("error message", "key", "value")

			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.logDebug {
				t.Errorf("debug logged = %v, want %v\n%s", got, tt.logDebug, out)
			}
			if !strings.Contains(out, "error message") {
				t.Errorf("error message missing from output: %s", out)
			}
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v", got, tt.wantJSON)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelInfo, FormatJSON)
	defer InitLogger(LevelWarn, FormatText)

	Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"Text", FormatText, false},
		{"", FormatText, false},
		{"xml", FormatText, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q, want run-123", got)
	}

	generated := GetRunID(WithRunID(context.Background(), ""))
	if len(generated) != 36 {
		t.Errorf("generated run ID %q is not a UUID", generated)
	}

	if got := GetRunID(context.WithValue(context.Background(), RunIDKey, 12345)); got != "" {
		t.Errorf("GetRunID with wrong type = %q, want empty", got)
	}
}

func TestContextLoggingFunctions(t *testing.T) {
	ctx := WithRunID(context.Background(), "test-run-id")

	tests := []struct {
		name string
		fn   func()
	}{
		{"DebugContext", func() { DebugContext(ctx, "debug message", "key", "value") }},
		{"InfoContext", func() { InfoContext(ctx, "info message", "key", "value") }},
		{"WarnContext", func() { WarnContext(ctx, "warning message", "key", "value") }},
		{"ErrorContext", func() { ErrorContext(ctx, "error message", "key", "value") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			if !strings.Contains(output, "test-run-id") {
				t.Errorf("Expected output to contain run ID, got %s", output)
			}
		})
	}
}

func TestDomainHelpers(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		fn    func()
		wants []string
	}{
		{
			name:  "ParseComplete",
			fn:    func() { ParseComplete(ctx, "refs.nbib", 40, 12*time.Millisecond) },
			wants: []string{"parse_complete", "refs.nbib", `"records":40`, `"duration_ms":12`},
		},
		{
			name:  "EmitComplete",
			fn:    func() { EmitComplete(ctx, "out.nbib", 3, 2, 120, time.Millisecond) },
			wants: []string{"emit_complete", "out.nbib", `"batches":2`, `"bytes":120`},
		},
		{
			name:  "ImportComplete",
			fn:    func() { ImportComplete(ctx, "lib.db", 5, 1, "source", "refs.nbib") },
			wants: []string{"import_complete", `"inserted":5`, `"skipped":1`, "refs.nbib"},
		},
		{
			name:  "CommandError",
			fn:    func() { CommandError(ctx, "export", errors.New("boom")) },
			wants: []string{"command_error", "export", "boom", `"level":"ERROR"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			for _, want := range tt.wants {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %q: %s", want, output)
				}
			}
		})
	}
}
