package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"toy-rsa-service/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q): want %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestNewLogger_AddsTraceFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "INFO", LogFormat: "json", OtelEnabled: true, GoogleCloudProject: "proj"}
	NewLogger(&buf, cfg).InfoContext(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}

	traceID := span.SpanContext().TraceID().String()
	if entry["trace"] != traceID {
		t.Errorf("want trace %s, got %v", traceID, entry["trace"])
	}
	if entry["spanId"] != span.SpanContext().SpanID().String() {
		t.Errorf("want spanId %s, got %v", span.SpanContext().SpanID(), entry["spanId"])
	}
	if entry["traceSampled"] != true {
		t.Errorf("want traceSampled true, got %v", entry["traceSampled"])
	}
	if entry["logging.googleapis.com/trace"] != "projects/proj/traces/"+traceID {
		t.Errorf("unexpected cloud logging trace: %v", entry["logging.googleapis.com/trace"])
	}
}

func TestNewLogger_TraceDisabled(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "INFO", LogFormat: "json"}
	NewLogger(&buf, cfg).InfoContext(ctx, "hello")

	if strings.Contains(buf.String(), "spanId") {
		t.Errorf("expected no trace fields, got %s", buf.String())
	}
}

func TestNewLogger_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "WARN", LogFormat: "text"}
	logger := NewLogger(&buf, cfg)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at WARN: %s", out)
	}
	if !strings.Contains(out, "msg=kept") {
		t.Errorf("want text formatted line, got %s", out)
	}
}
