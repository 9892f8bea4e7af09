package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"license-service/config"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func decodeLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestTraceHandler_AddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{OtelEnabled: true, GoogleCloudProject: "proj", LogLevel: "INFO", OtelServiceName: "license-service"}
	logger := NewLogger(&buf, cfg)

	logger.InfoContext(spanContext(t), "hello")

	entry := decodeLog(t, &buf)
	if entry["trace"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected trace: %v", entry["trace"])
	}
	if entry["spanId"] != "00f067aa0ba902b7" {
		t.Errorf("unexpected spanId: %v", entry["spanId"])
	}
	if entry["logging.googleapis.com/trace"] != "projects/proj/traces/4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected cloud trace: %v", entry["logging.googleapis.com/trace"])
	}
	if entry["service"] != "license-service" {
		t.Errorf("unexpected service: %v", entry["service"])
	}
}

func TestTraceHandler_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &config.Config{OtelEnabled: false, LogLevel: "INFO"})

	logger.InfoContext(spanContext(t), "hello")

	entry := decodeLog(t, &buf)
	if _, ok := entry["trace"]; ok {
		t.Error("trace must not be added when otel is disabled")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
