package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newBufferLogger(t *testing.T, level LogLevel) (*ZapLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: level, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	return log, &buf
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewZapLogger_InvalidFormat(t *testing.T) {
	if _, err := NewZapLogger(Config{Level: InfoLevel, Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, WarnLevel)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	entries := decodeEntries(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries at warn level, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Fatalf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestZapLogger_WithContextAddsRequestID(t *testing.T) {
	log, buf := newBufferLogger(t, InfoLevel)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	log.WithContext(ctx).Info("order placed", "order_id", "o1")
	log.WithContext(context.Background()).Info("no request")

	entries := decodeEntries(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["request_id"] != "req-123" {
		t.Fatalf("expected request_id, got %v", entries[0])
	}
	if entries[0]["order_id"] != "o1" {
		t.Fatalf("expected order_id field, got %v", entries[0])
	}
	if _, ok := entries[1]["request_id"]; ok {
		t.Fatalf("unexpected request_id in %v", entries[1])
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": DebugLevel, "warning": WarnLevel, "error": ErrorLevel} {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

// TestProperty_StructuredEntries checks every emitted entry is JSON carrying
// timestamp, level and message, plus request_id when the context has one.
func TestProperty_StructuredEntries(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genMessage := gen.AlphaString().SuchThat(func(s string) bool { return s != "" })
	genRequestID := gen.OneGenOf(gen.Const(""), gen.Identifier())

	properties.Property("entries are structured", prop.ForAll(
		func(message, requestID string) bool {
			var buf bytes.Buffer
			log, err := NewZapLogger(Config{Level: DebugLevel, Format: JSONFormat, Output: &buf})
			if err != nil {
				return false
			}
			ctx := context.Background()
			if requestID != "" {
				ctx = ContextWithRequestID(ctx, requestID)
			}
			log.WithContext(ctx).Info(message)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			for _, key := range []string{"timestamp", "level", "message"} {
				if _, ok := entry[key]; !ok {
					return false
				}
			}
			got, has := entry["request_id"]
			if requestID == "" {
				return !has
			}
			return got == requestID
		},
		genMessage, genRequestID,
	))

	properties.TestingRun(t)
}
