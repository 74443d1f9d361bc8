package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/garyellow/harvard-gems/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		setupContext   func(context.Context) context.Context
		expectedFields map[string]string
	}{
		{
			name: "extracts all context values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "req-abc-123")
				ctx = ctxutil.WithClientIP(ctx, "10.1.2.3")
				ctx = ctxutil.WithOperation(ctx, "find_gems")
				return ctx
			},
			expectedFields: map[string]string{
				"request_id": "req-abc-123",
				"client_ip":  "10.1.2.3",
				"operation":  "find_gems",
			},
		},
		{
			name: "extracts partial context values",
			setupContext: func(ctx context.Context) context.Context {
				return ctxutil.WithRequestID(ctx, "req-only")
			},
			expectedFields: map[string]string{
				"request_id": "req-only",
			},
		},
		{
			name: "handles empty context",
			setupContext: func(ctx context.Context) context.Context {
				return ctx
			},
			expectedFields: map[string]string{},
		},
		{
			name: "skips empty string values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "")
				ctx = ctxutil.WithClientIP(ctx, "127.0.0.1")
				return ctx
			},
			expectedFields: map[string]string{
				"client_ip": "127.0.0.1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewContextHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			logger := slog.New(handler)

			logger.InfoContext(tt.setupContext(context.Background()), "test message")
			output := buf.String()

			for key, value := range tt.expectedFields {
				expectedJSON := `"` + key + `":"` + value + `"`
				if !strings.Contains(output, expectedJSON) {
					t.Errorf("Expected field %s=%s not found in output: %s", key, value, output)
				}
			}

			for _, field := range []string{"request_id", "client_ip", "operation"} {
				if _, want := tt.expectedFields[field]; want {
					continue
				}
				if strings.Contains(output, `"`+field+`"`) {
					t.Errorf("Unexpected field %s found in output: %s", field, output)
				}
			}
		})
	}
}

func TestContextHandler_Enabled(t *testing.T) {
	handler := NewContextHandler(slog.NewJSONHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	tests := []struct {
		name     string
		level    slog.Level
		expected bool
	}{
		{"debug below threshold", slog.LevelDebug, false},
		{"info at threshold", slog.LevelInfo, true},
		{"error above threshold", slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if enabled := handler.Enabled(context.Background(), tt.level); enabled != tt.expected {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, enabled, tt.expected)
			}
		})
	}
}

func TestContextHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)).WithGroup("merge"))

	logger.Info("stage complete", "count", 42)

	output := buf.String()
	if !strings.Contains(output, `"merge":{`) {
		t.Errorf("Expected merge group not found in output: %s", output)
	}
	if !strings.Contains(output, `"count":42`) {
		t.Errorf("Expected count in group not found in output: %s", output)
	}
}
