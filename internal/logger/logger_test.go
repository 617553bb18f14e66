package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/tgjournal/internal/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := logger.ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(&buf, "warn", false)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestMiddleware_LogsMessageUpdate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(&buf, "info", true)

	called := false
	handler := logger.Middleware(log)(func(context.Context, *bot.Bot, *models.Update) {
		called = true
	})

	handler(context.Background(), nil, &models.Update{
		ID: 9,
		Message: &models.Message{
			ID:       3,
			Chat:     models.Chat{ID: 100},
			From:     &models.User{ID: 42},
			Caption:  "holiday",
			Photo:    []models.PhotoSize{{FileID: "p"}},
			Document: nil,
		},
	})

	if !called {
		t.Fatal("middleware did not call the next handler")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if first["update_type"] != "message" || first["text_preview"] != "holiday" || first["has_photo"] != true {
		t.Errorf("unexpected log fields: %v", first)
	}
	if first["chat_id"] != float64(100) || first["user_id"] != float64(42) {
		t.Errorf("unexpected ids: %v", first)
	}
}
