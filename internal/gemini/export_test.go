package gemini

import (
	"log/slog"
	"time"

	"github.com/edgard/tgjournal/internal/config"
)

// ContentGenerator exposes the model seam to tests.
type ContentGenerator = contentGenerator

// NewClientWithGenerator builds a client around a fake model API with no
// retry delay.
func NewClientWithGenerator(models ContentGenerator, cfg config.GeminiConfig, log *slog.Logger) Client {
	c := newClient(models, cfg, log)
	c.retryDelay = time.Millisecond
	return c
}
