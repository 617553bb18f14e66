// Package gemini implements the daily digest summarizer on top of Google's
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/journal"
)

const (
	defaultMaxRetries = 2
	defaultRetryDelay = 2 * time.Second
)

// Client summarizes journal days.
type Client interface {
	// Summarize returns a markdown digest of one day's journal text.
	Summarize(ctx context.Context, dayKey, journalText string) (string, error)
}

// contentGenerator is the part of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models        contentGenerator
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a Gemini client from cfg. It fails when no API key is
// configured.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newClient(gi.Models, cfg, log)
	c.log.Info("Gemini client initialized successfully", "model", cfg.Model)
	return c, nil
}

func newClient(models contentGenerator, cfg config.GeminiConfig, log *slog.Logger) *sdkClient {
	if log == nil {
		log = slog.Default()
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if cfg.SystemInstruction != "" {
		baseCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.SystemInstruction}}}
	}

	return &sdkClient{
		models:        models,
		log:           log.With("component", "gemini_client"),
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		timeout:       cfg.Timeout,
		maxRetries:    defaultMaxRetries,
		retryDelay:    defaultRetryDelay,
	}
}

// Summarize sends the day's journal to the model and returns its digest.
func (c *sdkClient) Summarize(ctx context.Context, dayKey, journalText string) (string, error) {
	day, err := journal.ParseDayKey(dayKey)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(journalText) == "" {
		return "", errors.New("journal text is empty")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := BuildDigestPrompt(day.Format("2006-01-02"), journalText)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	c.log.DebugContext(ctx, "Requesting digest", "day_key", dayKey, "prompt_length", len(prompt))
	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty digest")
	}
	c.log.InfoContext(ctx, "Digest generated", "day_key", dayKey, "length", len(text))
	return text, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	for i := 0; ; i++ {
		resp, err := c.models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			if resp == nil {
				return nil, errors.New("gemini returned a nil response")
			}
			return resp, nil
		}

		var apiErr genai.APIError
		retriable := errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503)
		if !retriable {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if i >= c.maxRetries {
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "error", err, "code", apiErr.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		c.log.InfoContext(ctx, "Retrying Gemini API call", "attempt", i+1, "delay", c.retryDelay, "code", apiErr.Code)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gemini retry aborted: %w", ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
}
