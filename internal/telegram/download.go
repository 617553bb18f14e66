package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// DefaultAPIURL is the public Telegram Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// FileGetter resolves a file id to a downloadable file path. *bot.Bot
// satisfies it.
type FileGetter interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
}

// Downloader fetches files through the Bot API file endpoint.
type Downloader struct {
	files    FileGetter
	token    string
	apiURL   string
	client   *http.Client
	maxBytes int64
}

// NewDownloader creates a Downloader. maxBytes caps a single file; zero or
// less disables the cap.
func NewDownloader(files FileGetter, token, apiURL string, maxBytes int64) *Downloader {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Downloader{
		files:    files,
		token:    token,
		apiURL:   strings.TrimSuffix(apiURL, "/"),
		client:   http.DefaultClient,
		maxBytes: maxBytes,
	}
}

// Download streams the file identified by fileID into dst.
func (d *Downloader) Download(ctx context.Context, fileID string, dst io.Writer) (err error) {
	if d.token == "" {
		return errors.New("empty token provided for file download")
	}
	if fileID == "" {
		return errors.New("empty fileID provided for file download")
	}
	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before file download: %w", ctx.Err())
	}

	fileObj, err := d.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return fmt.Errorf("failed to get file info from Telegram: %w", err)
	}
	if fileObj == nil || fileObj.FilePath == "" {
		return fmt.Errorf("empty file path returned from Telegram for file ID %s", fileID)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", d.apiURL, d.token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request for %s: %w", fileObj.FilePath, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		// The error text embeds the URL, which carries the token.
		return fmt.Errorf("failed to download %s: %w", fileObj.FilePath, redact(err, d.token))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body for %s: %w", fileObj.FilePath, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status code %d for %s: %s", resp.StatusCode, fileObj.FilePath, strings.TrimSpace(string(body)))
	}

	var src io.Reader = resp.Body
	if d.maxBytes > 0 {
		src = io.LimitReader(resp.Body, d.maxBytes+1)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		return fmt.Errorf("failed to write file data for %s: %w", fileObj.FilePath, err)
	}
	if d.maxBytes > 0 && n > d.maxBytes {
		return fmt.Errorf("file %s exceeds the %d byte limit", fileObj.FilePath, d.maxBytes)
	}
	if n == 0 {
		return fmt.Errorf("received empty file data for %s", fileObj.FilePath)
	}
	return nil
}

// redactedError hides the bot token from the message while keeping the
// original error reachable for errors.Is.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
