package telegram_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/tgjournal/internal/telegram"
)

const testToken = "123456:secret-token"

type fakeFiles struct {
	paths map[string]string
	err   error
}

func (f fakeFiles) GetFile(_ context.Context, params *bot.GetFileParams) (*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{FileID: params.FileID, FilePath: f.paths[params.FileID]}, nil
}

func newFileServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/file/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		body, ok := files[strings.TrimPrefix(r.URL.Path, prefix)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloader_Download(t *testing.T) {
	t.Parallel()

	srv := newFileServer(t, map[string]string{
		"photos/file_1.jpg":    "jpeg bytes",
		"documents/empty.txt":  "",
		"documents/large.bin":  strings.Repeat("x", 64),
		"documents/report.pdf": "pdf bytes",
	})
	files := fakeFiles{paths: map[string]string{
		"photo":   "photos/file_1.jpg",
		"doc":     "documents/report.pdf",
		"empty":   "documents/empty.txt",
		"large":   "documents/large.bin",
		"missing": "documents/missing.bin",
		"nopath":  "",
	}}

	tests := []struct {
		name    string
		fileID  string
		want    string
		wantErr string
	}{
		{name: "Photo", fileID: "photo", want: "jpeg bytes"},
		{name: "Document", fileID: "doc", want: "pdf bytes"},
		{name: "Empty body", fileID: "empty", wantErr: "received empty file data"},
		{name: "Over the size cap", fileID: "large", wantErr: "exceeds the 32 byte limit"},
		{name: "Not found", fileID: "missing", wantErr: "unexpected status code 404"},
		{name: "No file path", fileID: "nopath", wantErr: "empty file path"},
		{name: "No file id", fileID: "", wantErr: "empty fileID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := telegram.NewDownloader(files, testToken, srv.URL+"/", 32)
			var buf bytes.Buffer
			err := d.Download(context.Background(), tt.fileID, &buf)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Download() error = %v, want containing %q", err, tt.wantErr)
				}
				if strings.Contains(err.Error(), testToken) {
					t.Errorf("error leaks the bot token: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Download() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestDownloader_GetFileError(t *testing.T) {
	t.Parallel()

	d := telegram.NewDownloader(fakeFiles{err: errors.New("bad request")}, testToken, "http://127.0.0.1:1", 0)
	err := d.Download(context.Background(), "photo", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "failed to get file info") {
		t.Fatalf("Download() error = %v", err)
	}
}

func TestDownloader_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := telegram.NewDownloader(fakeFiles{}, testToken, "", 0)
	err := d.Download(ctx, "photo", &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Download() error = %v, want context.Canceled", err)
	}
}

func TestBotCommands(t *testing.T) {
	t.Parallel()

	cmds := telegram.BotCommands(map[string]telegram.RegisteredHandler{
		"/stats": {Pattern: "stats", Description: "Today's journal stats"},
		"/help":  {Pattern: "help", Description: "How to use the journal"},
		"hidden": {Pattern: "hidden"},
	})
	if len(cmds) != 2 {
		t.Fatalf("BotCommands() returned %d commands, want 2", len(cmds))
	}
	if cmds[0].Command != "help" || cmds[1].Command != "stats" {
		t.Errorf("BotCommands() = %+v, want help then stats", cmds)
	}
}
