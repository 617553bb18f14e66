package journal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edgard/tgjournal/internal/journal"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
}

func TestAllocateFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing []string
		desired  string
		expected string
	}{
		{
			name:     "Free name is returned unchanged",
			desired:  "report.pdf",
			expected: "report.pdf",
		},
		{
			name:     "First collision gets counter one",
			existing: []string{"report.pdf"},
			desired:  "report.pdf",
			expected: "report(1).pdf",
		},
		{
			name:     "Counter skips taken candidates",
			existing: []string{"report.pdf", "report(1).pdf", "report(2).pdf"},
			desired:  "report.pdf",
			expected: "report(3).pdf",
		},
		{
			name:     "Gaps are reused",
			existing: []string{"report.pdf", "report(2).pdf"},
			desired:  "report.pdf",
			expected: "report(1).pdf",
		},
		{
			name:     "Name without extension",
			existing: []string{"file_101500"},
			desired:  "file_101500",
			expected: "file_101500(1)",
		},
		{
			name:     "Only the last extension is split off",
			existing: []string{"backup.tar.gz"},
			desired:  "backup.tar.gz",
			expected: "backup.tar(1).gz",
		},
		{
			name:     "Dotfile keeps its name as stem",
			existing: []string{".env"},
			desired:  ".env",
			expected: ".env(1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			for _, name := range tt.existing {
				touch(t, dir, name)
			}

			got, err := journal.AllocateFilename(dir, tt.desired)
			if err != nil {
				t.Fatalf("AllocateFilename() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("AllocateFilename() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAllocateFilename_DoesNotCreateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name, err := journal.AllocateFilename(dir, "photo_101500.jpg")
	if err != nil {
		t.Fatalf("AllocateFilename() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist after allocation, stat error = %v", name, err)
	}
}

func TestAllocateFilename_SequenceIsPairwiseDistinct(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		name, err := journal.AllocateFilename(dir, "photo_101500.jpg")
		if err != nil {
			t.Fatalf("AllocateFilename() error = %v", err)
		}
		if seen[name] {
			t.Fatalf("AllocateFilename() returned %q twice", name)
		}
		seen[name] = true
		touch(t, dir, name)
	}
}
