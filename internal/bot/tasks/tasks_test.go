package tasks_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/tgjournal/internal/bot/tasks"
	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/database"
	"github.com/edgard/tgjournal/internal/journal"
	"github.com/edgard/tgjournal/internal/logger"
)

type fakeStore struct {
	mu             sync.Mutex
	prunedBefore   []string
	maintenanceRun int
	err            error
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) RecordMessage(context.Context, *database.MessageRecord) error { return nil }

func (s *fakeStore) HasMessage(context.Context, int64, int64) (bool, error) { return false, nil }

func (s *fakeStore) GetDayStats(_ context.Context, dayKey string) (database.DayStats, error) {
	return database.DayStats{DayKey: dayKey}, nil
}

func (s *fakeStore) DeleteRecordsBeforeDay(_ context.Context, dayKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.prunedBefore = append(s.prunedBefore, dayKey)
	return 3, nil
}

func (s *fakeStore) RunSQLMaintenance(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenanceRun++
	return s.err
}

type fakeSummarizer struct {
	calls   []string
	gotText string
	reply   string
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, dayKey, text string) (string, error) {
	f.calls = append(f.calls, dayKey)
	f.gotText = text
	return f.reply, f.err
}

func newDeps(t *testing.T, store database.Store) tasks.TaskDeps {
	t.Helper()

	cfg := config.Defaults()
	cfg.Journal.SaveDirectory = t.TempDir()
	cfg.Database.RetentionDays = 30

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 0, 15, 0, 0, time.UTC))
	asm := journal.NewAssembler(journal.Settings{
		SaveDirectory: cfg.Journal.SaveDirectory,
		Location:      time.UTC,
	}, clock, nil)

	return tasks.TaskDeps{
		Logger:    logger.Discard(),
		Store:     store,
		Config:    cfg,
		Assembler: asm,
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	got := tasks.RegisterAllTasks(newDeps(t, &fakeStore{}))
	for _, name := range []string{"sql_maintenance", "ledger_prune", "daily_digest"} {
		if got[name] == nil {
			t.Errorf("task %q not registered", name)
		}
	}
	if len(got) != 3 {
		t.Errorf("registered %d tasks, want 3", len(got))
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	task := tasks.RegisterAllTasks(newDeps(t, store))["sql_maintenance"]
	if err := task(context.Background()); err != nil {
		t.Fatalf("sql_maintenance error = %v", err)
	}
	if store.maintenanceRun != 1 {
		t.Errorf("maintenance ran %d times, want 1", store.maintenanceRun)
	}

	store.err = errors.New("locked")
	if err := task(context.Background()); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("sql_maintenance error = %v, want the store failure", err)
	}

	withoutLedger := tasks.RegisterAllTasks(newDeps(t, nil))["sql_maintenance"]
	if err := withoutLedger(context.Background()); err != nil {
		t.Errorf("sql_maintenance without a ledger error = %v", err)
	}
}

func TestLedgerPruneTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		retentionDays int
		storeErr      error
		want          []string
		wantErr       bool
	}{
		{name: "Prunes before cutoff", retentionDays: 30, want: []string{"20240209"}},
		{name: "Retention disabled", retentionDays: 0},
		{name: "Store failure", retentionDays: 1, storeErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{err: tt.storeErr}
			deps := newDeps(t, store)
			deps.Config.Database.RetentionDays = tt.retentionDays

			err := tasks.RegisterAllTasks(deps)["ledger_prune"](context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ledger_prune error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, store.prunedBefore); diff != "" {
				t.Errorf("pruned days mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDailyDigestTask(t *testing.T) {
	t.Parallel()

	const yesterday = "20240309"
	journalText := "---\ndate: 2024-03-09\ntype: telegram-journal\n---\n\n## 10:00:00 - alice\n\nhello\n\n"

	t.Run("Writes digest for yesterday", func(t *testing.T) {
		t.Parallel()

		deps := newDeps(t, &fakeStore{})
		ai := &fakeSummarizer{reply: "- said hello"}
		deps.GeminiClient = ai
		writeJournal(t, deps, yesterday, journalText)

		if err := tasks.RegisterAllTasks(deps)["daily_digest"](context.Background()); err != nil {
			t.Fatalf("daily_digest error = %v", err)
		}
		if diff := cmp.Diff([]string{yesterday}, ai.calls); diff != "" {
			t.Errorf("Summarize calls mismatch (-want +got):\n%s", diff)
		}
		if ai.gotText != journalText {
			t.Errorf("Summarize text = %q, want the journal content", ai.gotText)
		}

		got, err := os.ReadFile(deps.Assembler.DigestPath(yesterday))
		if err != nil {
			t.Fatalf("reading digest: %v", err)
		}
		want := "---\ndate: 2024-03-09\ntype: telegram-digest\n---\n\n- said hello\n"
		if diff := cmp.Diff(want, string(got)); diff != "" {
			t.Errorf("digest mismatch (-want +got):\n%s", diff)
		}

		journalAfter, err := os.ReadFile(deps.Assembler.JournalPath(yesterday))
		if err != nil || string(journalAfter) != journalText {
			t.Errorf("journal file was modified: %q, %v", journalAfter, err)
		}
	})

	t.Run("Existing digest is kept", func(t *testing.T) {
		t.Parallel()

		deps := newDeps(t, &fakeStore{})
		ai := &fakeSummarizer{reply: "new"}
		deps.GeminiClient = ai
		writeJournal(t, deps, yesterday, journalText)

		path := deps.Assembler.DigestPath(yesterday)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := tasks.RegisterAllTasks(deps)["daily_digest"](context.Background()); err != nil {
			t.Fatalf("daily_digest error = %v", err)
		}
		if len(ai.calls) != 0 {
			t.Errorf("Summarize called %d times, want 0", len(ai.calls))
		}
		if got, _ := os.ReadFile(path); string(got) != "old" {
			t.Errorf("digest overwritten: %q", got)
		}
	})

	t.Run("No journal for yesterday", func(t *testing.T) {
		t.Parallel()

		deps := newDeps(t, &fakeStore{})
		ai := &fakeSummarizer{reply: "x"}
		deps.GeminiClient = ai

		if err := tasks.RegisterAllTasks(deps)["daily_digest"](context.Background()); err != nil {
			t.Fatalf("daily_digest error = %v", err)
		}
		if len(ai.calls) != 0 {
			t.Errorf("Summarize called %d times, want 0", len(ai.calls))
		}
	})

	t.Run("Without Gemini client", func(t *testing.T) {
		t.Parallel()

		deps := newDeps(t, &fakeStore{})
		writeJournal(t, deps, yesterday, journalText)

		if err := tasks.RegisterAllTasks(deps)["daily_digest"](context.Background()); err != nil {
			t.Fatalf("daily_digest error = %v", err)
		}
		if _, err := os.Stat(deps.Assembler.DigestPath(yesterday)); !os.IsNotExist(err) {
			t.Errorf("digest written without a client: %v", err)
		}
	})

	t.Run("Summarizer failure", func(t *testing.T) {
		t.Parallel()

		deps := newDeps(t, &fakeStore{})
		deps.GeminiClient = &fakeSummarizer{err: errors.New("quota")}
		writeJournal(t, deps, yesterday, journalText)

		err := tasks.RegisterAllTasks(deps)["daily_digest"](context.Background())
		if err == nil || !strings.Contains(err.Error(), "quota") {
			t.Fatalf("daily_digest error = %v, want quota failure", err)
		}
		if _, err := os.Stat(deps.Assembler.DigestPath(yesterday)); !os.IsNotExist(err) {
			t.Errorf("digest written after failure: %v", err)
		}
	})
}

func writeJournal(t *testing.T, deps tasks.TaskDeps, dayKey, content string) {
	t.Helper()

	path := deps.Assembler.JournalPath(dayKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
