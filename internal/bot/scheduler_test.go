package bot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/tgjournal/internal/bot"
	"github.com/edgard/tgjournal/internal/bot/tasks"
	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/logger"
)

func TestScheduler_RunsEnabledTasks(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	ran := make(chan string, 8)
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"every_second": func(context.Context) error {
			ran <- "every_second"
			return nil
		},
		"failing": func(context.Context) error {
			ran <- "failing"
			return errors.New("boom")
		},
		"disabled": func(context.Context) error {
			ran <- "disabled"
			return nil
		},
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"every_second": {Enabled: true, Schedule: "* * * * * *"},
		"failing":      {Enabled: true, Schedule: "* * * * * *"},
		"disabled":     {Enabled: false, Schedule: "* * * * * *"},
		"unregistered": {Enabled: true, Schedule: "* * * * * *"},
		"bad_schedule": {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap["bad_schedule"] = taskMap["every_second"]

	s, err := bot.NewScheduler(logger.Discard(), cfg, taskMap, gocron.WithClock(clock))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if got := s.ScheduledJobs(); got != 2 {
		t.Fatalf("ScheduledJobs() = %d, want 2", got)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() expected an error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 2); err != nil {
		t.Fatalf("jobs never waited on the clock: %v", err)
	}
	clock.Advance(time.Second)

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case name := <-ran:
			seen[name] = true
		case <-ctx.Done():
			t.Fatalf("tasks did not run, saw %v", seen)
		}
	}
	if seen["disabled"] {
		t.Error("disabled task ran")
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	s, err := bot.NewScheduler(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
