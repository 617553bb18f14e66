package bot_test

import (
	"context"
	"testing"
	"time"

	"github.com/edgard/tgjournal/internal/bot"
	"github.com/edgard/tgjournal/internal/logger"
)

type blockingListener struct {
	started chan struct{}
}

func (l blockingListener) Start(ctx context.Context) {
	close(l.started)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func newTestScheduler(t *testing.T) *bot.Scheduler {
	t.Helper()
	s, err := bot.NewScheduler(logger.Discard(), nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

func TestBotRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	listener := blockingListener{started: make(chan struct{})}
	b := bot.NewBot(logger.Discard(), nil, listener, newTestScheduler(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	<-listener.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestBotRun_ListenerExitIsAnError(t *testing.T) {
	t.Parallel()

	b := bot.NewBot(logger.Discard(), nil, returningListener{}, newTestScheduler(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Run(ctx); err == nil {
		t.Error("Run() expected an error when the listener stops on its own")
	}
}
