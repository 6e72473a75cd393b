package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/worldforge-project/worldforge/internal/config"
	"github.com/worldforge-project/worldforge/internal/db"
	"github.com/worldforge-project/worldforge/internal/events"
	"github.com/worldforge-project/worldforge/internal/rcon"
)

type fakeExecutor struct {
	lastCommand string
	err         error
}

func (f *fakeExecutor) ExecuteOne(ctx context.Context, command string) (string, error) {
	f.lastCommand = command
	if f.err != nil {
		return "", f.err
	}
	return "done", nil
}

type fakeSession struct{}

func (f *fakeSession) State() rcon.State { return rcon.StateReady }

type fakeHistory struct {
	runsLimit       int
	structuresLimit int
}

func (f *fakeHistory) RecentRuns(limit int) ([]db.BuildRun, error) {
	f.runsLimit = limit
	return nil, nil
}

func (f *fakeHistory) RecentStructures(limit int) ([]db.StructureRecord, error) {
	f.structuresLimit = limit
	return nil, nil
}

func newTestCLI() (*CLI, *fakeExecutor, *fakeHistory, *events.EventBus) {
	exec := &fakeExecutor{}
	hist := &fakeHistory{}
	bus := events.NewEventBus()
	c := NewCLI(config.DefaultConfig(), bus, exec, &fakeSession{}, hist)
	return c, exec, hist, bus
}

func TestExecuteExecRunsCommand(t *testing.T) {
	c, exec, _, _ := newTestCLI()

	if err := c.execute(context.Background(), "exec", []string{"say", "hello"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.lastCommand != "say hello" {
		t.Fatalf("command = %q, want %q", exec.lastCommand, "say hello")
	}
}

func TestExecuteExecRequiresArgs(t *testing.T) {
	c, exec, _, _ := newTestCLI()

	if err := c.execute(context.Background(), "exec", nil); err == nil {
		t.Fatal("expected usage error for exec with no arguments")
	}
	if exec.lastCommand != "" {
		t.Fatal("executor must not be called without a command")
	}
}

func TestExecutePropagatesExecutorError(t *testing.T) {
	c, exec, _, _ := newTestCLI()
	exec.err = errors.New("connection lost")

	if err := c.execute(context.Background(), "exec", []string{"time", "set", "day"}); err == nil {
		t.Fatal("expected executor error to propagate")
	}
}

func TestExecuteQuitEmitsShutdown(t *testing.T) {
	c, _, _, bus := newTestCLI()

	got := make(chan events.Event, 1)
	bus.Subscribe(events.EventShutdown, "test", func(ctx context.Context, ev events.Event) error {
		got <- ev
		return nil
	})

	if err := c.execute(context.Background(), "quit", nil); err != nil {
		t.Fatalf("execute: %v", err)
	}

	select {
	case ev := <-got:
		if ev.Source != "cli" {
			t.Fatalf("event source = %q, want cli", ev.Source)
		}
	case <-time.After(time.Second):
		t.Fatal("shutdown event was never emitted")
	}
}

func TestExecuteUnknownCommandIsNotAnError(t *testing.T) {
	c, _, _, _ := newTestCLI()

	if err := c.execute(context.Background(), "frobnicate", nil); err != nil {
		t.Fatalf("unknown command should not error: %v", err)
	}
}

func TestHistoryCommandsUseLimitArg(t *testing.T) {
	c, _, hist, _ := newTestCLI()

	if err := c.execute(context.Background(), "runs", []string{"5"}); err != nil {
		t.Fatalf("runs: %v", err)
	}
	if hist.runsLimit != 5 {
		t.Fatalf("runs limit = %d, want 5", hist.runsLimit)
	}

	if err := c.execute(context.Background(), "history", []string{"bogus"}); err != nil {
		t.Fatalf("history: %v", err)
	}
	if hist.structuresLimit != 20 {
		t.Fatalf("history fallback limit = %d, want 20", hist.structuresLimit)
	}
}

func TestParseLimitArg(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		fallback int
		want     int
	}{
		{"valid", []string{"7"}, 10, 7},
		{"empty", nil, 10, 10},
		{"non-numeric", []string{"abc"}, 10, 10},
		{"zero", []string{"0"}, 10, 10},
		{"negative", []string{"-3"}, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLimitArg(tt.args, tt.fallback); got != tt.want {
				t.Fatalf("parseLimitArg(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestLineReaderReadsFromScanner(t *testing.T) {
	lr := newLineReader()
	if lr == nil || lr.scanner == nil {
		t.Fatal("line reader must always be usable")
	}
}
