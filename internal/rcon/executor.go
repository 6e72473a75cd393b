package rcon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxBatchSize caps a single raw command batch. Oversized batches are
// rejected before any network activity.
const MaxBatchSize = 500

// commandPrefix is prepended to commands that lack the console prefix
// the world-editing subsystem expects.
const commandPrefix = "/"

// CommandSession is the slice of Session the executor depends on.
type CommandSession interface {
	State() State
	Connect(ctx context.Context) error
	Execute(ctx context.Context, command string) (string, error)
	Disconnect()
}

// Command is one batch item. DelayBefore is honored before the command
// is sent, letting callers pace visually observable build effects.
// Optional commands may fail without aborting the batch or triggering
// reconnection.
type Command struct {
	Text        string
	DelayBefore time.Duration
	Optional    bool
}

// BatchResult accumulates per-command outcomes. Partial results are
// always returned, never discarded, even when a batch ends early.
type BatchResult struct {
	Results []string
	Errors  []string
}

// Executor issues editing commands through a session, lazily
// connecting on first use. One executor owns one physical connection
// per server target; it is handed its session at construction rather
// than reaching for shared global state.
type Executor struct {
	sess   CommandSession
	logger zerolog.Logger
}

// NewExecutor wraps a session.
func NewExecutor(sess CommandSession) *Executor {
	return &Executor{
		sess:   sess,
		logger: log.With().Str("component", "executor").Logger(),
	}
}

// ensureReady connects the session if it is not already Ready.
func (e *Executor) ensureReady(ctx context.Context) error {
	if e.sess.State() == StateReady {
		return nil
	}
	return e.sess.Connect(ctx)
}

// ExecuteOne runs a single command and returns the raw response text.
// The command is auto-prefixed with "/" when the prefix is missing.
func (e *Executor) ExecuteOne(ctx context.Context, command string) (string, error) {
	if err := e.ensureReady(ctx); err != nil {
		return "", err
	}

	if !strings.HasPrefix(command, commandPrefix) {
		command = commandPrefix + command
	}

	return e.sess.Execute(ctx, command)
}

// ExecuteBatch runs commands strictly in order. Failures of
// non-optional commands trigger one full reconnect before the batch
// continues; if the reconnect itself fails, the batch terminates early
// and returns whatever was accumulated. Optional failures are recorded
// and never fatal.
func (e *Executor) ExecuteBatch(ctx context.Context, items []Command) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d commands (max %d)", ErrBatchTooLarge, len(items), MaxBatchSize)
	}

	res := &BatchResult{}

	for i, item := range items {
		if item.DelayBefore > 0 {
			select {
			case <-time.After(item.DelayBefore):
			case <-ctx.Done():
				return res, ctx.Err()
			}
		}

		out, err := e.ExecuteOne(ctx, item.Text)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("command %d (%s): %v", i+1, item.Text, err))
			e.logger.Warn().
				Err(err).
				Int("index", i).
				Str("command", item.Text).
				Bool("optional", item.Optional).
				Msg("command failed")

			if !item.Optional {
				if rerr := e.reconnect(ctx); rerr != nil {
					e.logger.Error().Err(rerr).
						Int("executed", len(res.Results)).
						Int("remaining", len(items)-i-1).
						Msg("reconnect failed, ending batch with partial results")
					return res, nil
				}
			}
			continue
		}

		res.Results = append(res.Results, out)
	}

	return res, nil
}

// reconnect tears the session down and dials again after a
// non-optional command failure.
func (e *Executor) reconnect(ctx context.Context) error {
	e.logger.Info().Msg("reconnecting rcon session")
	e.sess.Disconnect()
	return e.sess.Connect(ctx)
}
