// Package builder sequences world-editing command batches into
// structure and world builds, aggregating per-command outcomes into
// structure-level and world-level success.
package builder

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/events"
	"github.com/worldforge-project/worldforge/internal/rcon"
)

const (
	// DefaultCommandDelay paces commands inside a structure so build
	// effects are observable in-game.
	DefaultCommandDelay = 50 * time.Millisecond

	// DefaultStructurePause lets the server settle between structures.
	DefaultStructurePause = 500 * time.Millisecond
)

// CommandSpec is one editing command inside a structure. DelayMs is
// the pre-command pacing delay in milliseconds; nil means the default.
type CommandSpec struct {
	Text     string `json:"text"`
	DelayMs  *int   `json:"delay_ms,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Structure is a named, ordered group of editing commands representing
// one buildable unit.
type Structure struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Commands []CommandSpec `json:"commands"`
}

// ExecutionResult is the outcome of building one structure. Success is
// derived, never stored independently: a structure succeeds when
// strictly fewer than half of its commands failed. Partially built
// failed structures are left in the world; there is no rollback.
type ExecutionResult struct {
	StructureID      string   `json:"structure_id"`
	Success          bool     `json:"success"`
	CommandsExecuted int      `json:"commands_executed"`
	CommandsFailed   int      `json:"commands_failed"`
	ExecutionTimeMs  int64    `json:"execution_time_ms"`
	Errors           []string `json:"errors"`
}

// WorldReport aggregates the results of building every structure in a
// world. World success is stricter than structure success: every
// structure must have individually succeeded.
type WorldReport struct {
	StructuresBuilt int               `json:"structures_built"`
	StructuresTotal int               `json:"structures_total"`
	Success         bool              `json:"success"`
	TotalTimeMs     int64             `json:"total_time_ms"`
	Results         []ExecutionResult `json:"results"`
}

// BatchRunner is the slice of the command executor the builder needs.
type BatchRunner interface {
	ExecuteBatch(ctx context.Context, items []rcon.Command) (*rcon.BatchResult, error)
}

// Options tune build pacing. Zero values select the defaults.
type Options struct {
	CommandDelay   time.Duration
	StructurePause time.Duration
}

// Builder turns structures and worlds into ordered command batches.
// Execution is strictly sequential: the game server applies world
// edits in program order, and interleaved submissions would produce
// nondeterministic builds.
type Builder struct {
	exec     BatchRunner
	eventBus *events.EventBus
	opts     Options
	logger   zerolog.Logger
}

// NewBuilder creates a Builder. The event bus may be nil for callers
// that do not care about progress events.
func NewBuilder(exec BatchRunner, eventBus *events.EventBus, opts Options) *Builder {
	if opts.CommandDelay <= 0 {
		opts.CommandDelay = DefaultCommandDelay
	}
	if opts.StructurePause <= 0 {
		opts.StructurePause = DefaultStructurePause
	}

	return &Builder{
		exec:     exec,
		eventBus: eventBus,
		opts:     opts,
		logger:   log.With().Str("component", "builder").Logger(),
	}
}

// BuildStructure executes one structure's commands and derives its
// success from the failed-command ratio.
func (b *Builder) BuildStructure(ctx context.Context, s Structure) ExecutionResult {
	b.logger.Info().
		Str("structure", s.Name).
		Int("commands", len(s.Commands)).
		Msg("building structure")

	b.emit(ctx, events.Event{
		Type:   events.EventStructureStarted,
		Source: "builder",
		Payload: events.StructureStartedPayload{
			StructureID: s.ID,
			Name:        s.Name,
			Commands:    len(s.Commands),
		},
	})

	start := time.Now()
	batch, err := b.exec.ExecuteBatch(ctx, b.toCommands(s.Commands))
	elapsed := time.Since(start)

	result := ExecutionResult{
		StructureID:     s.ID,
		ExecutionTimeMs: elapsed.Milliseconds(),
		Errors:          []string{},
	}

	if batch != nil {
		result.CommandsExecuted = len(batch.Results)
		result.Errors = append(result.Errors, batch.Errors...)
	}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	// Commands the batch never reached (early termination after a
	// failed reconnect) count as failed for the success ratio.
	result.CommandsFailed = len(s.Commands) - result.CommandsExecuted
	result.Success = structureSucceeded(result.CommandsFailed, len(s.Commands))

	b.logger.Info().
		Str("structure", s.Name).
		Bool("success", result.Success).
		Int("executed", result.CommandsExecuted).
		Int("failed", result.CommandsFailed).
		Dur("elapsed", elapsed).
		Msg("structure build finished")

	b.emit(ctx, events.Event{
		Type:   events.EventStructureCompleted,
		Source: "builder",
		Payload: events.StructureCompletedPayload{
			StructureID:      s.ID,
			Name:             s.Name,
			Success:          result.Success,
			CommandsExecuted: result.CommandsExecuted,
			CommandsFailed:   result.CommandsFailed,
			ExecutionTimeMs:  result.ExecutionTimeMs,
			Errors:           result.Errors,
		},
	})

	return result
}

// BuildWorld builds structures strictly in input order with a settle
// pause between them, and reports the aggregate tally.
func (b *Builder) BuildWorld(ctx context.Context, structures []Structure) WorldReport {
	b.logger.Info().Int("structures", len(structures)).Msg("building world")

	start := time.Now()
	report := WorldReport{
		StructuresTotal: len(structures),
		Results:         make([]ExecutionResult, 0, len(structures)),
	}

	for i, s := range structures {
		if i > 0 {
			select {
			case <-time.After(b.opts.StructurePause):
			case <-ctx.Done():
				report.TotalTimeMs = time.Since(start).Milliseconds()
				return report
			}
		}

		result := b.BuildStructure(ctx, s)
		report.Results = append(report.Results, result)
		if result.Success {
			report.StructuresBuilt++
		}
	}

	report.TotalTimeMs = time.Since(start).Milliseconds()
	report.Success = report.StructuresBuilt == report.StructuresTotal

	b.logger.Info().
		Int("built", report.StructuresBuilt).
		Int("total", report.StructuresTotal).
		Bool("success", report.Success).
		Msg("world build finished")

	b.emit(ctx, events.Event{
		Type:   events.EventWorldCompleted,
		Source: "builder",
		Payload: events.WorldCompletedPayload{
			StructuresBuilt: report.StructuresBuilt,
			StructuresTotal: report.StructuresTotal,
			Success:         report.Success,
			TotalTimeMs:     report.TotalTimeMs,
		},
	})

	return report
}

// emit publishes a progress event when a bus is attached. Collaborator
// sinks run asynchronously; the build loop never blocks on them.
func (b *Builder) emit(ctx context.Context, ev events.Event) {
	if b.eventBus != nil {
		b.eventBus.Emit(ctx, ev)
	}
}

// toCommands converts command specs to executor items, applying the
// default pacing delay where none was given.
func (b *Builder) toCommands(specs []CommandSpec) []rcon.Command {
	items := make([]rcon.Command, len(specs))
	for i, spec := range specs {
		delay := b.opts.CommandDelay
		if spec.DelayMs != nil {
			delay = time.Duration(*spec.DelayMs) * time.Millisecond
		}
		items[i] = rcon.Command{
			Text:        spec.Text,
			DelayBefore: delay,
			Optional:    spec.Optional,
		}
	}
	return items
}

// structureSucceeded applies the 50% threshold: strictly fewer than
// half the commands failed. Exactly half failing is a failure.
func structureSucceeded(failed, total int) bool {
	if total == 0 {
		return true
	}
	return failed*2 < total
}
