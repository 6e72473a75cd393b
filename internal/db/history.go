package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/events"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS build_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	structures_built INTEGER NOT NULL,
	structures_total INTEGER NOT NULL,
	success INTEGER NOT NULL,
	total_time_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS structure_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	structure_id TEXT NOT NULL,
	name TEXT NOT NULL,
	success INTEGER NOT NULL,
	commands_executed INTEGER NOT NULL,
	commands_failed INTEGER NOT NULL,
	execution_time_ms INTEGER NOT NULL,
	errors TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_build_runs_started ON build_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_structure_results_recorded ON structure_results(recorded_at);
`

// BuildRun is one recorded world build.
type BuildRun struct {
	ID              int64     `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	StructuresBuilt int       `json:"structures_built"`
	StructuresTotal int       `json:"structures_total"`
	Success         bool      `json:"success"`
	TotalTimeMs     int64     `json:"total_time_ms"`
}

// StructureRecord is one recorded structure build.
type StructureRecord struct {
	ID               int64     `json:"id"`
	RecordedAt       time.Time `json:"recorded_at"`
	StructureID      string    `json:"structure_id"`
	Name             string    `json:"name"`
	Success          bool      `json:"success"`
	CommandsExecuted int       `json:"commands_executed"`
	CommandsFailed   int       `json:"commands_failed"`
	ExecutionTimeMs  int64     `json:"execution_time_ms"`
	Errors           []string  `json:"errors,omitempty"`
}

// BuildHistory persists build outcomes so operators can review past
// runs after the fact.
type BuildHistory struct {
	db     *Database
	logger zerolog.Logger
}

// NewBuildHistory creates the history store and ensures its schema.
func NewBuildHistory(database *Database) (*BuildHistory, error) {
	if _, err := database.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &BuildHistory{
		db:     database,
		logger: log.With().Str("component", "history").Logger(),
	}, nil
}

// RecordStructure stores the outcome of one structure build.
func (h *BuildHistory) RecordStructure(r StructureRecord) error {
	_, err := h.db.Exec(
		`INSERT INTO structure_results
		 (structure_id, name, success, commands_executed, commands_failed, execution_time_ms, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StructureID, r.Name, boolToInt(r.Success),
		r.CommandsExecuted, r.CommandsFailed, r.ExecutionTimeMs,
		strings.Join(r.Errors, "\n"),
	)
	if err != nil {
		return fmt.Errorf("failed to record structure result: %w", err)
	}
	return nil
}

// RecordWorld stores the aggregate outcome of a world build.
func (h *BuildHistory) RecordWorld(r BuildRun) error {
	_, err := h.db.Exec(
		`INSERT INTO build_runs
		 (structures_built, structures_total, success, total_time_ms)
		 VALUES (?, ?, ?, ?)`,
		r.StructuresBuilt, r.StructuresTotal, boolToInt(r.Success), r.TotalTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record build run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent world builds, newest first.
func (h *BuildHistory) RecentRuns(limit int) ([]BuildRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.Query(
		`SELECT id, started_at, structures_built, structures_total, success, total_time_ms
		 FROM build_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query build runs: %w", err)
	}
	defer rows.Close()

	var runs []BuildRun
	for rows.Next() {
		var run BuildRun
		var success int
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.StructuresBuilt,
			&run.StructuresTotal, &success, &run.TotalTimeMs); err != nil {
			return nil, fmt.Errorf("failed to scan build run: %w", err)
		}
		run.Success = success != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecentStructures returns the most recent structure builds, newest first.
func (h *BuildHistory) RecentStructures(limit int) ([]StructureRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := h.db.Query(
		`SELECT id, recorded_at, structure_id, name, success,
		        commands_executed, commands_failed, execution_time_ms, errors
		 FROM structure_results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query structure results: %w", err)
	}
	defer rows.Close()

	var records []StructureRecord
	for rows.Next() {
		var rec StructureRecord
		var success int
		var errText string
		if err := rows.Scan(&rec.ID, &rec.RecordedAt, &rec.StructureID, &rec.Name,
			&success, &rec.CommandsExecuted, &rec.CommandsFailed,
			&rec.ExecutionTimeMs, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan structure result: %w", err)
		}
		rec.Success = success != 0
		if errText != "" {
			rec.Errors = strings.Split(errText, "\n")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes history entries older than the retention window.
func (h *BuildHistory) Prune(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var deleted int64
	for _, table := range []string{"build_runs", "structure_results"} {
		col := "started_at"
		if table == "structure_results" {
			col = "recorded_at"
		}
		res, err := h.db.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE %s < ?", table, col), cutoff)
		if err != nil {
			return deleted, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += n
		}
	}

	if deleted > 0 {
		h.logger.Info().Int64("rows", deleted).Msg("pruned build history")
	}
	return deleted, nil
}

// SubscribeEvents attaches the history store to the event bus so build
// outcomes are persisted as they happen.
func (h *BuildHistory) SubscribeEvents(bus *events.EventBus) {
	bus.Subscribe(events.EventStructureCompleted, "history", func(ctx context.Context, ev events.Event) error {
		payload, ok := ev.Payload.(events.StructureCompletedPayload)
		if !ok {
			return nil
		}
		return h.RecordStructure(StructureRecord{
			StructureID:      payload.StructureID,
			Name:             payload.Name,
			Success:          payload.Success,
			CommandsExecuted: payload.CommandsExecuted,
			CommandsFailed:   payload.CommandsFailed,
			ExecutionTimeMs:  payload.ExecutionTimeMs,
			Errors:           payload.Errors,
		})
	})

	bus.Subscribe(events.EventWorldCompleted, "history", func(ctx context.Context, ev events.Event) error {
		payload, ok := ev.Payload.(events.WorldCompletedPayload)
		if !ok {
			return nil
		}
		return h.RecordWorld(BuildRun{
			StructuresBuilt: payload.StructuresBuilt,
			StructuresTotal: payload.StructuresTotal,
			Success:         payload.Success,
			TotalTimeMs:     payload.TotalTimeMs,
		})
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
