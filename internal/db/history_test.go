package db

import (
	"path/filepath"
	"testing"
)

func openTestHistory(t *testing.T) *BuildHistory {
	t.Helper()

	database, err := NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	history, err := NewBuildHistory(database)
	if err != nil {
		t.Fatalf("NewBuildHistory: %v", err)
	}
	return history
}

func TestRecordAndReadStructures(t *testing.T) {
	history := openTestHistory(t)

	records := []StructureRecord{
		{StructureID: "tower-1", Name: "Tower", Success: true, CommandsExecuted: 10, ExecutionTimeMs: 120},
		{StructureID: "wall-1", Name: "Wall", Success: false, CommandsExecuted: 3, CommandsFailed: 7,
			ExecutionTimeMs: 80, Errors: []string{"command 4 (/fill): server error", "command 5 (/fill): server error"}},
	}
	for _, rec := range records {
		if err := history.RecordStructure(rec); err != nil {
			t.Fatalf("RecordStructure: %v", err)
		}
	}

	got, err := history.RecentStructures(10)
	if err != nil {
		t.Fatalf("RecentStructures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	// Newest first.
	if got[0].StructureID != "wall-1" {
		t.Fatalf("first record = %s, want wall-1", got[0].StructureID)
	}
	if got[0].Success || got[0].CommandsFailed != 7 {
		t.Fatalf("wall record = %+v", got[0])
	}
	if len(got[0].Errors) != 2 {
		t.Fatalf("errors = %v, want 2 entries", got[0].Errors)
	}
	if len(got[1].Errors) != 0 {
		t.Fatalf("tower record should carry no errors, got %v", got[1].Errors)
	}
}

func TestRecordAndReadRuns(t *testing.T) {
	history := openTestHistory(t)

	if err := history.RecordWorld(BuildRun{StructuresBuilt: 2, StructuresTotal: 3, Success: false, TotalTimeMs: 900}); err != nil {
		t.Fatalf("RecordWorld: %v", err)
	}
	if err := history.RecordWorld(BuildRun{StructuresBuilt: 3, StructuresTotal: 3, Success: true, TotalTimeMs: 1200}); err != nil {
		t.Fatalf("RecordWorld: %v", err)
	}

	runs, err := history.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if !runs[0].Success || runs[0].StructuresBuilt != 3 {
		t.Fatalf("newest run = %+v", runs[0])
	}
}

func TestRecentRunsLimit(t *testing.T) {
	history := openTestHistory(t)

	for i := 0; i < 5; i++ {
		if err := history.RecordWorld(BuildRun{StructuresBuilt: i, StructuresTotal: 5, TotalTimeMs: int64(i)}); err != nil {
			t.Fatalf("RecordWorld: %v", err)
		}
	}

	runs, err := history.RecentRuns(3)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
}

func TestPruneKeepsRecentRows(t *testing.T) {
	history := openTestHistory(t)

	if err := history.RecordWorld(BuildRun{StructuresBuilt: 1, StructuresTotal: 1, Success: true}); err != nil {
		t.Fatalf("RecordWorld: %v", err)
	}

	// Everything just written is inside any positive retention window.
	deleted, err := history.Prune(30)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}

	runs, err := history.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs after prune, want 1", len(runs))
	}
}
