package builder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/worldforge-project/worldforge/internal/rcon"
)

// fakeRunner fails commands whose text appears in failTexts and
// records everything submitted.
type fakeRunner struct {
	submitted [][]rcon.Command
	failTexts map[string]bool
}

func newFakeRunner(failTexts ...string) *fakeRunner {
	f := &fakeRunner{failTexts: map[string]bool{}}
	for _, t := range failTexts {
		f.failTexts[t] = true
	}
	return f
}

func (f *fakeRunner) ExecuteBatch(ctx context.Context, items []rcon.Command) (*rcon.BatchResult, error) {
	f.submitted = append(f.submitted, items)

	res := &rcon.BatchResult{}
	for i, item := range items {
		if f.failTexts[item.Text] {
			res.Errors = append(res.Errors, fmt.Sprintf("command %d (%s): failed", i+1, item.Text))
			continue
		}
		res.Results = append(res.Results, "ok")
	}
	return res, nil
}

func testOptions() Options {
	return Options{CommandDelay: time.Millisecond, StructurePause: time.Millisecond}
}

func structureWithFailures(total, failing int) (Structure, *fakeRunner) {
	s := Structure{ID: "s1", Name: "tower"}
	var failTexts []string
	for i := 0; i < total; i++ {
		text := fmt.Sprintf("cmd-%d", i)
		s.Commands = append(s.Commands, CommandSpec{Text: text})
		if i < failing {
			failTexts = append(failTexts, text)
		}
	}
	return s, newFakeRunner(failTexts...)
}

// The success boundary sits at exactly 50%: 4 of 10 failed is a
// success, 5 of 10 is a failure.
func TestBuildStructureThreshold(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		failing int
		want    bool
	}{
		{"no failures", 10, 0, true},
		{"under half", 10, 4, true},
		{"exactly half", 10, 5, false},
		{"over half", 10, 6, false},
		{"all failed", 10, 10, false},
		{"odd count under half", 5, 2, true},
		{"odd count over half", 5, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, runner := structureWithFailures(tt.total, tt.failing)
			b := NewBuilder(runner, nil, testOptions())

			result := b.BuildStructure(context.Background(), s)

			if result.Success != tt.want {
				t.Fatalf("Success = %v, want %v (%d/%d failed)",
					result.Success, tt.want, tt.failing, tt.total)
			}
			if result.CommandsFailed != tt.failing {
				t.Fatalf("CommandsFailed = %d, want %d", result.CommandsFailed, tt.failing)
			}
			if result.CommandsExecuted != tt.total-tt.failing {
				t.Fatalf("CommandsExecuted = %d, want %d", result.CommandsExecuted, tt.total-tt.failing)
			}
		})
	}
}

func TestBuildStructureDefaultDelay(t *testing.T) {
	five := 5
	s := Structure{
		ID:   "s1",
		Name: "hut",
		Commands: []CommandSpec{
			{Text: "a"},
			{Text: "b", DelayMs: &five},
		},
	}
	runner := newFakeRunner()
	b := NewBuilder(runner, nil, Options{CommandDelay: 50 * time.Millisecond, StructurePause: time.Millisecond})

	b.BuildStructure(context.Background(), s)

	items := runner.submitted[0]
	if items[0].DelayBefore != 50*time.Millisecond {
		t.Fatalf("default delay = %v, want 50ms", items[0].DelayBefore)
	}
	if items[1].DelayBefore != 5*time.Millisecond {
		t.Fatalf("explicit delay = %v, want 5ms", items[1].DelayBefore)
	}
}

func TestBuildWorldAggregation(t *testing.T) {
	// Three structures, the middle one fails outright.
	runner := newFakeRunner("bad-0", "bad-1")
	structures := []Structure{
		{ID: "a", Name: "a", Commands: []CommandSpec{{Text: "ok-0"}, {Text: "ok-1"}}},
		{ID: "b", Name: "b", Commands: []CommandSpec{{Text: "bad-0"}, {Text: "bad-1"}}},
		{ID: "c", Name: "c", Commands: []CommandSpec{{Text: "ok-2"}, {Text: "ok-3"}}},
	}
	b := NewBuilder(runner, nil, testOptions())

	report := b.BuildWorld(context.Background(), structures)

	if report.StructuresBuilt != 2 || report.StructuresTotal != 3 {
		t.Fatalf("tally = %d/%d, want 2/3", report.StructuresBuilt, report.StructuresTotal)
	}
	if report.Success {
		t.Fatal("world success must require every structure to succeed")
	}
	if len(report.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(report.Results))
	}
}

func TestBuildWorldAllSucceed(t *testing.T) {
	runner := newFakeRunner()
	structures := []Structure{
		{ID: "a", Name: "a", Commands: []CommandSpec{{Text: "x"}}},
		{ID: "b", Name: "b", Commands: []CommandSpec{{Text: "y"}}},
	}
	b := NewBuilder(runner, nil, testOptions())

	report := b.BuildWorld(context.Background(), structures)

	if !report.Success || report.StructuresBuilt != 2 {
		t.Fatalf("report = %+v, want full success", report)
	}
}

func TestBuildWorldSequentialOrder(t *testing.T) {
	runner := newFakeRunner()
	structures := []Structure{
		{ID: "a", Name: "a", Commands: []CommandSpec{{Text: "first"}}},
		{ID: "b", Name: "b", Commands: []CommandSpec{{Text: "second"}}},
		{ID: "c", Name: "c", Commands: []CommandSpec{{Text: "third"}}},
	}
	b := NewBuilder(runner, nil, testOptions())

	b.BuildWorld(context.Background(), structures)

	if len(runner.submitted) != 3 {
		t.Fatalf("batches = %d, want 3", len(runner.submitted))
	}
	order := []string{"first", "second", "third"}
	for i, batch := range runner.submitted {
		if batch[0].Text != order[i] {
			t.Fatalf("batch %d ran %q, want %q", i, batch[0].Text, order[i])
		}
	}
}

func TestBuildWorldCancelledReturnsPartialReport(t *testing.T) {
	runner := newFakeRunner()
	structures := []Structure{
		{ID: "a", Name: "a", Commands: []CommandSpec{{Text: "x"}}},
		{ID: "b", Name: "b", Commands: []CommandSpec{{Text: "y"}}},
	}
	b := NewBuilder(runner, nil, Options{CommandDelay: time.Millisecond, StructurePause: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report := b.BuildWorld(ctx, structures)

	if len(report.Results) != 1 {
		t.Fatalf("results = %d, want 1 (cancelled during settle pause)", len(report.Results))
	}
	if report.Success {
		t.Fatal("cancelled world build reported success")
	}
}
