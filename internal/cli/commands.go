// Package cli implements the interactive command-line interface for
// Worldforge, exposing command execution and build history inspection
// from the terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/worldforge-project/worldforge/internal/config"
	"github.com/worldforge-project/worldforge/internal/db"
	"github.com/worldforge-project/worldforge/internal/events"
	"github.com/worldforge-project/worldforge/internal/rcon"
)

// CommandRunner is the slice of the executor the CLI needs.
type CommandRunner interface {
	ExecuteOne(ctx context.Context, command string) (string, error)
}

// SessionInfo reports connection state for the status command.
type SessionInfo interface {
	State() rcon.State
}

// HistoryReader is the slice of the history store the CLI needs.
type HistoryReader interface {
	RecentRuns(limit int) ([]db.BuildRun, error)
	RecentStructures(limit int) ([]db.StructureRecord, error)
}

// CLI provides an interactive command-line interface.
type CLI struct {
	cfg      *config.Config
	eventBus *events.EventBus
	executor CommandRunner
	session  SessionInfo
	history  HistoryReader
}

// NewCLI creates a new CLI handler.
func NewCLI(cfg *config.Config, eventBus *events.EventBus, executor CommandRunner, session SessionInfo, history HistoryReader) *CLI {
	return &CLI{
		cfg:      cfg,
		eventBus: eventBus,
		executor: executor,
		session:  session,
		history:  history,
	}
}

// Start begins the interactive CLI loop.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\nWorldforge CLI ready. Type 'help' for available commands.")
	fmt.Println("─────────────────────────────────────────────────────")

	reader := newLineReader()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadLine("worldforge> ")
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		c.printStatus()
	case "exec", "e":
		return c.cmdExec(ctx, args)
	case "runs":
		return c.cmdRuns(args)
	case "history":
		return c.cmdHistory(args)
	case "quit", "exit", "q":
		fmt.Println("Shutting down Worldforge...")
		c.eventBus.Emit(ctx, events.Event{
			Type:   events.EventShutdown,
			Source: "cli",
		})
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

// printHelp displays available commands.
func (c *CLI) printHelp() {
	fmt.Println("\n╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                   Worldforge CLI Commands                    ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  status             Show connection and target status        ║")
	fmt.Println("║  exec <command>     Run a command on the game server         ║")
	fmt.Println("║  runs [n]           Show recent world build runs             ║")
	fmt.Println("║  history [n]        Show recent structure build results      ║")
	fmt.Println("║  quit               Shutdown Worldforge                      ║")
	fmt.Println("║  help               Show this help message                   ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// printStatus displays the session and target status.
func (c *CLI) printStatus() {
	rconCfg := c.cfg.GetRCON()

	fmt.Printf("\n  Session:      %s\n", c.session.State())
	fmt.Printf("  RCON Target:  %s:%d\n", rconCfg.Host, rconCfg.Port)
	fmt.Printf("  API Port:     %d\n", c.cfg.APIPort)
	fmt.Println()
}

func (c *CLI) cmdExec(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: exec <command>")
	}

	command := strings.Join(args, " ")
	response, err := c.executor.ExecuteOne(ctx, command)
	if err != nil {
		return err
	}

	if response == "" {
		fmt.Println("(no output)")
	} else {
		fmt.Println(response)
	}
	return nil
}

// cmdRuns displays recent world build runs in a table.
func (c *CLI) cmdRuns(args []string) error {
	runs, err := c.history.RecentRuns(parseLimitArg(args, 10))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No build runs recorded yet.")
		return nil
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Started", "Built", "Total", "Success", "Time"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, run := range runs {
		tw.Append([]string{
			fmt.Sprintf("%d", run.ID),
			run.StartedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", run.StructuresBuilt),
			fmt.Sprintf("%d", run.StructuresTotal),
			fmt.Sprintf("%v", run.Success),
			fmt.Sprintf("%dms", run.TotalTimeMs),
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

// cmdHistory displays recent structure build results in a table.
func (c *CLI) cmdHistory(args []string) error {
	records, err := c.history.RecentStructures(parseLimitArg(args, 20))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No structure builds recorded yet.")
		return nil
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Structure", "Name", "Success", "Executed", "Failed", "Time"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, rec := range records {
		tw.Append([]string{
			rec.StructureID,
			rec.Name,
			fmt.Sprintf("%v", rec.Success),
			fmt.Sprintf("%d", rec.CommandsExecuted),
			fmt.Sprintf("%d", rec.CommandsFailed),
			fmt.Sprintf("%dms", rec.ExecutionTimeMs),
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func parseLimitArg(args []string, fallback int) int {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// lineReader is a simple cross-platform line reader.
type lineReader struct {
	scanner *bufio.Scanner
}

func newLineReader() *lineReader {
	return &lineReader{scanner: bufio.NewScanner(os.Stdin)}
}

func (lr *lineReader) ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)
	if !lr.scanner.Scan() {
		if err := lr.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return lr.scanner.Text(), nil
}
