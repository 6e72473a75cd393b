// Worldforge - Minecraft RCON build orchestrator & API
//
// Worldforge drives batch world-building over a Minecraft server's
// RCON interface, exposes a REST API for remote command execution
// and build orchestration, records build history in SQLite, and
// publishes real-time telemetry via MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/api"
	"github.com/worldforge-project/worldforge/internal/builder"
	"github.com/worldforge-project/worldforge/internal/cli"
	"github.com/worldforge-project/worldforge/internal/config"
	"github.com/worldforge-project/worldforge/internal/db"
	"github.com/worldforge-project/worldforge/internal/events"
	"github.com/worldforge-project/worldforge/internal/rcon"
	"github.com/worldforge-project/worldforge/internal/scheduler"
	"github.com/worldforge-project/worldforge/internal/telemetry"
	"github.com/worldforge-project/worldforge/internal/util"
)

const (
	AppName    = "Worldforge"
	AppVersion = "1.0.0"
	Banner     = `
 __          __        _     _  __
 \ \        / /       | |   | |/ _|
  \ \  /\  / /__  _ __| | __| | |_ ___  _ __ __ _  ___
   \ \/  \/ / _ \| '__| |/ _' |  _/ _ \| '__/ _' |/ _ \
    \  /\  / (_) | |  | | (_| | || (_) | | | (_| |  __/
     \/  \/ \___/|_|  |_|\__,_|_| \___/|_|  \__, |\___|
                                             __/ |
                                            |___/  v%s
 Minecraft RCON Build Orchestrator & API
`
)

func main() {
	fmt.Printf(Banner, AppVersion)
	fmt.Println()

	// Initialize logger with defaults first (reconfigured after config load)
	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting Worldforge")

	// Load configuration
	cfg, err := config.Load(config.DefaultConfigDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Re-initialize logger with config-based settings
	logCfg := util.LogConfig{
		Level:      cfg.Logging.Level,
		Directory:  cfg.Logging.Directory,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    true,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	// Validate configuration
	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Msg("configuration validation failed, please fix the errors above")
	}

	// Log system info
	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize core components
	eventBus := events.NewEventBus()

	// Build history store
	database, err := db.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	history, err := db.NewBuildHistory(database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize build history")
	}
	history.SubscribeEvents(eventBus)

	// RCON session, executor, and build orchestrator. The session is
	// lazy: the first command triggers the connect and auth handshake.
	rconCfg := cfg.GetRCON()
	session := rcon.NewSession(rcon.Config{
		Host:           rconCfg.Host,
		Port:           rconCfg.Port,
		Password:       rconCfg.Password,
		ConnectTimeout: time.Duration(rconCfg.ConnectTimeoutSec) * time.Second,
		CommandTimeout: time.Duration(rconCfg.CommandTimeoutSec) * time.Second,
	})
	session.SetHooks(
		func(addr string) {
			eventBus.Emit(ctx, events.Event{
				Type:    events.EventSessionConnected,
				Source:  "rcon",
				Payload: events.SessionPayload{Addr: addr},
			})
		},
		func(addr string, err error) {
			eventBus.Emit(ctx, events.Event{
				Type:    events.EventSessionLost,
				Source:  "rcon",
				Payload: events.SessionPayload{Addr: addr, Reason: err.Error()},
			})
		},
	)
	executor := rcon.NewExecutor(session)

	buildCfg := cfg.GetBuild()
	worldBuilder := builder.NewBuilder(executor, eventBus, builder.Options{
		CommandDelay:   time.Duration(buildCfg.CommandDelayMs) * time.Millisecond,
		StructurePause: time.Duration(buildCfg.StructurePauseMs) * time.Millisecond,
	})

	// REST API
	apiServer := api.NewServer(cfg, eventBus, executor, worldBuilder, session, history)

	// MQTT telemetry
	var mqttHandler *telemetry.MQTTHandler
	if cfg.MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, eventBus)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	// Scheduler (history pruning, resource reports)
	sched := scheduler.NewScheduler(cfg, history)

	// Interactive CLI
	cliHandler := cli.NewCLI(cfg, eventBus, executor, session, history)

	// ---------------------------------------------------------------
	// Launch all concurrent tasks
	// ---------------------------------------------------------------
	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Int("port", cfg.APIPort).Msg("starting REST API server")
		if err := apiServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("API server failed")
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed (non-fatal)")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting task scheduler")
		sched.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting interactive CLI")
		cliHandler.Start(ctx)
	}()

	// ---------------------------------------------------------------
	// Graceful shutdown handling
	// ---------------------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	shutdownCh := make(chan struct{})
	var shutdownOnce sync.Once
	eventBus.Subscribe(events.EventShutdown, "main", func(ctx context.Context, ev events.Event) error {
		shutdownOnce.Do(func() { close(shutdownCh) })
		return nil
	})

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-shutdownCh:
		log.Info().Msg("shutdown requested via CLI")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	}

	log.Info().Msg("initiating graceful shutdown...")

	// Cancel the root context to signal all goroutines
	cancel()

	// Close the RCON session so pending waiters fail fast
	session.Disconnect()

	// Wait for all goroutines with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out after 30 seconds, forcing exit")
	}

	// Stop the event bus last so in-flight history writes complete
	eventBus.Stop()

	log.Info().Msg("Worldforge stopped")
}
