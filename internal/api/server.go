package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/builder"
	"github.com/worldforge-project/worldforge/internal/config"
	"github.com/worldforge-project/worldforge/internal/db"
	"github.com/worldforge-project/worldforge/internal/events"
	intnet "github.com/worldforge-project/worldforge/internal/network"
	"github.com/worldforge-project/worldforge/internal/rcon"
)

// CommandRunner is the slice of the executor the API needs.
type CommandRunner interface {
	ExecuteOne(ctx context.Context, command string) (string, error)
	ExecuteBatch(ctx context.Context, items []rcon.Command) (*rcon.BatchResult, error)
}

// WorldBuilder is the slice of the build orchestrator the API needs.
type WorldBuilder interface {
	BuildStructure(ctx context.Context, s builder.Structure) builder.ExecutionResult
	BuildWorld(ctx context.Context, structures []builder.Structure) builder.WorldReport
}

// SessionInfo reports connection state for the status endpoint.
type SessionInfo interface {
	State() rcon.State
}

// HistoryReader is the slice of the history store the API needs.
type HistoryReader interface {
	RecentRuns(limit int) ([]db.BuildRun, error)
	RecentStructures(limit int) ([]db.StructureRecord, error)
}

// Server is the REST API server for Worldforge.
type Server struct {
	cfg      *config.Config
	eventBus *events.EventBus

	executor CommandRunner
	builder  WorldBuilder
	session  SessionInfo
	history  HistoryReader

	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, eventBus *events.EventBus, executor CommandRunner, worldBuilder WorldBuilder, session SessionInfo, history HistoryReader) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:      cfg,
		eventBus: eventBus,
		executor: executor,
		builder:  worldBuilder,
		session:  session,
		history:  history,
	}
}

// Start initializes and starts the API server. It blocks until the
// context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.router = s.buildRouter()

	addr := fmt.Sprintf(":%d", s.cfg.APIPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if s.cfg.Security.TLSEnabled {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		cert, err := tls.LoadX509KeyPair(s.cfg.Security.TLSCertFile, s.cfg.Security.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load API TLS certificate: %w", err)
		}
		s.httpServer.TLSConfig.Certificates = []tls.Certificate{cert}
	}

	// SO_REUSEADDR for immediate rebinding after restart
	lc := intnet.ReuseAddrListenConfig()
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("API server error: %w", err)
	}

	log.Info().Str("addr", addr).Msg("REST API server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if s.cfg.Security.TLSEnabled {
		tlsListener := tls.NewListener(ln, s.httpServer.TLSConfig)
		err = s.httpServer.Serve(tlsListener)
	} else {
		err = s.httpServer.Serve(ln)
	}

	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}

	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := s.cfg.Security.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Must be false when AllowOrigins is "*"
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := NewRateLimiter(s.cfg.Security.RateLimitRPS)
	router.Use(rateLimiter.Middleware())

	auth := NewAuthMiddleware(s.cfg)

	// ---- Public endpoints (no auth required) ----
	public := router.Group("/api/public")
	{
		public.GET("/ping", s.handlePing)
		public.GET("/version", s.handleVersion)
	}

	// ---- Protected endpoints ----
	protected := router.Group("/api")
	protected.Use(auth.RequireAuth())
	{
		protected.POST("/command", s.handleCommand)
		protected.POST("/command/batch", s.handleCommandBatch)

		protected.POST("/build/structure", s.handleBuildStructure)
		protected.POST("/build/world", s.handleBuildWorld)

		protected.GET("/status", s.handleStatus)
		protected.GET("/history/runs", s.handleHistoryRuns)
		protected.GET("/history/structures", s.handleHistoryStructures)

		protected.GET("/config", s.handleGetConfig)
		protected.POST("/config/rcon", s.handleSetRCON)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}
