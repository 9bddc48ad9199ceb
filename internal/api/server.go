// Package api serves the IssueDesk REST endpoints.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/auth"
	"github.com/zulandar/issuedesk/internal/config"
	"gorm.io/gorm"
)

// Server holds the router and its collaborators.
type Server struct {
	db     *gorm.DB
	cfg    *config.Config
	tokens *auth.Manager
	engine *gin.Engine
}

// New constructs the API server with routes and middleware configured.
func New(db *gorm.DB, cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		db:     db,
		cfg:    cfg,
		tokens: auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute),
		engine: router,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB     *gorm.DB
	Config *config.Config
	Out    io.Writer
}

// Start launches the API HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Config == nil {
		return fmt.Errorf("api: config is required")
	}

	server := New(opts.DB, opts.Config)

	addr := fmt.Sprintf(":%d", opts.Config.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: server.engine,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "IssueDesk API listening at http://localhost:%d\n", opts.Config.Server.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
