// Package admin provides the read-only diagnostics REST API for reactorlb.
// It exposes health, runtime statistics, and a snapshot of the pool
// directory via a Gin-based HTTP server, entirely separate from the
// reactor workers' data path.
package admin

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenshaw/reactorlb/internal/admin/handlers"
	"github.com/arenshaw/reactorlb/internal/admin/middleware"
	"github.com/arenshaw/reactorlb/internal/config"
	"github.com/arenshaw/reactorlb/internal/registry"
)

// Server is the admin diagnostics HTTP server. It never touches the
// reactor's sockets; it only reads the shared pool directory.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds an admin server bound to dir, the directory shared with every
// reactor worker, and workerCount, the number of workers started.
func New(cfg *config.Config, logger *slog.Logger, dir *registry.Directory, workerCount int) *Server {
	if cfg == nil {
		panic("admin.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(cfg, logger, dir, workerCount)
	RegisterRoutes(engine, h, cfg)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
