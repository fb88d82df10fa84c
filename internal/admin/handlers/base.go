// Package handlers implements the reactorlb admin API endpoint handlers.
package handlers

import (
	"log/slog"
	"time"

	"github.com/arenshaw/reactorlb/internal/config"
	"github.com/arenshaw/reactorlb/internal/registry"
)

// Handler contains dependencies for admin API handlers.
type Handler struct {
	cfg         *config.Config
	logger      *slog.Logger
	startTime   time.Time
	dir         *registry.Directory
	workerCount int
}

// New creates a new Handler with the given configuration and pool directory.
// dir is read-only from the handler's perspective: every worker owns writes
// to its own slice, the handler only scans.
func New(cfg *config.Config, logger *slog.Logger, dir *registry.Directory, workerCount int) *Handler {
	return &Handler{
		cfg:         cfg,
		logger:      logger,
		startTime:   time.Now(),
		dir:         dir,
		workerCount: workerCount,
	}
}
