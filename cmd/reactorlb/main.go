// Command reactorlb is a shared-nothing, multi-reactor TCP/UDP load
// balancer. Clients request a server address; backends announce their
// listening port and periodically report their client count; reactorlb
// hands each client the least-loaded backend it currently knows about.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/arenshaw/reactorlb/internal/admin"
	"github.com/arenshaw/reactorlb/internal/config"
	"github.com/arenshaw/reactorlb/internal/logging"
	"github.com/arenshaw/reactorlb/internal/reactor"
	"github.com/arenshaw/reactorlb/internal/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values. Positional CLIENT_PORT
// and BACKEND_PORT (matching the original command-line tool) take
// precedence over both the config file and the flags below.
type cliFlags struct {
	configPath  string
	clientPort  int
	backendPort int
	workers     int
	jsonLogs    bool
	debug       bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.IntVar(&f.clientPort, "client-port", 0, "Override client-facing port")
	flag.IntVar(&f.backendPort, "backend-port", 0, "Override backend-facing port")
	flag.IntVar(&f.workers, "workers", -1, "Fixed reactor worker count; -1 means use config/auto")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	// Positional args mirror the original Server <client_port> <backend_port>.
	if flag.NArg() >= 1 {
		if p, err := parsePort(flag.Arg(0)); err == nil {
			f.clientPort = p
		}
	}
	if flag.NArg() >= 2 {
		if p, err := parsePort(flag.Arg(1)); err == nil {
			f.backendPort = p
		}
	}
	return f
}

func parsePort(s string) (int, error) {
	var p int
	_, err := fmt.Sscanf(s, "%d", &p)
	return p, err
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.clientPort != 0 {
		cfg.Server.ClientPort = f.clientPort
	}
	if f.backendPort != 0 {
		cfg.Server.BackendPort = f.backendPort
	}
	if f.workers >= 0 {
		cfg.Server.Workers = config.WorkerSetting{Mode: config.WorkersFixed, Value: f.workers}
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

func run() error {
	flags := parseFlags()

	configPath := config.ResolveConfigPath(flags.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})

	workerCount := config.ResolveWorkerCount(cfg.Server.Workers, runtime.NumCPU())
	logger.Info("reactorlb starting",
		"client_port", cfg.Server.ClientPort,
		"backend_port", cfg.Server.BackendPort,
		"workers", workerCount,
	)

	dir := registry.NewDirectoryWithCapacity(workerCount, cfg.Server.ChunkCapacity)

	workers := make([]*reactor.Worker, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		w, werr := reactor.NewWorker(reactor.Settings{
			Index:       i,
			ClientPort:  cfg.Server.ClientPort,
			BackendPort: cfg.Server.BackendPort,
			AcceptBurst: cfg.Server.AcceptBurst,
			UDPBurst:    cfg.Server.UDPBurst,
		}, dir, logger.With("worker", i))
		if werr != nil {
			for _, started := range workers {
				started.Close()
			}
			return fmt.Errorf("failed to start worker %d: %w", i, werr)
		}
		workers = append(workers, w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	runErrs := make(chan error, len(workers))
	for _, w := range workers {
		wg.Add(1)
		go func(w *reactor.Worker) {
			defer wg.Done()
			runtime.LockOSThread()
			if runErr := w.Run(); runErr != nil {
				runErrs <- runErr
			}
		}(w)
	}

	var adminSrv *admin.Server
	if cfg.API.Enabled {
		adminSrv = admin.New(cfg, logger, dir, workerCount)
		logger.Info("admin API starting", "addr", adminSrv.Addr())
		go func() {
			serveErr := adminSrv.ListenAndServe()
			if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
				return
			}
			logger.Error("admin API error", "err", serveErr)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case werr := <-runErrs:
		logger.Error("worker exited", "err", werr)
		cancel()
	}

	for _, w := range workers {
		w.Close()
	}

	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = adminSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	logger.Info("reactorlb stopped")
	return nil
}
