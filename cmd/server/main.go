package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Labhund/CompChemJobServer/api/rest/routes"
	"github.com/Labhund/CompChemJobServer/config"
	"github.com/Labhund/CompChemJobServer/core/executor"
	"github.com/Labhund/CompChemJobServer/core/models"
	"github.com/Labhund/CompChemJobServer/core/registry"
	"github.com/Labhund/CompChemJobServer/logging"
	"github.com/Labhund/CompChemJobServer/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	layout := storage.NewLayout(cfg.JobDir)
	if err := layout.Ensure(); err != nil {
		logger.Fatal("failed to bootstrap job directory", zap.Error(err))
	}

	reg := registry.New(layout, cfg.MaxConcurrentJobs, models.Program(cfg.ForceProgram), logger)
	collector := storage.NewCollector(layout, logger)
	runner := executor.New(reg, layout, collector, cfg.ProgramPaths(),
		time.Duration(cfg.JobTimeoutSeconds)*time.Second, logger)
	reg.SetRunner(runner)

	r := mux.NewRouter()
	routes.SetupRoutes(r, reg, layout, logger)

	server := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: r,
	}

	logger.Info("starting computational chemistry job server",
		zap.String("job_dir", cfg.JobDir),
		zap.String("qchem_path", cfg.QChemPath),
		zap.String("orca_path", cfg.OrcaPath),
		zap.Int("max_concurrent_jobs", cfg.MaxConcurrentJobs),
		zap.String("addr", cfg.ListenAddr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server exited")
}
