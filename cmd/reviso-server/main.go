// Package main provides the reviso extraction server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgrundel/reviso/internal/agent"
	"github.com/mgrundel/reviso/internal/config"
	"github.com/mgrundel/reviso/internal/db"
	"github.com/mgrundel/reviso/internal/extract"
	"github.com/mgrundel/reviso/internal/filestore"
	"github.com/mgrundel/reviso/internal/handler"
	"github.com/mgrundel/reviso/internal/pipeline"
	"github.com/mgrundel/reviso/internal/reorder"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	logger.Info("starting reviso-server", "port", cfg.Port, "provider", cfg.LLMProvider)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = dbClient.InitSchema(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("REVISO_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := dbClient.WipeData(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	sessions := agent.NewSessionRegistry()
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	agentClient, err := agent.NewClient(ctx, cfg, sessions, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create agent client", "error", err)
		os.Exit(1)
	}

	prompts, err := extract.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		logger.Error("failed to load prompts", "error", err, "file", cfg.PromptsFile)
		os.Exit(1)
	}

	procs := extract.NewSet(agentClient, prompts, logger)
	jobs := pipeline.NewJobStore(dbClient, logger)
	runner := pipeline.NewRunner(
		pipeline.NewLockTable(),
		jobs,
		filestore.New(cfg.FileRoot),
		procs,
		dbClient,
		logger,
	)
	advisor := reorder.NewAdvisor(agentClient, logger)

	// Background worker fulfilling async agent requests enqueued by
	// external callers.
	bridge := agent.NewBridge(agentClient, dbClient, logger)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go bridge.RunWorker(workerCtx, cfg.BridgePollInterval)

	e := handler.NewServer(handler.Deps{
		Runner:   runner,
		Jobs:     jobs,
		Items:    dbClient,
		Advisor:  advisor,
		Sessions: agentClient,
		Logger:   logger,
	})

	go func() {
		logger.Info("server listening", "addr", ":"+cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorker()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
