// Command phonebook runs the in-memory phonebook database server: a
// concurrent, shard-partitioned subscriber store served over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phonebook/api"
	"phonebook/config"
	"phonebook/logger"
	"phonebook/storage"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags()
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "phonebook: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Configure()
	if err := logger.SetLogLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "phonebook: invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	logger.InitLogBridge()
	logger.EnableTracing(logger.GetLogLevel() == "TRACE")

	logger.Info("starting phonebook server")
	logger.Info("shard split L_ex=%d L_in=%d", cfg.LEx, cfg.LIn)
	logger.Info("default wait_time=%s, max_threads=%d", cfg.WaitTime, cfg.MaxThreads)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal("failed to create data directory %s: %v", cfg.DataDir, err)
	}

	db, err := storage.New(cfg.LEx, cfg.LIn, cfg.WaitTime)
	if err != nil {
		logger.Fatal("failed to construct database: %v", err)
	}

	server, err := api.NewServer(db, api.Config{
		ListenAddr:      cfg.ListenAddr,
		DefaultWaitTime: cfg.WaitTime,
		CorpusDir:       cfg.CorpusDir,
		DataDir:         cfg.DataDir,
		BudgetCap:       cfg.MaxThreads,
	})
	if err != nil {
		logger.Fatal("failed to construct HTTP server: %v", err)
	}

	logger.Info("phonebook server listening on %s", cfg.ListenAddr)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error: %v", err)
	}

	logger.Info("phonebook server shutdown complete")
}
