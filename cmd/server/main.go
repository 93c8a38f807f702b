package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"kosmos/internal/collectlog"
	"kosmos/internal/geo"
	"kosmos/internal/platform/config"
	"kosmos/internal/platform/httpserver"
	"kosmos/internal/platform/logger"
	"kosmos/internal/store"
	httptransport "kosmos/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Query logic lives in the transport package.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	artifacts, err := store.New(cfg.DataDir)
	if err != nil {
		log.Error("open artifact store", "error", err)
		os.Exit(1)
	}
	logStore, err := collectlog.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Error("open collection log", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(artifacts, logStore, geo.New(), log)
	router := httptransport.NewRouter(handler)

	srv := httpserver.New(cfg.HTTPAddr, router)

	log.Info("starting kosmos query server", "addr", cfg.HTTPAddr, "data_dir", cfg.DataDir)

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case err := <-errc:
		log.Error("server error", "error", err)
		os.Exit(1)
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
