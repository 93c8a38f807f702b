package main

import (
	"context"
	"encoding/base64"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"kosmos/internal/collectlog"
	"kosmos/internal/connect"
	"kosmos/internal/connect/charities"
	"kosmos/internal/connect/companieshouse"
	"kosmos/internal/connect/parliament"
	"kosmos/internal/connect/schools"
	"kosmos/internal/normalize"
	"kosmos/internal/platform/config"
	"kosmos/internal/platform/logger"
	"kosmos/internal/platform/metrics"
	"kosmos/internal/platform/redis"
	"kosmos/internal/run"
	"kosmos/internal/store"
)

// main wires the four register connectors into one collection run. Each
// source fails independently; the process exit code reflects whether any
// source ended in error.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	cache, err := redis.New(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Warn("response cache unavailable, continuing without it", "error", err)
		cache = nil
	}

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

	registry := connect.NewRegistry()

	clientOpts := func(extra ...connect.Option) []connect.Option {
		return append([]connect.Option{
			connect.WithLogger(log),
			connect.WithMetrics(m),
			connect.WithCache(cache),
		}, extra...)
	}

	// Companies House authenticates with HTTP basic, key as username.
	chOpts := clientOpts()
	if key := cfg.CompaniesHouse.APIKey; key != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(key + ":"))
		chOpts = clientOpts(connect.WithHeader("Authorization", "Basic "+auth))
	}
	chClient := connect.NewClient(cfg.CompaniesHouse, cfg.Retry, chOpts...)
	chConnOpts := []companieshouse.Option{companieshouse.WithLogger(log)}
	if cfg.CompaniesHouse.APIKey != "" {
		// Officer enrichment doubles the request count; keyed tier only.
		chConnOpts = append(chConnOpts, companieshouse.WithOfficers())
	}
	chConnector := companieshouse.New(chClient, cfg.CompaniesHouse, chConnOpts...)

	ccOpts := clientOpts()
	if key := cfg.CharityComm.APIKey; key != "" {
		ccOpts = clientOpts(connect.WithHeader("Ocp-Apim-Subscription-Key", key))
	}
	ccClient := connect.NewClient(cfg.CharityComm, cfg.Retry, ccOpts...)
	ccConnector := charities.New(ccClient, cfg.CharityComm, charities.WithLogger(log))

	parClient := connect.NewClient(cfg.Parliament, cfg.Retry, clientOpts()...)
	parConnector := parliament.New(parClient, cfg.Parliament)

	schClient := connect.NewClient(cfg.Schools, cfg.Retry, clientOpts()...)
	schConnector := schools.New(schClient, cfg.Schools, schools.WithLogger(log))

	for _, c := range []connect.Connector{chConnector, schConnector, ccConnector, parConnector} {
		if err := registry.Register(c); err != nil {
			log.Error("register connector", "error", err)
			os.Exit(1)
		}
	}

	runner := run.New(registry, normalize.New(normalize.DefaultTables()), artifacts, logStore, cfg.Pipeline,
		run.WithLogger(log),
		run.WithMetrics(m),
		run.WithWorkers(cfg.Workers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		log.Error("collection run aborted", "error", err)
		os.Exit(1)
	}

	log.Info("collection run finished",
		"run_id", summary.RunID,
		"sources", len(summary.Results),
		"persisted", summary.Total(),
		"elapsed", summary.FinishedAt.Sub(summary.StartedAt),
	)
	if summary.Failed() {
		os.Exit(1)
	}
}
