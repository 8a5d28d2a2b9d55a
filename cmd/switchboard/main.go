package main

import (
	"log"
	"net/http"
	"os"

	"github.com/relaylabs/switchboard/internal/api"
	"github.com/relaylabs/switchboard/internal/config"
	"github.com/relaylabs/switchboard/internal/dispatch"
	"github.com/relaylabs/switchboard/internal/model"
	"github.com/relaylabs/switchboard/internal/relay"
	"github.com/relaylabs/switchboard/internal/store"
	"github.com/relaylabs/switchboard/internal/upstream"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("switchboard: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"timeout", cfg.Timeout,
		"upstreams", len(cfg.Upstreams),
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var handlers []dispatch.Handler[string, model.Job, []byte]
	if len(cfg.Upstreams) > 0 {
		client := &http.Client{Timeout: cfg.Timeout}
		for _, u := range cfg.Upstreams {
			handlers = append(handlers, upstream.NewForwarder(client, u, logger).Handler())
		}
	} else {
		logger.Warn("no upstreams configured, using echo handlers", "workers", cfg.Workers)
		for i := 0; i < cfg.Workers; i++ {
			handlers = append(handlers, upstream.Echo())
		}
	}

	balancer := dispatch.New(handlers, cfg.Timeout, logger)
	rel := relay.New(db, balancer, logger)

	srv := api.NewServer(cfg.ListenAddr, db, rel, logger)
	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
