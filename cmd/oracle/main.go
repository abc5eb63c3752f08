package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ladders/config"
	"ladders/game"
	"ladders/learning"
	"ladders/oracle/server"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	addr       = flag.String("addr", ":8090", "listen address")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	board := game.DefaultBoard()
	if cfg.BoardFile != "" {
		if board, err = game.LoadBoard(cfg.BoardFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load board")
		}
	}

	// Read-only view of what the simulator has learned so far
	var store learning.Store
	switch cfg.Learning.Backend {
	case "sqlite":
		store, err = learning.OpenSQLite(cfg.Learning.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open learning store")
		}
	default:
		store = learning.NewFileStore(cfg.Learning.Path)
	}
	defer store.Close()

	mux := http.NewServeMux()
	mux.Handle("/", server.New(board, store).Handler())
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Info().Str("addr", *addr).Msg("oracle listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
