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

	"ladders/config"
	"ladders/engine"
	"ladders/experiments"
	"ladders/game"
	"ladders/learning"
	"ladders/metrics"
	"ladders/oracle"
	"ladders/oracle/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	games      = flag.Int("games", -1, "number of sessions to play, overrides simulation.games")
	outDir     = flag.String("out", "", "output folder for game records, overrides simulation.output")
	exportPath = flag.String("export", "", "write the flattened learning data to this file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *games >= 0 {
		cfg.Simulation.Games = *games
	}
	if *outDir != "" {
		cfg.Simulation.Output = *outDir
	}
	setupLogger(cfg.Log)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

func setupLogger(cfg config.Log) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := game.DefaultBoard()
	if cfg.BoardFile != "" {
		var err error
		if board, err = game.LoadBoard(cfg.BoardFile); err != nil {
			return err
		}
	}

	store, err := openStore(cfg.Learning)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewPrometheusCollector(registry)
	if err != nil {
		return err
	}
	if cfg.Metrics.Address != "" {
		go serveMetrics(cfg.Metrics.Address, registry)
	}

	transport, closeTransport, err := newTransport(cfg.Oracle, board, store)
	if err != nil {
		return err
	}
	defer closeTransport()
	client := oracle.NewClient(transport, oracle.WithTimeout(cfg.Oracle.Timeout), oracle.WithMetrics(collector))

	rules := game.NewStandardRules()
	rules.ShopEvery = cfg.Shop.EveryRounds

	names := make([]string, len(cfg.Players))
	for i, p := range cfg.Players {
		if !p.Automated {
			log.Warn().Msgf("%s is not automated; the simulator plays every seat", p.Name)
		}
		names[i] = p.Name
	}

	records, err := experiments.Run(ctx, experiments.Setup{
		Name:    "simulation",
		Players: names,
		Games:   cfg.Simulation.Games,
		Seed:    cfg.Seed,
		Options: []engine.Option{
			engine.WithBoard(board),
			engine.WithRules(rules),
			engine.WithOracle(client),
			engine.WithLearning(store),
			engine.WithMetrics(collector),
			engine.WithSettleDelay(cfg.SettleDelay),
			engine.WithEffectDuration(cfg.Effects.Duration),
			engine.WithShopTimePerPlayer(cfg.Shop.TimePerPlayer),
			engine.WithShopOfferSize(cfg.Shop.OfferSize),
			engine.WithMaxTurns(cfg.Simulation.MaxTurns),
		},
	})
	if len(records) > 0 {
		if _, werr := experiments.Write(cfg.Simulation.Output, "simulation", records); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	if err != nil {
		return err
	}

	if *exportPath != "" {
		if err := exportLearning(*exportPath, store); err != nil {
			return err
		}
		log.Info().Str("path", *exportPath).Msg("exported learning data")
	}
	return nil
}

func openStore(cfg config.Learning) (learning.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return learning.OpenSQLite(cfg.Path)
	default:
		return learning.NewFileStore(cfg.Path), nil
	}
}

// newTransport returns a nil transport for "none", which makes every
// automated decision use the in-process fallback.
func newTransport(cfg config.Oracle, board *game.Board, store learning.Store) (oracle.Transport, func(), error) {
	nop := func() {}
	switch cfg.Transport {
	case "none":
		return nil, nop, nil
	case "local":
		return oracle.Local(server.New(board, store)), nop, nil
	case "http":
		return oracle.NewHTTPTransport(cfg.URL), nop, nil
	case "websocket":
		t := oracle.NewWebSocketTransport(cfg.URL)
		return t, func() { t.Close() }, nil
	}
	return nil, nop, fmt.Errorf("unknown oracle transport %q", cfg.Transport)
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}

func exportLearning(path string, store learning.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := learning.Export(f, store.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
