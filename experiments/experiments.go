package experiments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ladders/engine"
	"ladders/game"
	"ladders/metrics"

	"github.com/rs/zerolog/log"
)

// Setup describes a batch of fully automated sessions.
type Setup struct {
	Name    string   // Experiment name, used as the output subfolder
	Players []string // Seat names, all automated
	Games   int
	Seed    uint64 // Game i uses Seed+i when non-zero
	Options []engine.Option
}

// Run plays Games sessions back to back. A session that hits the turn cap is
// recorded without a winner; any other engine error aborts the batch.
func Run(ctx context.Context, setup Setup) ([]metrics.GameRecord, error) {
	log.Info().Msgf("starting %s experiment with %d games...", setup.Name, setup.Games)

	records := make([]metrics.GameRecord, 0, setup.Games)
	for i := 0; i < setup.Games; i++ {
		options := append([]engine.Option{}, setup.Options...)
		if setup.Seed != 0 {
			options = append(options, engine.WithSeed(setup.Seed+uint64(i)))
		}

		record, err := runGame(ctx, setup.Players, options)
		if err != nil {
			return records, fmt.Errorf("game %d: %w", i+1, err)
		}
		record.ID = i + 1
		records = append(records, record)

		if record.Winner == "" {
			log.Warn().Msgf("game %d of %d hit the turn cap after %d turns", i+1, setup.Games, record.Turns)
		} else {
			log.Info().Msgf("completed game %d of %d with winner: %s", i+1, setup.Games, record.Winner)
		}
	}

	log.Info().Msgf("completed %s experiment", setup.Name)
	return records, nil
}

// runGame executes a single session and summarizes it
func runGame(ctx context.Context, names []string, options []engine.Option) (metrics.GameRecord, error) {
	players := make([]*game.PlayerProfile, len(names))
	for i, name := range names {
		players[i] = game.NewPlayer(name, true)
	}
	e, err := engine.New(players, options...)
	if err != nil {
		return metrics.GameRecord{}, err
	}

	start := time.Now()
	err = e.Start(ctx)
	end := time.Now()
	if err != nil && !errors.Is(err, engine.ErrTurnLimit) {
		return metrics.GameRecord{}, err
	}

	record := metrics.GameRecord{
		Session:   e.Session(),
		Rounds:    e.Round(),
		Turns:     e.Turns(),
		Fallbacks: e.Fallbacks(),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	if winner, ok := e.Winner(); ok {
		record.Winner = winner.Name
	}
	return record, nil
}

// Write stores the records as CSV under root/name/<timestamp> and returns that folder.
func Write(root, name string, records []metrics.GameRecord) (string, error) {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteGameRecords(records); err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Str("dir", writer.Dir()).Msg("stored game records")
	return writer.Dir(), nil
}
