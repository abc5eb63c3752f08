package experiments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"ladders/engine"
	"ladders/learning"

	"github.com/stretchr/testify/require"
)

var seats = []string{"Bot 1", "Bot 2", "Bot 3", "Bot 4"}

func TestRun(t *testing.T) {
	t.Run("plays every game", func(t *testing.T) {
		store := learning.NewFileStore("")
		records, err := Run(context.Background(), Setup{
			Name:    "test",
			Players: seats,
			Games:   3,
			Seed:    7,
			Options: []engine.Option{engine.WithSettleDelay(0), engine.WithLearning(store), engine.WithMaxTurns(20000)},
		})
		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, r := range records {
			require.Equal(t, i+1, r.ID)
			require.Contains(t, seats, r.Winner)
			require.Positive(t, r.Turns)
			require.NotEmpty(t, r.Session)
		}
		require.NotEqual(t, records[0].Session, records[1].Session)
		require.NotEmpty(t, store.Snapshot().RoundItemPurchases, "Bots should have shopped")
	})

	t.Run("turn cap is recorded without a winner", func(t *testing.T) {
		records, err := Run(context.Background(), Setup{
			Players: seats,
			Games:   2,
			Seed:    1,
			Options: []engine.Option{engine.WithSettleDelay(0), engine.WithMaxTurns(5)},
		})
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.Empty(t, records[0].Winner)
		require.Equal(t, 5, records[0].Turns)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, Setup{Players: seats, Games: 1, Options: []engine.Option{engine.WithSettleDelay(0)}})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("roster must be complete", func(t *testing.T) {
		_, err := Run(context.Background(), Setup{Players: seats[:2], Games: 1})
		require.Error(t, err)
	})
}

func TestWrite(t *testing.T) {
	records, err := Run(context.Background(), Setup{
		Players: seats,
		Games:   1,
		Seed:    3,
		Options: []engine.Option{engine.WithSettleDelay(0), engine.WithMaxTurns(20000)},
	})
	require.NoError(t, err)

	dir, err := Write(t.TempDir(), "batch", records)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "game_records.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "winner", rows[0][2])
	require.Equal(t, records[0].Winner, rows[1][2])
}
