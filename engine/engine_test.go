package engine

import (
	"context"
	"testing"

	"ladders/game"
	"ladders/learning"
	"ladders/meta"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) Notify(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) count(kind EventKind, player game.PlayerID) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind && ev.Player == player {
			n++
		}
	}
	return n
}

func humans() []*game.PlayerProfile {
	return []*game.PlayerProfile{
		game.NewPlayer("A", false),
		game.NewPlayer("B", false),
		game.NewPlayer("C", false),
		game.NewPlayer("D", false),
	}
}

func newEngine(t *testing.T, players []*game.PlayerProfile, options ...Option) *Engine {
	t.Helper()
	options = append([]Option{WithSettleDelay(0), WithSeed(1)}, options...)
	e, err := New(players, options...)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	return e
}

// rollOnes rolls 1 for every human until id holds the turn.
func rollOnes(t *testing.T, e *Engine, id game.PlayerID) {
	t.Helper()
	for i := 0; e.Current().ID != id; i++ {
		require.Less(t, i, 50, "Turn never reached %s", id)
		require.NoError(t, e.RollDice(context.Background(), 1))
	}
}

func TestNew(t *testing.T) {
	t.Run("requires four players", func(t *testing.T) {
		_, err := New(humans()[:3])
		require.Error(t, err)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		players := humans()
		players[1].ID = players[0].ID
		_, err := New(players)
		require.Error(t, err)
	})

	t.Run("rejects tiles off the board", func(t *testing.T) {
		players := humans()
		players[2].Tile = 0
		_, err := New(players)
		require.Error(t, err)
	})
}

func TestPogoStickScenario(t *testing.T) {
	ctx := context.Background()
	players := humans()
	a, b := players[0], players[1]
	a.Items = []string{game.ItemPogoStick}
	e := newEngine(t, players)

	require.NoError(t, e.RollDice(ctx, 3))
	require.Equal(t, 17, a.Tile, "Tile 4 is a ladder to 17")
	require.Equal(t, 40, a.Points, "Three steps plus one redirect")
	require.Equal(t, game.CheckingInventory, e.Phase())
	require.Equal(t, a.ID, e.Current().ID)

	require.NoError(t, e.UseItem(ctx, game.ItemPogoStick))
	require.Equal(t, 21, a.Tile, "No redirect on 21")
	require.Equal(t, 80, a.Points)
	require.Empty(t, a.Items)
	require.Equal(t, b.ID, e.Current().ID, "Turn should advance to B")
	require.Equal(t, game.Normal, e.Phase())
}

func TestRollDice(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects values outside 1..6", func(t *testing.T) {
		e := newEngine(t, humans())
		require.ErrorIs(t, e.RollDice(ctx, 0), ErrInvalidRoll)
		require.ErrorIs(t, e.RollDice(ctx, 7), ErrInvalidRoll)
	})

	t.Run("rejects dice while the inventory is open", func(t *testing.T) {
		players := humans()
		players[0].Items = []string{game.ItemShield}
		e := newEngine(t, players)
		require.NoError(t, e.RollDice(ctx, 1))
		require.ErrorIs(t, e.RollDice(ctx, 1), ErrWrongPhase)
	})

	t.Run("rejects actions before start", func(t *testing.T) {
		e, err := New(humans(), WithSettleDelay(0))
		require.NoError(t, err)
		require.ErrorIs(t, e.RollDice(ctx, 1), ErrWrongPhase)
	})

	t.Run("players without items advance immediately", func(t *testing.T) {
		players := humans()
		e := newEngine(t, players)
		require.NoError(t, e.RollDice(ctx, 1))
		require.Equal(t, players[1].ID, e.Current().ID)
		require.Equal(t, game.Normal, e.Phase())
	})
}

func TestCrowns(t *testing.T) {
	ctx := context.Background()

	t.Run("first crown resets the tile and play continues", func(t *testing.T) {
		players := humans()
		a := players[0]
		a.Tile = 97
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 3))
		require.Equal(t, 1, a.Crowns)
		require.Equal(t, 1, a.Tile)
		require.Equal(t, 30+meta.WIN_BONUS, a.Points)
		require.Equal(t, players[1].ID, e.Current().ID)
		_, won := e.Winner()
		require.False(t, won)
	})

	t.Run("overshooting clamps to the last tile", func(t *testing.T) {
		players := humans()
		players[0].Tile = 99
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 6))
		require.Equal(t, 1, players[0].Crowns)
		require.Equal(t, 10+meta.WIN_BONUS, players[0].Points, "Only one step is walked")
	})

	t.Run("second crown wins", func(t *testing.T) {
		players := humans()
		a := players[0]
		a.Tile, a.Crowns = 98, 1
		a.Items = []string{game.ItemShield}
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 2))
		winner, won := e.Winner()
		require.True(t, won)
		require.Equal(t, a.ID, winner.ID)
		require.Equal(t, 2, a.Crowns)
		require.Equal(t, 100, a.Tile)
		require.Equal(t, game.Normal, e.Phase(), "A winner does not open the inventory")

		require.ErrorIs(t, e.RollDice(ctx, 1), ErrGameOver)
		require.ErrorIs(t, e.UseItem(ctx, game.ItemShield), ErrGameOver)
	})
}

func TestInventory(t *testing.T) {
	ctx := context.Background()
	players := humans()
	a := players[0]
	a.Items = []string{game.ItemAntiSnakeSpray, game.ItemShield}
	e := newEngine(t, players)

	require.ErrorIs(t, e.UseItem(ctx, game.ItemShield), ErrWrongPhase, "Inventory opens only after moving")
	require.NoError(t, e.RollDice(ctx, 1))

	require.ErrorIs(t, e.UseItem(ctx, "Wand"), ErrUnknownItem)
	require.ErrorIs(t, e.UseItem(ctx, game.ItemBomb), ErrItemNotOwned)
	require.ErrorIs(t, e.UseItem(ctx, game.ItemAntiSnakeSpray), ErrNotUsable)
	require.Equal(t, game.CheckingInventory, e.Phase(), "Rejected uses change nothing")
	require.Len(t, a.Items, 2)

	require.NoError(t, e.CancelInventory(ctx))
	require.Equal(t, players[1].ID, e.Current().ID)
	require.Equal(t, []string{game.ItemAntiSnakeSpray, game.ItemShield}, a.Items)
	require.ErrorIs(t, e.CancelInventory(ctx), ErrWrongPhase)
}

func TestStatusItems(t *testing.T) {
	ctx := context.Background()

	t.Run("points multiplier raises step points", func(t *testing.T) {
		players := humans()
		a := players[0]
		a.Items = []string{game.ItemPointsMultiplier}
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemPointsMultiplier))
		require.Equal(t, game.PointsMultiplier, e.Snapshot().Statuses[a.ID].Status)

		rollOnes(t, e, a.ID)
		require.NoError(t, e.RollDice(ctx, 1))
		require.Equal(t, 10+15, a.Points)
	})

	t.Run("extra points", func(t *testing.T) {
		players := humans()
		players[0].Items = []string{game.ItemExtraPoints}
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemExtraPoints))
		require.Equal(t, 10+20, players[0].Points)
		require.Equal(t, players[1].ID, e.Current().ID)
	})

	t.Run("item use is recorded by tile", func(t *testing.T) {
		store := learning.NewFileStore("")
		players := humans()
		players[0].Items = []string{game.ItemShield}
		e := newEngine(t, players, WithLearning(store))

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemShield))
		agg := store.Snapshot()
		require.Equal(t, 1, agg.ItemUseFrequency[game.ItemShield])
		require.Equal(t, 1, agg.TileItemUsage[2][game.ItemShield])
	})
}
