package engine

import (
	"context"
	"testing"

	"ladders/game"
	"ladders/learning"

	"github.com/stretchr/testify/require"
)

func TestStun(t *testing.T) {
	ctx := context.Background()

	t.Run("skips exactly the next d turns", func(t *testing.T) {
		rec := &recorder{}
		players := humans()
		a, b, c := players[0], players[1], players[2]
		a.Items = []string{game.ItemStunGun}
		e := newEngine(t, players, WithObserver(rec))

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemStunGun))
		require.Equal(t, game.UsingItem, e.Phase())
		require.Equal(t, []game.PlayerID{b.ID, c.ID, players[3].ID}, e.StunCandidates())
		require.ErrorIs(t, e.SelectStunTarget(ctx, a.ID), ErrInvalidTarget, "Self is never a target")

		require.NoError(t, e.SelectStunTarget(ctx, b.ID))
		require.Equal(t, c.ID, e.Current().ID, "B's first turn is skipped right away")
		require.Equal(t, game.StatusEffect{Status: game.Stunned, Remaining: 2}, e.Snapshot().Statuses[b.ID])

		rollOnes(t, e, b.ID)
		require.Equal(t, 3, rec.count(TurnSkipped, b.ID))
		require.Equal(t, game.StatusEffect{}, e.Snapshot().Statuses[b.ID])
	})

	t.Run("stunned and shielded players are not candidates", func(t *testing.T) {
		players := humans()
		players[0].Items = []string{game.ItemStunGun}
		e := newEngine(t, players)
		e.statuses.SetStunned(players[1].ID)
		e.statuses.SetShielded(players[2].ID)

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemStunGun))
		require.Equal(t, []game.PlayerID{players[3].ID}, e.StunCandidates())
		require.ErrorIs(t, e.SelectStunTarget(ctx, players[1].ID), ErrInvalidTarget)
	})

	t.Run("records a hit by placement rank", func(t *testing.T) {
		store := learning.NewFileStore("")
		players := humans()
		players[0].Items = []string{game.ItemStunGun}
		players[3].Tile = 50
		e := newEngine(t, players, WithLearning(store))

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemStunGun))
		require.NoError(t, e.SelectStunTarget(ctx, players[3].ID))
		require.Equal(t, map[string]map[int]int{game.ItemStunGun: {1: 1}}, store.Snapshot().ItemHits)
	})
}

func TestShieldBlocks(t *testing.T) {
	ctx := context.Background()

	// Shield is checked when the effect resolves, so it blocks whether it was
	// raised before the item was used or while the effect was pending.
	orderings := []struct {
		name   string
		before bool
	}{
		{"shield raised before the attack", true},
		{"shield raised while the attack is pending", false},
	}

	for _, o := range orderings {
		t.Run("stun "+o.name, func(t *testing.T) {
			store := learning.NewFileStore("")
			players := humans()
			b := players[1]
			players[0].Items = []string{game.ItemStunGun}
			e := newEngine(t, players, WithLearning(store))

			if o.before {
				e.statuses.SetShielded(b.ID)
			}
			require.NoError(t, e.RollDice(ctx, 1))
			require.NoError(t, e.UseItem(ctx, game.ItemStunGun))
			if !o.before {
				e.statuses.SetShielded(b.ID)
			}
			require.NoError(t, e.SelectStunTarget(ctx, b.ID))

			require.Equal(t, game.StatusEffect{}, e.Snapshot().Statuses[b.ID], "Shield is consumed and no stun lands")
			require.Equal(t, b.ID, e.Current().ID, "B plays normally")
			require.Empty(t, store.Snapshot().ItemHits, "A blocked attack is not a hit")
		})

		t.Run("bomb "+o.name, func(t *testing.T) {
			store := learning.NewFileStore("")
			players := humans()
			b := players[1]
			b.Tile = 30
			players[0].Items = []string{game.ItemBomb}
			e := newEngine(t, players, WithLearning(store))

			if o.before {
				e.statuses.SetShielded(b.ID)
			}
			require.NoError(t, e.RollDice(ctx, 1))
			require.NoError(t, e.UseItem(ctx, game.ItemBomb))
			if !o.before {
				e.statuses.SetShielded(b.ID)
			}
			require.NoError(t, e.PlaceBomb(ctx, 30))

			require.Equal(t, 30, b.Tile, "No pushback")
			require.Equal(t, game.StatusEffect{}, e.Snapshot().Statuses[b.ID])
			require.Empty(t, store.Snapshot().ItemHits)
		})
	}
}

func TestBomb(t *testing.T) {
	ctx := context.Background()

	t.Run("occupied tile detonates at once", func(t *testing.T) {
		store := learning.NewFileStore("")
		players := humans()
		a, b := players[0], players[1]
		a.Items = []string{game.ItemBomb}
		b.Tile = 30
		e := newEngine(t, players, WithLearning(store))

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemBomb))
		require.Equal(t, game.PlacingItem, e.Phase())
		require.ErrorIs(t, e.RollDice(ctx, 1), ErrWrongPhase)

		require.ErrorIs(t, e.PlaceBomb(ctx, 1), ErrInvalidTile)
		require.ErrorIs(t, e.PlaceBomb(ctx, 100), ErrInvalidTile)
		require.Equal(t, game.PlacingItem, e.Phase(), "Invalid tiles change nothing")

		require.NoError(t, e.PlaceBomb(ctx, 30))
		require.Equal(t, 22, b.Tile)
		require.Equal(t, 0, b.Points, "Pushback awards nothing")
		require.Equal(t, map[string]map[int]int{game.ItemBomb: {1: 1}}, store.Snapshot().ItemHits, "Rank is taken before the pushback")
		require.Equal(t, game.Normal, e.Phase())
		require.Equal(t, b.ID, e.Current().ID)
		require.ErrorIs(t, e.PlaceBomb(ctx, 30), ErrWrongPhase)
	})

	t.Run("owner gets a discount", func(t *testing.T) {
		players := humans()
		a := players[0]
		a.Items = []string{game.ItemBomb}
		a.Tile = 20
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemBomb))
		require.NoError(t, e.PlaceBomb(ctx, 21))
		require.Equal(t, 19, a.Tile)
	})

	t.Run("pushback stops at the first tile", func(t *testing.T) {
		players := humans()
		players[0].Items = []string{game.ItemBomb}
		players[1].Tile = 5
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemBomb))
		require.NoError(t, e.PlaceBomb(ctx, 5))
		require.Equal(t, 1, players[1].Tile)
	})

	t.Run("trap springs on the next arrival", func(t *testing.T) {
		rec := &recorder{}
		players := humans()
		a, b := players[0], players[1]
		a.Items = []string{game.ItemBomb}
		e := newEngine(t, players, WithObserver(rec))

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemBomb))
		require.NoError(t, e.PlaceBomb(ctx, 6))
		require.Equal(t, []int{6}, e.Snapshot().Traps)

		require.NoError(t, e.RollDice(ctx, 5))
		require.Equal(t, 1, b.Tile)
		require.Empty(t, e.Snapshot().Traps)
		require.Equal(t, 1, rec.count(PushedBack, a.ID))
	})

	t.Run("trap expires after a round", func(t *testing.T) {
		players := humans()
		a := players[0]
		a.Items = []string{game.ItemBomb}
		e := newEngine(t, players)

		require.NoError(t, e.RollDice(ctx, 1))
		require.NoError(t, e.UseItem(ctx, game.ItemBomb))
		require.NoError(t, e.PlaceBomb(ctx, 50))

		rollOnes(t, e, a.ID)
		require.Equal(t, []int{50}, e.Snapshot().Traps, "Still armed for the owner's own move")
		require.NoError(t, e.RollDice(ctx, 1))
		require.Empty(t, e.Snapshot().Traps)
	})
}

func TestAllStunned(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	players := humans()
	e := newEngine(t, players, WithObserver(rec))
	for _, p := range players {
		e.statuses.SetStunned(p.ID)
	}

	require.NoError(t, e.RollDice(ctx, 1))
	require.Equal(t, 3, rec.count(RoundForfeited, ""), "Each full pass of skips forfeits a round")
	require.Equal(t, players[1].ID, e.Current().ID, "B is the first to recover")
	require.Equal(t, game.Normal, e.Phase())
}
