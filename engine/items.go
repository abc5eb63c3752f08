package engine

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"ladders/game"
	"ladders/oracle"

	"github.com/rs/zerolog/log"
)

// useItem validates, consumes and dispatches name for p. Validation failures
// leave the state untouched.
func (e *Engine) useItem(ctx context.Context, p *game.PlayerProfile, name string) error {
	item, ok := e.board.Catalog.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	if !p.HasItem(name) {
		return fmt.Errorf("%w: %s", ErrItemNotOwned, name)
	}
	if item.Class() == game.Passive {
		return fmt.Errorf("%w: %s", ErrNotUsable, name)
	}

	e.phase = game.UsingItem
	p.RemoveItem(name)
	e.recordUse(p, name)
	log.Info().Str("player", p.Name).Int("tile", p.Tile).Msgf("%s used %s", p.Name, name)
	e.notify(Event{Kind: ItemUsed, Player: p.ID, Tile: p.Tile, Item: name})

	switch eff := item.Effect.(type) {
	case game.MoveForward:
		if e.mover.Advance(p, p.Tile+eff.Tiles) {
			if e.crown(p) {
				return nil
			}
		} else {
			e.springTrap(p)
		}
		e.phase = game.Normal
		return e.advanceTurn(ctx)
	case game.AddPoints:
		p.AddPoints(eff.Amount)
		return e.finish(ctx)
	case game.ApplyStatus:
		e.statuses.Set(p.ID, eff.Status)
		return e.finish(ctx)
	case game.Stun:
		return e.beginStun(ctx, p, name)
	case game.PlaceBomb:
		return e.beginBomb(ctx, p, name, eff)
	}
	return fmt.Errorf("%w: %s has no handler", ErrNotUsable, name)
}

// finish restores Normal and, after the settle delay, ends the turn.
func (e *Engine) finish(ctx context.Context) error {
	e.phase = game.Normal
	e.settle(ctx)
	return e.advanceTurn(ctx)
}

// stunCandidates excludes the user and players already stunned or shielded.
func (e *Engine) stunCandidates(user *game.PlayerProfile) []*game.PlayerProfile {
	var out []*game.PlayerProfile
	for _, p := range e.players {
		if p == user {
			continue
		}
		st := e.statuses.Get(p.ID).Status
		if st == game.Stunned || st == game.Shielded {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (e *Engine) beginStun(ctx context.Context, user *game.PlayerProfile, item string) error {
	candidates := e.stunCandidates(user)
	if len(candidates) == 0 {
		log.Info().Str("player", user.Name).Msgf("%s has nobody to stun", item)
		e.phase = game.Normal
		if user.Automated {
			return e.advanceTurn(ctx)
		}
		return e.finish(ctx)
	}

	e.stun = &pendingStun{user: user, item: item}
	if !user.Automated {
		e.notify(Event{Kind: AwaitingTarget, Player: user.ID, Item: item})
		return nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = string(c.ID)
	}
	choice, ok := e.decide(ctx, oracle.KindTarget, user, ids,
		func() (string, bool) { return e.heuristic.Target(e.view(user), ids) },
		func(id string) bool { return slices.Contains(ids, id) },
	)
	if !ok {
		// The item is already consumed, so a skip still fires at the fallback pick.
		choice, _ = e.heuristic.Target(e.view(user), ids)
	}
	return e.resolveStun(ctx, e.player(game.PlayerID(choice)))
}

// resolveStun lands the pending stun on target unless a shield absorbs it.
func (e *Engine) resolveStun(ctx context.Context, target *game.PlayerProfile) error {
	s := e.stun
	e.stun = nil

	if e.statuses.ConsumeShield(target.ID) {
		log.Info().Str("player", target.Name).Msgf("%s's shield blocked the %s", target.Name, s.item)
		e.notify(Event{Kind: ShieldBlocked, Player: s.user.ID, Target: target.ID, Item: s.item})
	} else {
		rank := game.PlacementRank(e.players, target.ID)
		e.statuses.SetStunned(target.ID)
		e.recordHit(s.item, rank)
		log.Info().Str("player", s.user.Name).Msgf("%s stunned %s", s.user.Name, target.Name)
		e.notify(Event{Kind: Stunned, Player: s.user.ID, Target: target.ID, Item: s.item, Value: rank})
	}

	e.phase = game.Normal
	if s.user.Automated {
		return e.advanceTurn(ctx)
	}
	e.settle(ctx)
	return e.advanceTurn(ctx)
}

func (e *Engine) beginBomb(ctx context.Context, owner *game.PlayerProfile, item string, eff game.PlaceBomb) error {
	e.phase = game.PlacingItem
	e.bomb = &pendingBomb{owner: owner, item: item, effect: eff}
	if !owner.Automated {
		e.notify(Event{Kind: AwaitingPlacement, Player: owner.ID, Item: item})
		return nil
	}

	valid := func(s string) bool {
		tile, err := strconv.Atoi(s)
		return err == nil && e.validBombTile(tile)
	}
	choice, ok := e.decide(ctx, oracle.KindPlace, owner, nil,
		func() (string, bool) { return strconv.Itoa(e.heuristic.Place(e.view(owner))), true },
		valid,
	)
	if !ok {
		choice = strconv.Itoa(e.heuristic.Place(e.view(owner)))
	}
	tile, _ := strconv.Atoi(choice)
	return e.placeBomb(ctx, tile)
}

func (e *Engine) validBombTile(tile int) bool {
	return tile > 1 && tile < e.board.Graph.Size()
}

// placeBomb detonates at once on an occupied tile, otherwise arms a trap
// that lasts one full round of turns.
func (e *Engine) placeBomb(ctx context.Context, tile int) error {
	if !e.validBombTile(tile) {
		return fmt.Errorf("%w: %d", ErrInvalidTile, tile)
	}
	b := *e.bomb
	e.bomb = nil

	log.Info().Str("player", b.owner.Name).Msgf("%s placed on tile %d", b.item, tile)
	e.notify(Event{Kind: BombPlaced, Player: b.owner.ID, Item: b.item, Tile: tile, Position: e.topology.TilePosition(tile)})

	if i := slices.IndexFunc(e.players, func(p *game.PlayerProfile) bool { return p.Tile == tile }); i >= 0 {
		e.detonate(b, e.players[i])
	} else {
		e.traps = append(e.traps, trap{tile: tile, bomb: b, expires: e.turns + len(e.players)})
	}

	e.phase = game.Normal
	e.settle(ctx)
	return e.advanceTurn(ctx)
}

// detonate pushes victim back unless shielded. The phase is held at
// UsingItem while the pushback runs and restored to Normal afterwards.
func (e *Engine) detonate(b pendingBomb, victim *game.PlayerProfile) {
	if e.statuses.ConsumeShield(victim.ID) {
		log.Info().Str("player", victim.Name).Msgf("%s's shield blocked the %s", victim.Name, b.item)
		e.notify(Event{Kind: ShieldBlocked, Player: b.owner.ID, Target: victim.ID, Item: b.item, Tile: victim.Tile})
		return
	}

	push := b.effect.Pushback
	if victim == b.owner {
		push -= b.effect.OwnerDiscount
	}
	rank := game.PlacementRank(e.players, victim.ID)

	e.phase = game.UsingItem
	from := victim.Tile
	e.mover.MoveBack(victim, push)
	e.phase = game.Normal

	e.recordHit(b.item, rank)
	log.Info().Str("player", victim.Name).Msgf("%s pushed %s back from %d to %d", b.item, victim.Name, from, victim.Tile)
	e.notify(Event{Kind: PushedBack, Player: b.owner.ID, Target: victim.ID, Item: b.item, Tile: victim.Tile, From: from, Value: rank})
}

// springTrap detonates the first armed trap on p's tile.
func (e *Engine) springTrap(p *game.PlayerProfile) {
	i := slices.IndexFunc(e.traps, func(t trap) bool { return t.tile == p.Tile })
	if i < 0 {
		return
	}
	t := e.traps[i]
	e.traps = slices.Delete(e.traps, i, i+1)
	e.detonate(t.bomb, p)
}

func (e *Engine) expireTraps() {
	e.traps = slices.DeleteFunc(e.traps, func(t trap) bool {
		if e.turns < t.expires {
			return false
		}
		log.Debug().Msgf("%s on tile %d fizzled", t.bomb.item, t.tile)
		e.notify(Event{Kind: BombExpired, Player: t.bomb.owner.ID, Item: t.bomb.item, Tile: t.tile})
		return true
	})
}
