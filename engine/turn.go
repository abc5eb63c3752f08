package engine

import (
	"context"
	"slices"

	"ladders/game"
	"ladders/oracle"

	"github.com/rs/zerolog/log"
)

func (e *Engine) beginTurn(p *game.PlayerProfile) {
	e.phase = game.Normal
	e.turns++
	e.botTurn = p.Automated
	e.metrics.TurnStarted()
	log.Info().Str("player", p.Name).Int("tile", p.Tile).Msgf("it is now %s's turn", p.Name)
	e.notify(Event{Kind: TurnStarted, Player: p.ID, Tile: p.Tile})
}

// takeTurn moves the current player by roll and runs the post-move hook.
func (e *Engine) takeTurn(ctx context.Context, roll int) error {
	p := e.players[e.current]
	log.Debug().Str("player", p.Name).Msgf("rolled %d", roll)
	e.notify(Event{Kind: Rolled, Player: p.ID, Tile: p.Tile, Value: roll})

	if e.mover.Advance(p, p.Tile+roll) {
		if e.crown(p) {
			return nil
		}
	} else {
		e.springTrap(p)
	}
	return e.afterMove(ctx, p)
}

// afterMove opens the inventory when p owns anything, otherwise ends the turn.
func (e *Engine) afterMove(ctx context.Context, p *game.PlayerProfile) error {
	if len(p.Items) == 0 {
		return e.advanceTurn(ctx)
	}

	e.phase = game.CheckingInventory
	e.notify(Event{Kind: InventoryOpened, Player: p.ID, Tile: p.Tile})
	if !p.Automated {
		return nil
	}

	usable := e.usable(p)
	if len(usable) == 0 {
		e.closeInventory(p)
		return e.advanceTurn(ctx)
	}
	choice, ok := e.decide(ctx, oracle.KindUse, p, usable,
		func() (string, bool) { return e.heuristic.Use(e.view(p)) },
		func(name string) bool { return slices.Contains(usable, name) },
	)
	if !ok {
		e.closeInventory(p)
		return e.advanceTurn(ctx)
	}
	return e.useItem(ctx, p, choice)
}

func (e *Engine) closeInventory(p *game.PlayerProfile) {
	e.phase = game.Normal
	e.notify(Event{Kind: InventoryClosed, Player: p.ID, Tile: p.Tile})
}

// usable lists p's owned items that can be used directly, without duplicates.
func (e *Engine) usable(p *game.PlayerProfile) []string {
	var names []string
	for _, name := range p.Items {
		it, ok := e.board.Catalog.Get(name)
		if !ok || it.Class() == game.Passive || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// crown handles p reaching the last tile and reports whether the session
// ended.
func (e *Engine) crown(p *game.PlayerProfile) bool {
	p.AddPoints(e.rules.WinBonus())
	p.Crowns++
	e.metrics.CrownAwarded()
	log.Info().Str("player", p.Name).Msgf("%s reached the finish line, crown %d", p.Name, p.Crowns)
	e.notify(Event{Kind: Crowned, Player: p.ID, Tile: p.Tile, Value: p.Crowns})

	if p.Crowns >= e.rules.CrownsToWin() {
		e.winner = p
		e.phase = game.Normal
		e.botTurn = false
		e.metrics.GameWon()
		log.Info().Str("session", e.session).Msgf("%s wins after %d turns", p.Name, e.turns)
		e.notify(Event{Kind: Won, Player: p.ID, Tile: p.Tile, Value: p.Points})
		return true
	}

	from := p.Tile
	p.Tile = 1
	e.notify(Event{Kind: Stepped, Player: p.ID, Tile: p.Tile, From: from, Position: e.topology.TilePosition(p.Tile)})
	return false
}

// advanceTurn hands the turn to the next player who is not stunned. Every
// stretch of len(players) consecutive skips forfeits a round; after
// duration+1 such stretches it gives up with ErrAllStunned.
func (e *Engine) advanceTurn(ctx context.Context) error {
	if e.winner != nil {
		return nil
	}
	e.expireTraps()

	n := len(e.players)
	for pass := 0; pass <= e.statuses.Duration(); pass++ {
		for i := 0; i < n; i++ {
			e.current = (e.current + 1) % n
			if e.current == 0 {
				e.round++
				log.Info().Str("session", e.session).Msgf("round %d", e.round)
				e.notify(Event{Kind: RoundStarted})
				if e.rules.ShopDue(e.round) {
					e.shop.Run(ctx)
				}
			}

			next := e.players[e.current]
			if e.statuses.ProcessAtTurnStart(next.ID) {
				log.Info().Str("player", next.Name).Msgf("%s's turn skipped (stunned)", next.Name)
				e.metrics.TurnSkipped()
				e.notify(Event{Kind: TurnSkipped, Player: next.ID, Tile: next.Tile})
				continue
			}
			e.beginTurn(next)
			return nil
		}
		log.Error().Str("session", e.session).Msgf("every player is stunned, round %d forfeited", e.round)
		e.notify(Event{Kind: RoundForfeited})
	}
	e.phase = game.Normal
	e.botTurn = false
	return ErrAllStunned
}
