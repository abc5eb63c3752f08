package engine

import (
	"ladders/game"
	"ladders/meta"
	"ladders/utils"

	"github.com/rs/zerolog/log"
)

// Mover resolves token movement on the tile graph.
type Mover struct {
	board    *game.Board
	rules    game.Rules
	statuses *game.StatusRegistry
	topology Topology
	notify   func(Event)
	consumed func(p *game.PlayerProfile, item string)
}

func (m *Mover) award(p *game.PlayerProfile) {
	p.AddPoints(m.rules.StepPoints(m.statuses.Get(p.ID).Status))
}

func (m *Mover) step(p *game.PlayerProfile, kind EventKind, from int) {
	m.notify(Event{Kind: kind, Player: p.ID, Tile: p.Tile, From: from, Position: m.topology.TilePosition(p.Tile)})
}

// guard returns the first owned item that protects against snakes.
func (m *Mover) guard(p *game.PlayerProfile) (string, bool) {
	for _, name := range p.Items {
		if it, ok := m.board.Catalog.Get(name); ok {
			if _, isGuard := it.Effect.(game.SnakeGuard); isGuard {
				return name, true
			}
		}
	}
	return "", false
}

// Advance walks p one tile at a time up to target, clamped to the board,
// awarding step points. It then applies at most one ladder and, separately,
// at most one snake. It reports whether p ended on the last tile.
func (m *Mover) Advance(p *game.PlayerProfile, target int) bool {
	size := m.board.Graph.Size()
	target = utils.Clamp(target, meta.FIRST_TILE, size)

	for p.Tile < target {
		p.Tile++
		m.award(p)
		m.step(p, Stepped, p.Tile-1)
	}
	if p.Tile >= size {
		return true
	}

	if to, ok := m.board.Graph.Ladder(p.Tile); ok {
		from := p.Tile
		p.Tile = to
		m.award(p)
		log.Debug().Str("player", p.Name).Msgf("ladder %d -> %d", from, to)
		m.step(p, Redirected, from)
	}

	if to, ok := m.board.Graph.Snake(p.Tile); ok {
		if name, guarded := m.guard(p); guarded {
			p.RemoveItem(name)
			log.Info().Str("player", p.Name).Msgf("%s blocked the snake on %d", name, p.Tile)
			m.notify(Event{Kind: SnakeBlocked, Player: p.ID, Tile: p.Tile, Item: name})
			if m.consumed != nil {
				m.consumed(p, name)
			}
		} else {
			from := p.Tile
			p.Tile = to
			m.award(p)
			log.Debug().Str("player", p.Name).Msgf("snake %d -> %d", from, to)
			m.step(p, Redirected, from)
		}
	}

	return p.Tile >= size
}

// MoveBack pushes p down by amount, never below the first tile. It awards
// nothing and ignores redirects.
func (m *Mover) MoveBack(p *game.PlayerProfile, amount int) {
	target := max(meta.FIRST_TILE, p.Tile-amount)
	for p.Tile > target {
		p.Tile--
		m.step(p, Stepped, p.Tile+1)
	}
}
