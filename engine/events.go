package engine

import (
	"context"
	"math/rand/v2"

	"ladders/game"
)

type EventKind int

const (
	TurnStarted EventKind = iota
	TurnSkipped
	Rolled
	Stepped
	Redirected
	SnakeBlocked
	Crowned
	Won
	ItemUsed
	ShieldBlocked
	Stunned
	AwaitingTarget
	AwaitingPlacement
	BombPlaced
	BombExpired
	PushedBack
	InventoryOpened
	InventoryClosed
	RoundStarted
	RoundForfeited
	ShopOpened
	Purchased
	ShopClosed
)

func (k EventKind) String() string {
	return [...]string{
		"turn_started", "turn_skipped", "rolled", "stepped", "redirected", "snake_blocked",
		"crowned", "won", "item_used", "shield_blocked", "stunned", "awaiting_target",
		"awaiting_placement", "bomb_placed", "bomb_expired", "pushed_back", "inventory_opened",
		"inventory_closed", "round_started", "round_forfeited", "shop_opened", "purchased", "shop_closed",
	}[k]
}

// Event describes one state change for the presentation layer. Fields that do
// not apply to a kind are left zero.
type Event struct {
	Kind     EventKind
	Player   game.PlayerID
	Target   game.PlayerID
	Item     string
	Tile     int
	From     int
	Value    int
	Round    int
	Position Position
}

// Observer displays state but never mutates it. Notify runs while the engine
// holds its lock, so implementations must not call back into the Engine.
type Observer interface {
	Notify(ev Event)
}

type ObserverFunc func(ev Event)

func (f ObserverFunc) Notify(ev Event) { f(ev) }

type nopObserver struct{}

func (nopObserver) Notify(Event) {}

// Position is an opaque screen coordinate, used only for animation.
type Position struct {
	X, Y int
}

// Topology maps tile numbers to positions.
type Topology interface {
	TilePosition(tile int) Position
}

// GridTopology lays tiles out boustrophedon, Width tiles per row, starting
// bottom left.
type GridTopology struct {
	Width int
}

func (g GridTopology) TilePosition(tile int) Position {
	i := tile - 1
	row, col := i/g.Width, i%g.Width
	if row%2 == 1 {
		col = g.Width - 1 - col
	}
	return Position{X: col, Y: row}
}

// Roller rolls dice for automated agents.
type Roller interface {
	Roll() int
}

type diceRoller struct {
	rng *rand.Rand
}

func (d diceRoller) Roll() int {
	return d.rng.IntN(6) + 1
}

// ShopWindow lets a human pick one offered item. An empty name skips. The
// context carries the per-player deadline; Choose must not call the Engine.
type ShopWindow interface {
	Choose(ctx context.Context, player game.PlayerProfile, offer []game.Item) (string, error)
}
