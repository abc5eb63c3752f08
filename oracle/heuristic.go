package oracle

import (
	"slices"
	"strconv"

	"ladders/game"
	"ladders/meta"
	"ladders/utils"
)

// Heuristic is the deterministic in-process decision maker used whenever the
// oracle cannot answer. Its priorities: defend against known hazards, then
// mobility, then aggression, then defence and points, then skip.
type Heuristic struct {
	board *game.Board
}

func NewHeuristic(board *game.Board) *Heuristic {
	return &Heuristic{board: board}
}

// Decide answers any request kind.
func (h *Heuristic) Decide(req Request) (string, bool) {
	switch req.Kind {
	case KindBuy:
		return h.Buy(req.View, req.Candidates)
	case KindUse:
		return h.Use(req.View)
	case KindTarget:
		return h.Target(req.View, req.Candidates)
	case KindPlace:
		return strconv.Itoa(h.Place(req.View)), true
	}
	return "", false
}

type match func(e game.Effect) bool

func isShield(e game.Effect) bool {
	s, ok := e.(game.ApplyStatus)
	return ok && s.Status == game.Shielded
}

func isMultiplier(e game.Effect) bool {
	s, ok := e.(game.ApplyStatus)
	return ok && s.Status == game.PointsMultiplier
}

func isMovement(e game.Effect) bool {
	_, ok := e.(game.MoveForward)
	return ok
}

func isPoints(e game.Effect) bool {
	_, ok := e.(game.AddPoints)
	return ok
}

func isBomb(e game.Effect) bool {
	_, ok := e.(game.PlaceBomb)
	return ok
}

func isStun(e game.Effect) bool {
	_, ok := e.(game.Stun)
	return ok
}

func isGuard(e game.Effect) bool {
	_, ok := e.(game.SnakeGuard)
	return ok
}

func isAttack(e game.Effect) bool {
	return isBomb(e) || isStun(e)
}

// find returns the first name whose catalog effect satisfies m.
func (h *Heuristic) find(names []string, m match) (string, bool) {
	for _, name := range names {
		if it, ok := h.board.Catalog.Get(name); ok && m(it.Effect) {
			return name, true
		}
	}
	return "", false
}

func (h *Heuristic) owns(names []string, m match) bool {
	_, ok := h.find(names, m)
	return ok
}

// threatened reports whether any opponent holds an attack item.
func (h *Heuristic) threatened(v View) bool {
	for _, o := range v.Opponents {
		if h.owns(o.Items, isAttack) {
			return true
		}
	}
	return false
}

func ahead(v View) bool {
	for _, o := range v.Opponents {
		if o.Tile > v.Tile {
			return true
		}
	}
	return false
}

func stunnable(o Seat) bool {
	return o.Status != game.Stunned && o.Status != game.Shielded
}

// safeMove reports whether moving tiles forward avoids ending on a snake.
func (h *Heuristic) safeMove(v View, tiles int) bool {
	target := min(v.Tile+tiles, h.board.Graph.Size())
	if to, ok := h.board.Graph.Ladder(target); ok {
		target = to
	}
	if _, snake := h.board.Graph.Snake(target); snake {
		return h.owns(v.Items, isGuard)
	}
	return true
}

// Use picks an owned item to use now, or skips.
func (h *Heuristic) Use(v View) (string, bool) {
	if v.Status != game.Shielded && h.threatened(v) {
		if name, ok := h.find(v.Items, isShield); ok {
			return name, true
		}
	}
	if name, ok := h.find(v.Items, func(e game.Effect) bool {
		mf, ok := e.(game.MoveForward)
		return ok && h.safeMove(v, mf.Tiles)
	}); ok {
		return name, true
	}
	if ahead(v) {
		if name, ok := h.find(v.Items, isBomb); ok {
			return name, true
		}
	}
	if slices.ContainsFunc(v.Opponents, func(o Seat) bool { return o.Tile > v.Tile && stunnable(o) }) {
		if name, ok := h.find(v.Items, isStun); ok {
			return name, true
		}
	}
	// Status items overwrite each other, so only use them from a clean slate.
	if v.Status == game.StatusNormal {
		if name, ok := h.find(v.Items, isMultiplier); ok {
			return name, true
		}
	}
	if name, ok := h.find(v.Items, isPoints); ok {
		return name, true
	}
	if v.Status == game.StatusNormal {
		if name, ok := h.find(v.Items, isShield); ok {
			return name, true
		}
	}
	return "", false
}

// Buy picks one of the affordable candidates, or skips.
func (h *Heuristic) Buy(v View, candidates []string) (string, bool) {
	if h.board.Graph.SnakeAhead(v.Tile, meta.SNAKE_LOOKAHEAD) && !h.owns(v.Items, isGuard) {
		if name, ok := h.find(candidates, isGuard); ok {
			return name, true
		}
	}
	if name, ok := h.find(candidates, isMovement); ok {
		return name, true
	}
	if ahead(v) {
		if name, ok := h.find(candidates, isBomb); ok {
			return name, true
		}
		if name, ok := h.find(candidates, isStun); ok {
			return name, true
		}
	}
	if !h.owns(v.Items, isShield) {
		if name, ok := h.find(candidates, isShield); ok {
			return name, true
		}
	}
	if name, ok := h.find(candidates, isMultiplier); ok {
		return name, true
	}
	if name, ok := h.find(candidates, isPoints); ok {
		return name, true
	}
	return "", false
}

// Target picks the candidate closest to winning; ties go to the first
// candidate listed.
func (h *Heuristic) Target(v View, candidates []string) (string, bool) {
	best, bestTile := "", -1
	for _, id := range candidates {
		i := slices.IndexFunc(v.Opponents, func(o Seat) bool { return string(o.ID) == id })
		if i < 0 {
			continue
		}
		if tile := v.Opponents[i].Tile; tile > bestTile {
			best, bestTile = id, tile
		}
	}
	return best, bestTile >= 0
}

// Place returns the tile BOMB_LEAD ahead of the leading opponent, kept off the
// first and last tiles.
func (h *Heuristic) Place(v View) int {
	lead := v.Tile
	if len(v.Opponents) > 0 {
		lead = v.Opponents[0].Tile
		for _, o := range v.Opponents[1:] {
			lead = max(lead, o.Tile)
		}
	}
	return utils.Clamp(lead+meta.BOMB_LEAD, meta.FIRST_TILE+1, h.board.Graph.Size()-1)
}
