package game

import (
	"fmt"
	"sort"
)

// TileGraph maps tile numbers to an optional redirect: forward for ladders,
// backward for snakes. It is never mutated once a session starts.
type TileGraph struct {
	size      int
	redirects map[int]int
}

func NewTileGraph(size int) *TileGraph {
	return &TileGraph{
		size:      size,
		redirects: make(map[int]int),
	}
}

func (g *TileGraph) Size() int {
	return g.size
}

// AddRedirect registers a ladder (to > from) or a snake (to < from).
func (g *TileGraph) AddRedirect(from, to int) error {
	if from <= 1 || from >= g.size {
		return fmt.Errorf("redirect source %d outside (1,%d)", from, g.size)
	}
	if to < 1 || to > g.size {
		return fmt.Errorf("redirect target %d outside [1,%d]", to, g.size)
	}
	if from == to {
		return fmt.Errorf("redirect %d loops onto itself", from)
	}
	if existing, ok := g.redirects[from]; ok {
		return fmt.Errorf("tile %d already redirects to %d", from, existing)
	}
	g.redirects[from] = to
	return nil
}

// Ladder returns the forward redirect for tile, if any.
func (g *TileGraph) Ladder(tile int) (int, bool) {
	to, ok := g.redirects[tile]
	if !ok || to < tile {
		return tile, false
	}
	return to, true
}

// Snake returns the backward redirect for tile, if any.
func (g *TileGraph) Snake(tile int) (int, bool) {
	to, ok := g.redirects[tile]
	if !ok || to > tile {
		return tile, false
	}
	return to, true
}

// SnakeAhead reports whether a snake head lies within distance tiles after tile.
func (g *TileGraph) SnakeAhead(tile, distance int) bool {
	for t := tile + 1; t <= tile+distance && t < g.size; t++ {
		if _, ok := g.Snake(t); ok {
			return true
		}
	}
	return false
}

func (g *TileGraph) Ladders() map[int]int {
	return g.filter(func(from, to int) bool { return to > from })
}

func (g *TileGraph) Snakes() map[int]int {
	return g.filter(func(from, to int) bool { return to < from })
}

func (g *TileGraph) filter(keep func(from, to int) bool) map[int]int {
	out := make(map[int]int)
	for from, to := range g.redirects {
		if keep(from, to) {
			out[from] = to
		}
	}
	return out
}

// Tiles lists every redirect source in ascending order.
func (g *TileGraph) Tiles() []int {
	tiles := make([]int, 0, len(g.redirects))
	for t := range g.redirects {
		tiles = append(tiles, t)
	}
	sort.Ints(tiles)
	return tiles
}

// Board bundles the static data a session is played on.
type Board struct {
	Graph   *TileGraph
	Catalog *Catalog
}
