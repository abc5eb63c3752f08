package game

import "sort"

// PlacementRank returns the 1-based standing of id when players are sorted by
// tile, highest first, keeping seat order for ties. It returns 0 for unknown ids.
func PlacementRank(players []*PlayerProfile, id PlayerID) int {
	sorted := make([]*PlayerProfile, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tile > sorted[j].Tile
	})
	for i, p := range sorted {
		if p.ID == id {
			return i + 1
		}
	}
	return 0
}
