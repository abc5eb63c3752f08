package game

import (
	"ladders/meta"
	"ladders/utils"

	"github.com/rs/zerolog/log"
)

// PlayerProfile is the per-seat state. Tile state lives here only.
type PlayerProfile struct {
	ID        PlayerID `json:"id"`
	Name      string   `json:"name"`
	Tile      int      `json:"tile"`
	Points    int      `json:"points"`
	Crowns    int      `json:"crowns"`
	Items     []string `json:"items"` // acquisition order
	Automated bool     `json:"automated"`
}

// NewPlayer returns a profile standing on the first tile with no points or items.
func NewPlayer(name string, automated bool) *PlayerProfile {
	return &PlayerProfile{
		ID:        NewPlayerID(),
		Name:      name,
		Tile:      meta.FIRST_TILE,
		Items:     []string{},
		Automated: automated,
	}
}

// AddItem appends to the inventory, refusing when it is already full.
func (p *PlayerProfile) AddItem(name string) bool {
	if len(p.Items) >= meta.MAX_ITEMS {
		log.Debug().Msgf("%s already has %d items, cannot add %s", p.Name, meta.MAX_ITEMS, name)
		return false
	}
	p.Items = append(p.Items, name)
	return true
}

// RemoveItem drops the first owned copy of name.
func (p *PlayerProfile) RemoveItem(name string) bool {
	items, ok := utils.Remove(p.Items, name)
	p.Items = items
	return ok
}

func (p *PlayerProfile) HasItem(name string) bool {
	return utils.FindIndex(p.Items, name) >= 0
}

func (p *PlayerProfile) InventoryFull() bool {
	return len(p.Items) >= meta.MAX_ITEMS
}

func (p *PlayerProfile) AddPoints(value int) {
	p.Points += value
}

func (p PlayerProfile) Copy() PlayerProfile {
	items := make([]string, len(p.Items))
	copy(items, p.Items)
	p.Items = items
	return p
}
