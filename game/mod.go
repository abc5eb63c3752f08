package game

import "github.com/google/uuid"

// PlayerID identifies a seat for the lifetime of a session.
type PlayerID string

func NewPlayerID() PlayerID {
	return PlayerID(uuid.NewString())
}

// Phase is the single session-wide gate; turns are strictly sequential so
// there is never more than one active value.
type Phase int

const (
	Normal Phase = iota
	Shopping
	CheckingInventory
	UsingItem
	PlacingItem
)

func (p Phase) String() string {
	switch p {
	case Normal:
		return "normal"
	case Shopping:
		return "shopping"
	case CheckingInventory:
		return "checking_inventory"
	case UsingItem:
		return "using_item"
	case PlacingItem:
		return "placing_item"
	}
	return "unknown"
}
