package engine

import "errors"

var (
	ErrWrongPhase         = errors.New("action not allowed in the current phase")
	ErrNotYourTurn        = errors.New("the current player is automated")
	ErrGameOver           = errors.New("the session has a winner")
	ErrInvalidRoll        = errors.New("dice value out of range")
	ErrUnknownItem        = errors.New("unknown item")
	ErrItemNotOwned       = errors.New("item not owned")
	ErrInventoryFull      = errors.New("inventory full")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidTile        = errors.New("invalid tile")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrNotUsable          = errors.New("item cannot be used directly")
	ErrAllStunned         = errors.New("every player is stunned")
	ErrTurnLimit          = errors.New("turn limit reached")
)
