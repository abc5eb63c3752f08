package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

type Status int

const (
	StatusNormal Status = iota
	Stunned
	Shielded
	PointsMultiplier
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case Stunned:
		return "stunned"
	case Shielded:
		return "shielded"
	case PointsMultiplier:
		return "points_multiplier"
	}
	return "unknown"
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusNormal, Stunned, Shielded, PointsMultiplier} {
		if st.String() == s {
			return st, true
		}
	}
	return StatusNormal, false
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, ok := ParseStatus(string(text))
	if !ok {
		return fmt.Errorf("unknown status %q", text)
	}
	*s = st
	return nil
}

// StatusEffect is a player's single active timed condition.
// Remaining > 0 whenever Status != StatusNormal.
type StatusEffect struct {
	Status    Status `json:"status"`
	Remaining int    `json:"remaining"`
}

// StatusRegistry owns every player's StatusEffect. Effects never stack: setting
// one overwrites whatever was active.
type StatusRegistry struct {
	duration int
	effects  map[PlayerID]*StatusEffect
}

func NewStatusRegistry(duration int) *StatusRegistry {
	if duration <= 0 {
		panic("status duration must be positive")
	}
	return &StatusRegistry{
		duration: duration,
		effects:  make(map[PlayerID]*StatusEffect),
	}
}

func (r *StatusRegistry) Duration() int {
	return r.duration
}

func (r *StatusRegistry) Register(id PlayerID) {
	if _, ok := r.effects[id]; !ok {
		r.effects[id] = &StatusEffect{}
	}
}

func (r *StatusRegistry) entry(id PlayerID) *StatusEffect {
	r.Register(id)
	return r.effects[id]
}

func (r *StatusRegistry) Get(id PlayerID) StatusEffect {
	if e, ok := r.effects[id]; ok {
		return *e
	}
	return StatusEffect{}
}

func (r *StatusRegistry) Is(id PlayerID, s Status) bool {
	return r.Get(id).Status == s
}

// Set overwrites the player's effect with the shared duration.
func (r *StatusRegistry) Set(id PlayerID, s Status) {
	e := r.entry(id)
	if s == StatusNormal {
		e.Status, e.Remaining = StatusNormal, 0
		return
	}
	e.Status, e.Remaining = s, r.duration
	log.Debug().Str("player", string(id)).Msgf("%s for %d turns", s, r.duration)
}

func (r *StatusRegistry) SetStunned(id PlayerID)          { r.Set(id, Stunned) }
func (r *StatusRegistry) SetShielded(id PlayerID)         { r.Set(id, Shielded) }
func (r *StatusRegistry) SetPointsMultiplier(id PlayerID) { r.Set(id, PointsMultiplier) }
func (r *StatusRegistry) Remove(id PlayerID)              { r.Set(id, StatusNormal) }

// ProcessAtTurnStart ticks the player's timed effect and reports whether the
// turn must be skipped. A stun of duration d skips exactly d turn-starts: the
// d-th one still skips even though the status returns to normal on it.
func (r *StatusRegistry) ProcessAtTurnStart(id PlayerID) bool {
	e := r.entry(id)
	if e.Status == StatusNormal {
		return false
	}
	stunned := e.Status == Stunned
	e.Remaining--
	if e.Remaining <= 0 {
		log.Debug().Str("player", string(id)).Msgf("%s expired", e.Status)
		e.Status, e.Remaining = StatusNormal, 0
	}
	return stunned
}

// ConsumeShield clears an active shield regardless of its remaining turns and
// reports whether one was present. Every incoming attack calls this first.
func (r *StatusRegistry) ConsumeShield(id PlayerID) bool {
	e := r.entry(id)
	if e.Status != Shielded {
		return false
	}
	e.Status, e.Remaining = StatusNormal, 0
	return true
}
