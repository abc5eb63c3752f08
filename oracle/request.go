package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"ladders/game"

	"github.com/google/uuid"
)

type Kind string

const (
	KindBuy    Kind = "buy"
	KindUse    Kind = "use"
	KindTarget Kind = "target"
	KindPlace  Kind = "place"
)

// Seat is what an agent can observe about another player.
type Seat struct {
	ID     game.PlayerID `json:"id"`
	Tile   int           `json:"tile"`
	Items  []string      `json:"ownedItems"`
	Status game.Status   `json:"status"`
}

// View is the requesting player's observable state.
type View struct {
	Player    game.PlayerID `json:"player"`
	Name      string        `json:"name"`
	Tile      int           `json:"tile"`
	Points    int           `json:"points"`
	Items     []string      `json:"ownedItems"`
	Status    game.Status   `json:"status"`
	Round     int           `json:"round"`
	Opponents []Seat        `json:"opponents,omitempty"`
}

// Request asks the oracle for one decision. Candidates, when present, bound
// the acceptable answers: item names for buy, player ids for target.
type Request struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	View
	Candidates []string `json:"candidates,omitempty"`
}

func NewRequest(kind Kind, view View, candidates []string) Request {
	return Request{
		ID:         uuid.NewString(),
		Kind:       kind,
		View:       view,
		Candidates: candidates,
	}
}

// Response is the oracle's answer. A nil Choice means skip.
type Response struct {
	ID     string  `json:"id"`
	Choice *string `json:"choice"`
}

var ErrMalformed = errors.New("malformed oracle response")

// ParseResponse decodes and validates body against req. Unknown fields,
// trailing data, a mismatched id or a choice outside the candidate list all
// fail.
func ParseResponse(req Request, body []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Response{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("%w: id %q does not match request %q", ErrMalformed, resp.ID, req.ID)
	}
	if resp.Choice != nil && len(req.Candidates) > 0 && !slices.Contains(req.Candidates, *resp.Choice) {
		return Response{}, fmt.Errorf("%w: %q is not a candidate", ErrMalformed, *resp.Choice)
	}
	return resp, nil
}
