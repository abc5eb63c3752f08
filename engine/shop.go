package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"ladders/game"
	"ladders/learning"
	"ladders/oracle"

	"github.com/rs/zerolog/log"
)

// Purchase is one completed shop transaction.
type Purchase struct {
	Player game.PlayerID
	Item   string
	Cost   int
}

// Shop runs the periodic purchase interstitial. It is driven by the engine
// while the engine holds its lock.
type Shop struct {
	e             *Engine
	window        ShopWindow
	timePerPlayer time.Duration
	offerSize     int
}

// Run reveals a random offer and lets every player in seat order buy at most
// one item from it.
func (s *Shop) Run(ctx context.Context) []Purchase {
	e := s.e
	e.phase = game.Shopping
	offer := s.reveal()
	log.Info().Int("round", e.round).Msgf("shop open with %d items", len(offer))
	e.notify(Event{Kind: ShopOpened, Value: len(offer)})

	var purchases []Purchase
	for _, p := range e.players {
		if p.InventoryFull() {
			log.Debug().Str("player", p.Name).Msg("inventory full, skipping shop")
			continue
		}

		var name string
		var ok bool
		if p.Automated {
			name, ok = s.botChoice(ctx, p, offer)
		} else {
			name, ok = s.humanChoice(ctx, p, offer)
		}
		if !ok {
			continue
		}

		if err := s.buy(p, name, offer); err != nil {
			log.Info().Err(err).Str("player", p.Name).Msgf("purchase of %s rejected", name)
			continue
		}
		item, _ := e.board.Catalog.Get(name)
		purchases = append(purchases, Purchase{Player: p.ID, Item: name, Cost: item.Cost})
	}

	e.notify(Event{Kind: ShopClosed, Value: len(purchases)})
	e.phase = game.Normal
	return purchases
}

// reveal draws at most offerSize distinct catalog items, returned in catalog
// order.
func (s *Shop) reveal() []game.Item {
	items := s.e.board.Catalog.Items()
	s.e.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > s.offerSize {
		items = items[:s.offerSize]
	}
	catalog := s.e.board.Catalog
	slices.SortFunc(items, func(a, b game.Item) int { return catalog.Order(a.Name) - catalog.Order(b.Name) })
	return items
}

func (s *Shop) botChoice(ctx context.Context, p *game.PlayerProfile, offer []game.Item) (string, bool) {
	e := s.e
	var affordable []string
	for _, it := range offer {
		if it.Cost <= p.Points {
			affordable = append(affordable, it.Name)
		}
	}
	if len(affordable) == 0 {
		return "", false
	}

	return e.decide(ctx, oracle.KindBuy, p, affordable,
		func() (string, bool) {
			return learning.RankPurchase(e.store.Snapshot(), affordable, p.Tile, e.round, e.rng)
		},
		func(name string) bool { return slices.Contains(affordable, name) },
	)
}

type choice struct {
	name string
	err  error
}

// humanChoice waits for the shop window no longer than the per-player time.
func (s *Shop) humanChoice(ctx context.Context, p *game.PlayerProfile, offer []game.Item) (string, bool) {
	if s.window == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timePerPlayer)
	defer cancel()

	ch := make(chan choice, 1)
	profile := p.Copy()
	items := slices.Clone(offer)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- choice{err: fmt.Errorf("shop window panicked: %v", r)}
			}
		}()
		name, err := s.window.Choose(ctx, profile, items)
		ch <- choice{name: name, err: err}
	}()

	select {
	case c := <-ch:
		if c.err != nil {
			log.Warn().Err(c.err).Str("player", p.Name).Msg("shop window failed")
			return "", false
		}
		return c.name, c.name != ""
	case <-ctx.Done():
		log.Info().Str("player", p.Name).Msg("shop time is up")
		return "", false
	}
}

// buy validates and applies one purchase. Rejections change nothing.
func (s *Shop) buy(p *game.PlayerProfile, name string, offer []game.Item) error {
	e := s.e
	i := slices.IndexFunc(offer, func(it game.Item) bool { return it.Name == name })
	if i < 0 {
		return fmt.Errorf("%w: %q is not on offer", ErrUnknownItem, name)
	}
	item := offer[i]
	if p.InventoryFull() {
		return ErrInventoryFull
	}
	if p.Points < item.Cost {
		return fmt.Errorf("%w: %s costs %d, %s has %d", ErrInsufficientPoints, name, item.Cost, p.Name, p.Points)
	}

	p.Points -= item.Cost
	p.AddItem(name)
	if err := e.store.RecordItemPurchased(name, e.round); err != nil {
		log.Warn().Err(err).Msg("failed to record purchase")
	}
	log.Info().Str("player", p.Name).Msgf("%s bought %s for %d", p.Name, name, item.Cost)
	e.notify(Event{Kind: Purchased, Player: p.ID, Item: name, Value: item.Cost})
	return nil
}
