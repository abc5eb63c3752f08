package game

import "fmt"

const (
	ItemPogoStick        = "Pogo Stick"
	ItemShield           = "Shield"
	ItemExtraPoints      = "ExtraPoints"
	ItemStunGun          = "Stun Gun"
	ItemBomb             = "Bomb"
	ItemPointsMultiplier = "Points Multiplier"
	ItemAntiSnakeSpray   = "Anti Snake Spray"
)

type EffectClass int

const (
	Instant EffectClass = iota
	Targeted
	Placement
	GrantMovement
	Passive
)

func (c EffectClass) String() string {
	return [...]string{"instant", "targeted", "placement", "grant_movement", "passive"}[c]
}

// Effect is the closed set of item effects. Dispatch with a type switch.
type Effect interface {
	Class() EffectClass
}

// MoveForward grants movement without consuming a dice roll.
type MoveForward struct {
	Tiles int
}

// AddPoints grants points immediately.
type AddPoints struct {
	Amount int
}

// ApplyStatus sets a timed status on the user.
type ApplyStatus struct {
	Status Status
}

// Stun disables a chosen opponent's next turns.
type Stun struct{}

// PlaceBomb arms a trap on a chosen tile.
type PlaceBomb struct {
	Pushback      int
	OwnerDiscount int
}

// SnakeGuard is never used directly; the movement resolver consumes it.
type SnakeGuard struct{}

func (MoveForward) Class() EffectClass { return GrantMovement }
func (AddPoints) Class() EffectClass   { return Instant }
func (ApplyStatus) Class() EffectClass { return Instant }
func (Stun) Class() EffectClass        { return Targeted }
func (PlaceBomb) Class() EffectClass   { return Placement }
func (SnakeGuard) Class() EffectClass  { return Passive }

type Item struct {
	Name   string
	Cost   int
	Effect Effect
}

func (i Item) Class() EffectClass {
	return i.Effect.Class()
}

// Catalog is the fixed, read-only item reference set. Order is significant:
// it breaks ranking ties.
type Catalog struct {
	items []Item
	index map[string]int
}

func NewCatalog(items ...Item) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(items))}
	for _, it := range items {
		if it.Name == "" {
			return nil, fmt.Errorf("catalog item without a name")
		}
		if it.Effect == nil {
			return nil, fmt.Errorf("catalog item %q has no effect", it.Name)
		}
		if it.Cost < 0 {
			return nil, fmt.Errorf("catalog item %q has negative cost", it.Name)
		}
		if _, dup := c.index[it.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog item %q", it.Name)
		}
		c.index[it.Name] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

func (c *Catalog) Get(name string) (Item, bool) {
	i, ok := c.index[name]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.items))
	for i, it := range c.items {
		names[i] = it.Name
	}
	return names
}

// Order returns the catalog position of name, or -1.
func (c *Catalog) Order(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}
