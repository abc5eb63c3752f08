package learning

// Aggregate holds the append-only behaviour counters agents learn from.
type Aggregate struct {
	ItemUseFrequency   map[string]int         `json:"itemUseFrequency"`
	TileItemUsage      map[int]map[string]int `json:"tileItemUsage"`      // tile -> item -> uses
	RoundItemPurchases map[int]map[string]int `json:"roundItemPurchases"` // round -> item -> purchases
	ItemHits           map[string]map[int]int `json:"itemHits"`           // item -> placement rank -> hits
}

func NewAggregate() Aggregate {
	return Aggregate{
		ItemUseFrequency:   map[string]int{},
		TileItemUsage:      map[int]map[string]int{},
		RoundItemPurchases: map[int]map[string]int{},
		ItemHits:           map[string]map[int]int{},
	}
}

// normalize replaces nil maps left by a partial document.
func (a *Aggregate) normalize() {
	if a.ItemUseFrequency == nil {
		a.ItemUseFrequency = map[string]int{}
	}
	if a.TileItemUsage == nil {
		a.TileItemUsage = map[int]map[string]int{}
	}
	if a.RoundItemPurchases == nil {
		a.RoundItemPurchases = map[int]map[string]int{}
	}
	if a.ItemHits == nil {
		a.ItemHits = map[string]map[int]int{}
	}
}

func (a *Aggregate) addUse(item string, tile int) {
	a.ItemUseFrequency[item]++
	inc(a.TileItemUsage, tile, item)
}

func (a *Aggregate) addPurchase(item string, round int) {
	inc(a.RoundItemPurchases, round, item)
}

func (a *Aggregate) addHit(item string, rank int) {
	inc(a.ItemHits, item, rank)
}

func inc[K, V comparable](m map[K]map[V]int, outer K, inner V) {
	add(m, outer, inner, 1)
}

func add[K, V comparable](m map[K]map[V]int, outer K, inner V, n int) {
	row, ok := m[outer]
	if !ok {
		row = map[V]int{}
		m[outer] = row
	}
	row[inner] += n
}

// Copy returns a deep copy safe to hand out of a store.
func (a Aggregate) Copy() Aggregate {
	out := NewAggregate()
	for k, v := range a.ItemUseFrequency {
		out.ItemUseFrequency[k] = v
	}
	copyNested(out.TileItemUsage, a.TileItemUsage)
	copyNested(out.RoundItemPurchases, a.RoundItemPurchases)
	copyNested(out.ItemHits, a.ItemHits)
	return out
}

func copyNested[K, V comparable](dst, src map[K]map[V]int) {
	for k, row := range src {
		r := make(map[V]int, len(row))
		for kk, v := range row {
			r[kk] = v
		}
		dst[k] = r
	}
}

// Store is the persistent learning feedback sink. Every Record call persists
// before returning.
type Store interface {
	RecordItemUsed(item string, tile int) error
	RecordItemPurchased(item string, round int) error
	// RecordItemHit counts an effect that landed on a target standing at the
	// given placement rank.
	RecordItemHit(item string, rank int) error
	Snapshot() Aggregate
	Close() error
}
