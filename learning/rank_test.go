package learning

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankPurchase(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("sums tile usage and round purchases", func(t *testing.T) {
		agg := NewAggregate()
		agg.TileItemUsage[10] = map[string]int{"Shield": 2, "Bomb": 1}
		agg.RoundItemPurchases[4] = map[string]int{"Bomb": 3}

		choice, ok := RankPurchase(agg, []string{"Shield", "Bomb"}, 10, 4, rng)
		require.True(t, ok)
		require.Equal(t, "Bomb", choice, "Bomb scores 1+3 against Shield's 2")
	})

	t.Run("ties go to catalog order", func(t *testing.T) {
		agg := NewAggregate()
		agg.TileItemUsage[5] = map[string]int{"Shield": 1, "Bomb": 1}

		choice, _ := RankPurchase(agg, []string{"Shield", "Bomb"}, 5, 1, rng)
		require.Equal(t, "Shield", choice)
		choice, _ = RankPurchase(agg, []string{"Bomb", "Shield"}, 5, 1, rng)
		require.Equal(t, "Bomb", choice)
	})

	t.Run("all zero picks a candidate at random", func(t *testing.T) {
		candidates := []string{"A", "B", "C"}
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			choice, ok := RankPurchase(NewAggregate(), candidates, 1, 1, rng)
			require.True(t, ok)
			require.Contains(t, candidates, choice)
			seen[choice] = true
		}
		require.Len(t, seen, 3, "Every candidate should eventually be picked")
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := RankPurchase(NewAggregate(), nil, 1, 1, rng)
		require.False(t, ok)
	})
}

func TestExport(t *testing.T) {
	agg := NewAggregate()
	agg.addUse("Shield", 7)
	agg.addUse("Bomb", 7)
	agg.addPurchase("Bomb", 2)
	agg.addHit("Bomb", 3)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, agg))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.ElementsMatch(t, []string{"roundItemPurchasesList", "itemUseFrequencyList", "tileItemUsageList", "itemHitEvents"}, keys(doc))

	td := Flatten(agg)
	require.Equal(t, []pair{{"Bomb", 1}, {"Shield", 1}}, td.ItemUseFrequencyList, "Pairs should be sorted by key")
	require.Equal(t, []tileEntry{{Tile: 7, Items: []pair{{"Bomb", 1}, {"Shield", 1}}}}, td.TileItemUsageList)
	require.Equal(t, []roundEntry{{Round: 2, Items: []pair{{"Bomb", 1}}}}, td.RoundItemPurchasesList)
	require.Equal(t, []hitEntry{{Item: "Bomb", Rank: 3, Count: 1}}, td.ItemHitEvents)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
