package learning

import (
	"encoding/json"
	"io"
	"sort"
)

type pair struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

type tileEntry struct {
	Tile  int    `json:"tile"`
	Items []pair `json:"items"`
}

type roundEntry struct {
	Round int    `json:"round"`
	Items []pair `json:"items"`
}

type hitEntry struct {
	Item  string `json:"item"`
	Rank  int    `json:"rank"`
	Count int    `json:"count"`
}

// TrainingData is the list-shaped document the external oracle trains on.
type TrainingData struct {
	RoundItemPurchasesList []roundEntry `json:"roundItemPurchasesList"`
	ItemUseFrequencyList   []pair       `json:"itemUseFrequencyList"`
	TileItemUsageList      []tileEntry  `json:"tileItemUsageList"`
	ItemHitEvents          []hitEntry   `json:"itemHitEvents"`
}

// Flatten converts the aggregate into sorted lists so exports are stable.
func Flatten(agg Aggregate) TrainingData {
	td := TrainingData{
		RoundItemPurchasesList: []roundEntry{},
		ItemUseFrequencyList:   pairs(agg.ItemUseFrequency),
		TileItemUsageList:      []tileEntry{},
		ItemHitEvents:          []hitEntry{},
	}
	for _, round := range sortedKeys(agg.RoundItemPurchases) {
		td.RoundItemPurchasesList = append(td.RoundItemPurchasesList, roundEntry{Round: round, Items: pairs(agg.RoundItemPurchases[round])})
	}
	for _, tile := range sortedKeys(agg.TileItemUsage) {
		td.TileItemUsageList = append(td.TileItemUsageList, tileEntry{Tile: tile, Items: pairs(agg.TileItemUsage[tile])})
	}

	items := make([]string, 0, len(agg.ItemHits))
	for item := range agg.ItemHits {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		ranks := agg.ItemHits[item]
		keys := make([]int, 0, len(ranks))
		for r := range ranks {
			keys = append(keys, r)
		}
		sort.Ints(keys)
		for _, r := range keys {
			td.ItemHitEvents = append(td.ItemHitEvents, hitEntry{Item: item, Rank: r, Count: ranks[r]})
		}
	}
	return td
}

// Export writes the training document as indented JSON.
func Export(w io.Writer, agg Aggregate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Flatten(agg))
}

func pairs(m map[string]int) []pair {
	out := make([]pair, 0, len(m))
	for k, v := range m {
		out = append(out, pair{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sortedKeys(m map[int]map[string]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
