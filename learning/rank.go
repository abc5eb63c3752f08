package learning

import "math/rand/v2"

// Score is the learned preference for buying item while standing on tile in
// the given round.
func Score(agg Aggregate, item string, tile, round int) int {
	return agg.TileItemUsage[tile][item] + agg.RoundItemPurchases[round][item]
}

// RankPurchase picks the candidate with the highest score. Candidates must be
// in catalog order, which breaks ties. When every candidate scores zero the
// pick is uniformly random. It returns false when there is nothing to choose.
func RankPurchase(agg Aggregate, candidates []string, tile, round int, rng *rand.Rand) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	best, bestScore := "", 0
	for _, name := range candidates {
		if s := Score(agg, name, tile, round); s > bestScore {
			best, bestScore = name, s
		}
	}
	if bestScore > 0 {
		return best, true
	}

	if rng == nil {
		return candidates[rand.IntN(len(candidates))], true
	}
	return candidates[rng.IntN(len(candidates))], true
}
