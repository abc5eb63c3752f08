package game

import "ladders/meta"

type StandardRules struct {
	BasePoints      int
	MultiplierBonus int
	Bonus           int
	Crowns          int
	ShopEvery       int
}

func NewStandardRules() *StandardRules {
	return &StandardRules{
		BasePoints:      meta.STEP_POINTS,
		MultiplierBonus: meta.MULTIPLIER_BONUS,
		Bonus:           meta.WIN_BONUS,
		Crowns:          meta.CROWNS_TO_WIN,
		ShopEvery:       meta.SHOP_EVERY_ROUNDS,
	}
}

func (sr *StandardRules) StepPoints(status Status) int {
	if status == PointsMultiplier {
		return sr.BasePoints + sr.MultiplierBonus
	}
	return sr.BasePoints
}

func (sr *StandardRules) WinBonus() int {
	return sr.Bonus
}

func (sr *StandardRules) CrownsToWin() int {
	return sr.Crowns
}

func (sr *StandardRules) ShopDue(round int) bool {
	return sr.ShopEvery > 0 && round > 0 && round%sr.ShopEvery == 0
}
