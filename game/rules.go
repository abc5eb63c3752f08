package game

type Rules interface {
	StepPoints(status Status) int
	WinBonus() int
	CrownsToWin() int
	ShopDue(round int) bool
}
