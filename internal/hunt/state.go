package hunt

type State int

const (
	StateNone State = iota
	StateHuntRoute
	StateHuntDungeon
	StateHuntSafari
	StateFarmDungeonTokens
	StateFarmSafariCurrency
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateHuntRoute:
		return "HuntRoute"
	case StateHuntDungeon:
		return "HuntDungeon"
	case StateHuntSafari:
		return "HuntSafari"
	case StateFarmDungeonTokens:
		return "FarmDungeonTokens"
	case StateFarmSafariCurrency:
		return "FarmSafariCurrency"
	default:
		return "Unknown"
	}
}

func (s State) Farming() bool {
	return s == StateFarmDungeonTokens || s == StateFarmSafariCurrency
}
