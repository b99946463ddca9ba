package domain

// PointsType identifies a spendable point currency.
// The set is open: configs may introduce additional currencies, and unknown
// currencies simply read as a zero balance.
type PointsType string

// Built-in point currencies
const (
	PointsLearning     PointsType = "learning"      // spent to study nodes
	PointsSpecial      PointsType = "special"       // spent to unlock tabs
	PointsResetRecipes PointsType = "reset_recipes" // spent to reset studied nodes
	PointsResetSpecial PointsType = "reset_special" // spent to reset studied tabs
	PointsLevelUp      PointsType = "level_up"      // granted on level up
	PointsReset        PointsType = "reset"         // generic reset currency
)

// BuiltinPointsTypes lists the currencies every new player ledger starts with.
var BuiltinPointsTypes = []PointsType{
	PointsLearning,
	PointsSpecial,
	PointsResetRecipes,
	PointsResetSpecial,
	PointsLevelUp,
	PointsReset,
}

// DisplayName returns a human-readable name for the currency.
func (p PointsType) DisplayName() string {
	switch p {
	case PointsLearning:
		return "learning points"
	case PointsSpecial:
		return "special points"
	case PointsResetRecipes:
		return "recipe reset points"
	case PointsResetSpecial:
		return "special reset points"
	case PointsLevelUp:
		return "level-up points"
	case PointsReset:
		return "reset points"
	default:
		return string(p)
	}
}
