package presets

// Call budgets of the layout search per optimization level. They stand in for
// wall clock limits of roughly 0.1s, 10s and 60s, counted in search calls so
// results are reproducible.
const (
	Level1CallLimit = 50_000
	Level2CallLimit = 5_000_000
	Level3CallLimit = 30_000_000
)

// CallBudget returns the layout search call budget for an optimization level.
// It is nil, meaning no search is run, when a layout method or an initial
// layout was given, or for any level other than 1, 2 or 3.
func CallBudget(level int, layoutMethod string, initialLayout []int) *int {
	if layoutMethod != "" || initialLayout != nil {
		return nil
	}
	var limit int
	switch level {
	case 1:
		limit = Level1CallLimit
	case 2:
		limit = Level2CallLimit
	case 3:
		limit = Level3CallLimit
	default:
		return nil
	}
	return &limit
}
