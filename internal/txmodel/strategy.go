package txmodel

// Strategy is the lot-selection policy tagged variant spec.md §3/§9
// calls for: FIFO | LIFO | MaxCost | MinCost. Modeled as a Go enum rather
// than the original_source/optimizer.py reflection-based dispatch
// (`globals()['find_buys_' + method_suffix]`) per spec.md §9's explicit
// redesign instruction.
type Strategy int

const (
	FIFO Strategy = iota
	LIFO
	MaxCost
	MinCost
)

// String renders the strategy using the same lowercase, underscore-free-
// except-for-cost-variants spelling original_source/optimizer.py's
// list_strategies() uses ("fifo", "lifo", "max_cost", "min_cost"), which
// is also the spelling spec.md §6 requires for the JSON strategy-map
// configuration.
func (s Strategy) String() string {
	switch s {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	case MaxCost:
		return "max_cost"
	case MinCost:
		return "min_cost"
	default:
		return "unknown"
	}
}

// ParseStrategy parses the JSON-config spelling of a strategy name back
// into a Strategy, reporting ok=false for anything else.
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "fifo":
		return FIFO, true
	case "lifo":
		return LIFO, true
	case "max_cost":
		return MaxCost, true
	case "min_cost":
		return MinCost, true
	default:
		return 0, false
	}
}

// StrategyNames enumerates the valid strategy spellings, generalized
// from original_source/optimizer.py's list_strategies() (spec.md §13).
func StrategyNames() []string {
	return []string{FIFO.String(), LIFO.String(), MaxCost.String(), MinCost.String()}
}

// StrategyMap is a year -> Strategy configuration (spec.md §3/§6). Years
// strictly earlier than the map's minimum key default to FIFO with a
// warning; a year later than the map's maximum key is a configuration
// error (ErrNoStrategy).
type StrategyMap map[int]Strategy

// MinYear returns the smallest configured year. ok is false for an empty
// map.
func (m StrategyMap) MinYear() (year int, ok bool) {
	first := true
	for y := range m {
		if first || y < year {
			year = y
			first = false
		}
	}
	return year, !first
}

// MaxYear returns the largest configured year. ok is false for an empty
// map.
func (m StrategyMap) MaxYear() (year int, ok bool) {
	first := true
	for y := range m {
		if first || y > year {
			year = y
			first = false
		}
	}
	return year, !first
}

// For resolves the strategy to use for sales occurring in year, per
// spec.md §4.4's strategy_for: a year later than every configured year is
// ErrNoStrategy, a year earlier than every configured year defaults to
// FIFO (the caller is responsible for the one-time warning), and any
// configured year uses its mapped strategy.
func (m StrategyMap) For(year int) (Strategy, error) {
	maxYear, ok := m.MaxYear()
	if !ok {
		return 0, ErrNoStrategy
	}
	if year > maxYear {
		return 0, ErrNoStrategy
	}

	minYear, _ := m.MinYear()
	if year < minYear {
		return FIFO, nil
	}

	strategy, ok := m[year]
	if !ok {
		return FIFO, nil
	}
	return strategy, nil
}
