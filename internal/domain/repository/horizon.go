package repository

// Horizon represents the analysis time horizon requested from the analysts.
type Horizon string

const (
	HorizonWeek    Horizon = "next_week"
	HorizonMonth   Horizon = "next_month"
	HorizonQuarter Horizon = "next_quarter"
	HorizonYear    Horizon = "next_year"
)

// IsValidHorizon returns true if h is a supported horizon.
func IsValidHorizon(h Horizon) bool {
	switch h {
	case HorizonWeek, HorizonMonth, HorizonQuarter, HorizonYear:
		return true
	default:
		return false
	}
}

// DefaultHorizon returns the default analysis horizon.
func DefaultHorizon() Horizon { return HorizonQuarter }

// NormalizeHorizon converts raw string to a valid horizon (or default).
func NormalizeHorizon(s string) Horizon {
	if s == "" {
		return DefaultHorizon()
	}
	h := Horizon(s)
	if IsValidHorizon(h) {
		return h
	}
	return DefaultHorizon()
}
