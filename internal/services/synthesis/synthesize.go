package synthesis

import (
	"sort"

	"StockCouncil/internal/domain/models"
)

// Tunable constants for categorization. Tests assert exact boundary behavior,
// so these must stay single named constants rather than inline literals.
const (
	// SignalDeadBand is the neutral zone around zero: a weighted signal must
	// strictly exceed +SignalDeadBand for BUY (strictly fall below the negative
	// for SELL). The dead band avoids flip-flopping on noise-level signals.
	SignalDeadBand = 0.15

	// Variance bands mapping signal dispersion to risk.
	RiskLowVarianceMax    = 0.05
	RiskMediumVarianceMax = 0.15
)

// Synthesize deterministically reduces a non-empty set of analyst reports into
// one recommendation. It is a pure function: no I/O, no shared state, safe for
// concurrent use. Given the same multiset of reports it returns bit-identical
// numeric results regardless of input order.
//
// Invalid inputs fail fast: ErrEmptyInput for zero reports,
// *models.InvalidReportError for any out-of-range field.
func Synthesize(ticker string, reports []models.AnalyzerReport) (models.Recommendation, error) {
	if len(reports) == 0 {
		return models.Recommendation{}, ErrEmptyInput
	}
	for i := range reports {
		if err := reports[i].Validate(); err != nil {
			return models.Recommendation{}, err
		}
	}

	ordered := canonicalOrder(reports)

	var weightedSum, weightSum, confSum float64
	for _, r := range ordered {
		weightedSum += r.DirectionalSignal * r.ConfidenceScore
		weightSum += r.ConfidenceScore
		confSum += r.ConfidenceScore
	}

	n := float64(len(ordered))
	var weighted float64
	if weightSum == 0 {
		// All analysts reported zero confidence: the weighting degenerates,
		// so fall back to the plain mean instead of dividing by zero.
		var sum float64
		for _, r := range ordered {
			sum += r.DirectionalSignal
		}
		weighted = sum / n
	} else {
		weighted = weightedSum / weightSum
	}

	confidence := confSum / n
	variance := signalVariance(ordered)

	return models.Recommendation{
		Ticker:         ticker,
		WeightedSignal: weighted,
		Confidence:     confidence,
		Action:         actionFor(weighted),
		RiskLevel:      riskFor(variance),
		Rationale:      buildRationale(ordered, weighted, confidence),
		Reports:        ordered,
	}, nil
}

// canonicalOrder returns a copy of reports sorted by agent enumeration order
// (then signal, then confidence, so duplicates of an agent also land in a fixed
// order). Summing in canonical order is what makes the float results invariant
// under input permutation.
func canonicalOrder(reports []models.AnalyzerReport) []models.AnalyzerReport {
	out := make([]models.AnalyzerReport, len(reports))
	copy(out, reports)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i], out[j]
		if ri.AgentID.Rank() != rj.AgentID.Rank() {
			return ri.AgentID.Rank() < rj.AgentID.Rank()
		}
		if ri.DirectionalSignal != rj.DirectionalSignal {
			return ri.DirectionalSignal < rj.DirectionalSignal
		}
		return ri.ConfidenceScore < rj.ConfidenceScore
	})
	return out
}

// signalVariance computes the population variance of the directional signals.
// Dispersion is deliberately decoupled from confidence: analysts can be
// individually confident yet disagree sharply, and that disagreement is risk.
func signalVariance(reports []models.AnalyzerReport) float64 {
	n := float64(len(reports))
	var sum float64
	for _, r := range reports {
		sum += r.DirectionalSignal
	}
	mean := sum / n
	var sq float64
	for _, r := range reports {
		d := r.DirectionalSignal - mean
		sq += d * d
	}
	return sq / n
}

func actionFor(weighted float64) models.Action {
	switch {
	case weighted > SignalDeadBand:
		return models.ActionBuy
	case weighted < -SignalDeadBand:
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

func riskFor(variance float64) models.RiskLevel {
	switch {
	case variance < RiskLowVarianceMax:
		return models.RiskLow
	case variance < RiskMediumVarianceMax:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
