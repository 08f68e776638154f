package synthesis

import (
	"fmt"
	"strings"

	"StockCouncil/internal/domain/models"
)

// buildRationale renders the deterministic explanation text: one line per
// report in canonical order, then two summary lines. The per-report stance
// label uses the same dead band as the overall recommendation. Fixed inputs
// must produce this string byte-for-byte, so formatting rules never vary.
func buildRationale(ordered []models.AnalyzerReport, weighted, confidence float64) string {
	var b strings.Builder
	for _, r := range ordered {
		fmt.Fprintf(&b, "%s: %s (signal: %+.2f, confidence: %.1f%%)\n",
			r.AgentID.DisplayName(), stanceLabel(r.DirectionalSignal), r.DirectionalSignal, r.ConfidenceScore)
	}
	fmt.Fprintf(&b, "Weighted signal: %.3f\n", weighted)
	fmt.Fprintf(&b, "Aggregate confidence: %.1f%%", confidence)
	return b.String()
}

func stanceLabel(signal float64) string {
	switch {
	case signal > SignalDeadBand:
		return "bullish"
	case signal < -SignalDeadBand:
		return "bearish"
	default:
		return "neutral"
	}
}
