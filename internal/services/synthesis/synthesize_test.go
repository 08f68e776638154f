package synthesis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"StockCouncil/internal/domain/models"
)

func report(id models.AgentID, signal, confidence float64) models.AnalyzerReport {
	return models.AnalyzerReport{AgentID: id, DirectionalSignal: signal, ConfidenceScore: confidence}
}

func fiveReports() []models.AnalyzerReport {
	return []models.AnalyzerReport{
		report(models.AgentFundamental, 0.40, 78),
		report(models.AgentTechnical, 0.24, 57),
		report(models.AgentSentiment, 0.47, 65),
		report(models.AgentMacro, 0.30, 72),
		report(models.AgentRegulatory, 0.00, 58),
	}
}

func TestSynthesizeDeterminism(t *testing.T) {
	first, err := Synthesize("GOOGL", fiveReports())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Synthesize("GOOGL", fiveReports())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different outputs:\n%+v\n%+v", first, second)
	}
}

func TestSynthesizeOrderIndependence(t *testing.T) {
	base, err := Synthesize("GOOGL", fiveReports())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Reverse and a mid-shuffle permutation must match bit-for-bit.
	perms := [][]int{
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
	}
	for _, perm := range perms {
		in := fiveReports()
		shuffled := make([]models.AnalyzerReport, len(in))
		for i, j := range perm {
			shuffled[i] = in[j]
		}
		got, err := Synthesize("GOOGL", shuffled)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(base, got) {
			t.Fatalf("permutation %v changed output:\n%+v\n%+v", perm, base, got)
		}
	}
}

func TestSynthesizeRangeInvariants(t *testing.T) {
	cases := [][]models.AnalyzerReport{
		fiveReports(),
		{report(models.AgentFundamental, 1.0, 100), report(models.AgentTechnical, 1.0, 100)},
		{report(models.AgentFundamental, -1.0, 100), report(models.AgentTechnical, -1.0, 0.5)},
		{report(models.AgentSentiment, 0, 0)},
	}
	for i, reports := range cases {
		rec, err := Synthesize("TEST", reports)
		if err != nil {
			t.Fatalf("case %d: unexpected error: %v", i, err)
		}
		if rec.WeightedSignal < models.SignalMin || rec.WeightedSignal > models.SignalMax {
			t.Fatalf("case %d: weighted signal %v out of range", i, rec.WeightedSignal)
		}
		if rec.Confidence < models.ConfidenceMin || rec.Confidence > models.ConfidenceMax {
			t.Fatalf("case %d: confidence %v out of range", i, rec.Confidence)
		}
	}
}

func TestActionThresholdBoundaries(t *testing.T) {
	cases := []struct {
		signal float64
		want   models.Action
	}{
		{0.15, models.ActionHold},      // boundary is exclusive
		{0.150001, models.ActionBuy},   // just above the dead band
		{-0.15, models.ActionHold},     // symmetric boundary
		{-0.150001, models.ActionSell}, // just below the dead band
		{0.16, models.ActionBuy},
		{0, models.ActionHold},
	}
	for _, tc := range cases {
		rec, err := Synthesize("TEST", []models.AnalyzerReport{report(models.AgentTechnical, tc.signal, 50)})
		if err != nil {
			t.Fatalf("signal %v: unexpected error: %v", tc.signal, err)
		}
		if rec.Action != tc.want {
			t.Fatalf("signal %v: got %s, want %s", tc.signal, rec.Action, tc.want)
		}
	}
}

func TestZeroConfidenceFallback(t *testing.T) {
	rec, err := Synthesize("TEST", []models.AnalyzerReport{
		report(models.AgentFundamental, 0.6, 0),
		report(models.AgentTechnical, -0.2, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(rec.WeightedSignal) || math.IsInf(rec.WeightedSignal, 0) {
		t.Fatalf("zero-confidence input produced %v", rec.WeightedSignal)
	}
	if math.Abs(rec.WeightedSignal-0.2) > 1e-12 {
		t.Fatalf("expected unweighted mean 0.2, got %v", rec.WeightedSignal)
	}
	if rec.Confidence != 0 {
		t.Fatalf("expected zero aggregate confidence, got %v", rec.Confidence)
	}
}

func TestEmptyInputFails(t *testing.T) {
	_, err := Synthesize("TEST", nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	_, err = Synthesize("TEST", []models.AnalyzerReport{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestInvalidReportFails(t *testing.T) {
	cases := []struct {
		name    string
		reports []models.AnalyzerReport
		agent   models.AgentID
		field   string
	}{
		{
			name: "signal above range",
			reports: []models.AnalyzerReport{
				report(models.AgentFundamental, 0.2, 60),
				report(models.AgentSentiment, 1.5, 60),
			},
			agent: models.AgentSentiment,
			field: "directional_signal",
		},
		{
			name:    "signal below range",
			reports: []models.AnalyzerReport{report(models.AgentMacro, -1.01, 60)},
			agent:   models.AgentMacro,
			field:   "directional_signal",
		},
		{
			name:    "confidence above range",
			reports: []models.AnalyzerReport{report(models.AgentTechnical, 0.5, 100.5)},
			agent:   models.AgentTechnical,
			field:   "confidence_score",
		},
		{
			name:    "confidence negative",
			reports: []models.AnalyzerReport{report(models.AgentRegulatory, 0.5, -1)},
			agent:   models.AgentRegulatory,
			field:   "confidence_score",
		},
		{
			name:    "unknown agent",
			reports: []models.AnalyzerReport{report("astrology", 0.5, 50)},
			agent:   "astrology",
			field:   "agent_id",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Synthesize("TEST", tc.reports)
			var ire *models.InvalidReportError
			if !errors.As(err, &ire) {
				t.Fatalf("expected InvalidReportError, got %v", err)
			}
			if ire.Agent != tc.agent || ire.Field != tc.field {
				t.Fatalf("got agent=%q field=%q, want agent=%q field=%q", ire.Agent, ire.Field, tc.agent, tc.field)
			}
		})
	}
}

func TestRiskFromDisagreementNotConfidence(t *testing.T) {
	// Uniformly high confidence, sharply disagreeing direction.
	rec, err := Synthesize("TEST", []models.AnalyzerReport{
		report(models.AgentFundamental, 0.9, 90),
		report(models.AgentTechnical, -0.9, 90),
		report(models.AgentSentiment, 0.9, 90),
		report(models.AgentMacro, -0.9, 90),
		report(models.AgentRegulatory, 0.0, 90),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RiskLevel != models.RiskHigh {
		t.Fatalf("expected HIGH risk from disagreement, got %s", rec.RiskLevel)
	}
	if rec.Confidence != 90 {
		t.Fatalf("expected confidence 90, got %v", rec.Confidence)
	}
}

func TestFullBoardScenario(t *testing.T) {
	rec, err := Synthesize("GOOGL", fiveReports())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Confidence-weighted mean: (0.40*78 + 0.24*57 + 0.47*65 + 0.30*72 + 0*58) / 330
	wantSignal := (0.40*78 + 0.24*57 + 0.47*65 + 0.30*72) / 330
	if math.Abs(rec.WeightedSignal-wantSignal) > 1e-12 {
		t.Fatalf("weighted signal %v, want %v", rec.WeightedSignal, wantSignal)
	}
	if rec.Confidence != 66.0 {
		t.Fatalf("confidence %v, want 66.0", rec.Confidence)
	}
	if rec.Action != models.ActionBuy {
		t.Fatalf("action %s, want BUY", rec.Action)
	}
	if rec.RiskLevel != models.RiskLow {
		t.Fatalf("risk %s, want LOW", rec.RiskLevel)
	}
	if rec.Ticker != "GOOGL" {
		t.Fatalf("ticker %q not passed through", rec.Ticker)
	}
}

func TestSingleReportScenario(t *testing.T) {
	rec, err := Synthesize("TSLA", []models.AnalyzerReport{report(models.AgentTechnical, -0.5, 80)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.WeightedSignal != -0.5 {
		t.Fatalf("weighted signal %v, want -0.5", rec.WeightedSignal)
	}
	if rec.Confidence != 80.0 {
		t.Fatalf("confidence %v, want 80.0", rec.Confidence)
	}
	if rec.Action != models.ActionSell {
		t.Fatalf("action %s, want SELL", rec.Action)
	}
	// Variance of a singleton is zero.
	if rec.RiskLevel != models.RiskLow {
		t.Fatalf("risk %s, want LOW", rec.RiskLevel)
	}
}

func TestJustAboveDeadBandScenario(t *testing.T) {
	rec, err := Synthesize("AMZN", []models.AnalyzerReport{report(models.AgentFundamental, 0.16, 50)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Action != models.ActionBuy {
		t.Fatalf("action %s, want BUY just above the dead band", rec.Action)
	}
}
