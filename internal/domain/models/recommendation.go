package models

import "time"

// Action is the categorical trade recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// RiskLevel categorizes how much the analysts disagree on direction.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Recommendation is the advisor's single output per analysis request.
// WeightedSignal stays in [-1, 1] and Confidence in [0, 100] for all valid
// inputs; Rationale is a deterministic template, not generated prose.
type Recommendation struct {
	Ticker         string            `json:"ticker"`
	Horizon        string            `json:"horizon,omitempty"`
	WeightedSignal float64           `json:"weighted_signal"`
	Confidence     float64           `json:"confidence"`
	Action         Action            `json:"recommendation"`
	RiskLevel      RiskLevel         `json:"risk_level"`
	Rationale      string            `json:"rationale"`
	Reports        []AnalyzerReport  `json:"reports,omitempty"`
	AgentErrors    map[string]string `json:"agent_errors,omitempty"`
	Timestamp      time.Time         `json:"timestamp,omitempty"`
}
