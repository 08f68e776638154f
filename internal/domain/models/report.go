package models

import "fmt"

// AgentID identifies one of the analyst roles feeding the advisor.
type AgentID string

const (
	AgentFundamental AgentID = "fundamental"
	AgentTechnical   AgentID = "technical"
	AgentSentiment   AgentID = "sentiment"
	AgentMacro       AgentID = "macro"
	AgentRegulatory  AgentID = "regulatory"
)

// agentOrder fixes the canonical ordering of analyst roles. Rationale lines
// and report ordering follow this order regardless of arrival order.
var agentOrder = []AgentID{
	AgentFundamental,
	AgentTechnical,
	AgentSentiment,
	AgentMacro,
	AgentRegulatory,
}

// AgentIDs returns the analyst roles in canonical order.
func AgentIDs() []AgentID {
	out := make([]AgentID, len(agentOrder))
	copy(out, agentOrder)
	return out
}

// Rank returns the position of the agent in canonical order.
// Unknown agents sort after all known ones.
func (id AgentID) Rank() int {
	for i, a := range agentOrder {
		if a == id {
			return i
		}
	}
	return len(agentOrder)
}

// Valid reports whether id is one of the enumerated analyst roles.
func (id AgentID) Valid() bool {
	return id.Rank() < len(agentOrder)
}

// DisplayName returns the human-readable analyst name used in rationale text.
func (id AgentID) DisplayName() string {
	switch id {
	case AgentFundamental:
		return "Fundamental Analyst"
	case AgentTechnical:
		return "Technical Analyst"
	case AgentSentiment:
		return "Sentiment Analyst"
	case AgentMacro:
		return "Macro Analyst"
	case AgentRegulatory:
		return "Regulatory Analyst"
	default:
		return string(id)
	}
}

// Contractual domains for report fields.
const (
	SignalMin     = -1.0
	SignalMax     = 1.0
	ConfidenceMin = 0.0
	ConfidenceMax = 100.0
)

// AnalyzerReport is one analyst's opinion about one ticker. It is immutable
// once handed to the synthesis step; Summary and Metrics are pass-through for
// display and never feed the math.
type AnalyzerReport struct {
	AgentID           AgentID        `json:"agent_id"`
	DirectionalSignal float64        `json:"directional_signal"`
	ConfidenceScore   float64        `json:"confidence_score"`
	Summary           string         `json:"summary,omitempty"`
	Metrics           map[string]any `json:"metrics,omitempty"`
}

// InvalidReportError reports a field outside its contractual domain. It names
// the offending agent and field so the caller can log which upstream analyst
// is misbehaving. Values are never repaired or clamped.
type InvalidReportError struct {
	Agent AgentID
	Field string
	Value float64
}

func (e *InvalidReportError) Error() string {
	if e.Field == "agent_id" {
		return fmt.Sprintf("invalid report: unknown agent id %q", e.Agent)
	}
	return fmt.Sprintf("invalid report from %q: %s=%v out of range", e.Agent, e.Field, e.Value)
}

// Validate checks the report against its declared domains. The returned error,
// if any, is *InvalidReportError.
func (r *AnalyzerReport) Validate() error {
	if !r.AgentID.Valid() {
		return &InvalidReportError{Agent: r.AgentID, Field: "agent_id"}
	}
	if r.DirectionalSignal < SignalMin || r.DirectionalSignal > SignalMax {
		return &InvalidReportError{Agent: r.AgentID, Field: "directional_signal", Value: r.DirectionalSignal}
	}
	if r.ConfidenceScore < ConfidenceMin || r.ConfidenceScore > ConfidenceMax {
		return &InvalidReportError{Agent: r.AgentID, Field: "confidence_score", Value: r.ConfidenceScore}
	}
	return nil
}
