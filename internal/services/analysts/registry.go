package analysts

import (
	"fmt"

	"StockCouncil/internal/domain/models"
	"StockCouncil/internal/domain/service"
	"StockCouncil/pkg/config"
)

// FromConfig builds one analyst client per configured endpoint.
// Clients come back in canonical role order so fan-out and logging
// are stable across runs.
func FromConfig(cfg *config.Config) ([]service.Analyst, error) {
	out := make([]service.Analyst, 0, len(cfg.Agents.Endpoints))
	for _, id := range models.AgentIDs() {
		url, ok := cfg.Agents.Endpoints[string(id)]
		if !ok {
			continue
		}
		out = append(out, NewClient(id, url,
			WithTimeout(cfg.Agents.Timeout),
			WithRetryMax(cfg.Agents.RetryMax),
		))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no analyst endpoints configured")
	}

	// Endpoints that don't map to a known role are configuration mistakes.
	for role := range cfg.Agents.Endpoints {
		if !models.AgentID(role).Valid() {
			return nil, fmt.Errorf("unknown analyst role %q in agents.endpoints", role)
		}
	}

	return out, nil
}
