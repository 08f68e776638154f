package analysts

import (
	"context"
	"fmt"
	"time"

	"StockCouncil/internal/domain/models"
	svcmetrics "StockCouncil/internal/service/metrics"
	xhttp "StockCouncil/pkg/http"
)

// Client is an HTTP client for a single remote analyst agent.
// Each agent exposes POST /analyze and GET /.well-known/agent-card.json.
type Client struct {
	agentID  models.AgentID
	baseURL  string
	retryMax int
	client   *xhttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout for the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client = xhttp.NewClient(xhttp.WithTimeout(timeout))
	}
}

// WithRetryMax sets the maximum number of attempts for Analyze calls.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.retryMax = n
	}
}

// NewClient creates an analyst client for the given agent and base URL.
func NewClient(agentID models.AgentID, baseURL string, opts ...Option) *Client {
	c := &Client{
		agentID:  agentID,
		baseURL:  baseURL,
		retryMax: 1,
		client:   xhttp.NewClient(xhttp.WithTimeout(30 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the analyst role this client speaks for.
func (c *Client) ID() models.AgentID {
	return c.agentID
}

type analyzeRequest struct {
	Ticker  string `json:"ticker"`
	Horizon string `json:"horizon"`
}

type analyzeResponse struct {
	DirectionalSignal float64                `json:"directional_signal"`
	ConfidenceScore   float64                `json:"confidence_score"`
	Summary           string                 `json:"summary"`
	Metrics           map[string]interface{} `json:"metrics"`
}

// Analyze asks the remote agent for a report on ticker over horizon.
// The response is validated at the boundary so malformed agent output
// never reaches synthesis.
func (c *Client) Analyze(ctx context.Context, ticker, horizon string) (models.AnalyzerReport, error) {
	start := time.Now()
	var resp analyzeResponse
	err := c.postJSONWithRetry(ctx, "/analyze", &analyzeRequest{Ticker: ticker, Horizon: horizon}, &resp)
	svcmetrics.AnalystLatency.WithLabelValues(string(c.agentID)).Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.AnalystErrors.WithLabelValues(string(c.agentID)).Inc()
		return models.AnalyzerReport{}, fmt.Errorf("analyst %s: %w", c.agentID, err)
	}

	report := models.AnalyzerReport{
		AgentID:           c.agentID,
		DirectionalSignal: resp.DirectionalSignal,
		ConfidenceScore:   resp.ConfidenceScore,
		Summary:           resp.Summary,
		Metrics:           resp.Metrics,
	}
	if err := report.Validate(); err != nil {
		svcmetrics.AnalystErrors.WithLabelValues(string(c.agentID)).Inc()
		return models.AnalyzerReport{}, fmt.Errorf("analyst %s: %w", c.agentID, err)
	}

	return report, nil
}

// agentCard is the discovery document served by every agent.
type agentCard struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Ping fetches the agent card to verify the agent is reachable and sane.
func (c *Client) Ping(ctx context.Context) error {
	var card agentCard
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/.well-known/agent-card.json",
	}, &card)
	if err != nil {
		return fmt.Errorf("analyst %s: agent card: %w", c.agentID, err)
	}
	if card.Name == "" {
		return fmt.Errorf("analyst %s: agent card has no name", c.agentID)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSONWithRetry(ctx context.Context, path string, payload, dest interface{}) error {
	if c.retryMax <= 1 {
		return c.postJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= c.retryMax; i++ {
		err = c.postJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
