package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"StockCouncil/internal/domain/models"
	icache "StockCouncil/internal/service/cache"
	svcmetrics "StockCouncil/internal/service/metrics"
	"StockCouncil/internal/service/ratelimit"
	"StockCouncil/internal/usecase"
	xhttp "StockCouncil/pkg/http"
	applogger "StockCouncil/pkg/logger"
	"StockCouncil/pkg/util"

	"github.com/labstack/echo/v4"
)

// AdvisorEchoHandler exposes the recommendation API over Echo.
type AdvisorEchoHandler struct {
	logger  *applogger.Logger
	advisor *usecase.AdvisorUseCase
	history *usecase.HistoryUseCase
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewAdvisorEchoHandler(logger *applogger.Logger, advisor *usecase.AdvisorUseCase, history *usecase.HistoryUseCase) *AdvisorEchoHandler {
	svcmetrics.Register()
	return &AdvisorEchoHandler{
		logger:  logger,
		advisor: advisor,
		history: history,
		rl:      ratelimit.New(),
	}
}

// SetCache enables short-lived response caching for history queries.
func (h *AdvisorEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *AdvisorEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/agents", h.Agents)
	e.GET("/healthz", h.Health)
}

// Analyze runs the analyst board for a ticker and returns the verdict.
func (h *AdvisorEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// Analyst fan-out is expensive so cap per-client throughput.
	if !h.rl.Allow(c.RealIP()+":analyze", 5, 1) {
		h.logger.Warn("analyze rate_limited", applogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	rec, err := h.advisor.Advise(c.Request().Context(), usecase.AdviseParams{
		Ticker:  req.Ticker,
		Horizon: req.Horizon,
		Refresh: req.Refresh,
	})
	if err != nil {
		h.logger.Error("analyze usecase error", applogger.Error(err), applogger.String("ticker", req.Ticker))
		return xhttp.AppErrorResponse(c, upstreamError(err))
	}
	return xhttp.SuccessResponse(c, rec)
}

// Recommendations returns the stored history for a ticker.
func (h *AdvisorEchoHandler) Recommendations(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	from := util.ParseTimeDefault(req.From, time.Time{})
	to := util.ParseTimeDefault(req.To, time.Time{})

	cacheKey := fmt.Sprintf("history:%s:%s:%s:%d", req.Ticker, req.From, req.To, req.Limit)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("history cache_get_error", applogger.Error(err))
		} else if ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		Ticker: req.Ticker,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("history usecase error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(xhttp.APIResponse{
			Status:  http.StatusOK,
			Message: http.StatusText(http.StatusOK),
			Data:    res,
		}); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil {
				h.logger.Warn("history cache_set_error", applogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

type agentStatus struct {
	Agent       string `json:"agent"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Agents reports the configured analyst board and reachability.
func (h *AdvisorEchoHandler) Agents(c echo.Context) error {
	down := h.advisor.PingAnalysts(c.Request().Context())

	out := make([]agentStatus, 0, 8)
	for _, id := range h.advisor.Analysts() {
		st := agentStatus{
			Agent:       string(id),
			DisplayName: id.DisplayName(),
			Status:      "up",
		}
		if msg, bad := down[string(id)]; bad {
			st.Status = "down"
			st.Error = msg
		}
		out = append(out, st)
	}
	return xhttp.SuccessResponse(c, out)
}

// Health is a liveness probe.
func (h *AdvisorEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// upstreamError maps domain failures onto HTTP statuses. Analyst and
// synthesis failures are upstream problems, not ours.
func upstreamError(err error) error {
	var invalid *models.InvalidReportError
	if errors.As(err, &invalid) {
		return xhttp.NewAppError("ERR_BAD_AGENT_REPORT", invalid.Field, invalid.Error(), http.StatusBadGateway).
			WithError(err).
			WithParam("agent", string(invalid.Agent))
	}
	return xhttp.NewAppError("ERR_UPSTREAM", "", err.Error(), http.StatusBadGateway).WithError(err)
}
