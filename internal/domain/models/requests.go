package models

// Requests for advisor HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Ticker  string `query:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	Horizon string `query:"horizon" json:"horizon" default:"next_quarter" validate:"oneof=next_week next_month next_quarter next_year"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type HistoryRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
