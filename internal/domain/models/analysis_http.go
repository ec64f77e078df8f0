package models

// Requests for analysis HTTP endpoints.

type AnalysisRequest struct {
	Symbol string `param:"symbol" validate:"required"`
	Mode   string `query:"mode" json:"mode" default:"full" validate:"oneof=quick full"`
}

type BatchAnalysisRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=100,dive,required"`
	Mode    string   `json:"mode" default:"full" validate:"oneof=quick full"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type RefreshHTTPRequest struct {
	Symbol string `param:"symbol" validate:"required"`
	Mode   string `json:"mode" validate:"omitempty,oneof=quick full"`
}

type BacktestRequest struct {
	Symbol   string  `param:"symbol" validate:"required"`
	Strategy string  `query:"strategy" json:"strategy" default:"dual_momentum" validate:"oneof=dual_momentum mean_reversion trend_following breakout"`
	Capital  float64 `query:"capital" json:"capital" default:"10000" validate:"gt=0,lte=1000000000"`
}

type SymbolSearchRequest struct {
	Query string `query:"q" validate:"required,min=2,max=64"`
	Limit int    `query:"limit" default:"5" validate:"gte=1,lte=25"`
}

type SymbolResolveRequest struct {
	Query string `query:"q" validate:"required,max=64"`
}
