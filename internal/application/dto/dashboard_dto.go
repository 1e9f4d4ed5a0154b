package dto

import "github.com/shopspring/decimal"

func init() {
	// Los montos del dashboard viajan como números JSON, no como strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DashboardRequest query params de GET /api/dashboard.
type DashboardRequest struct {
	DateFrom     string `query:"dateFrom"`
	DateTo       string `query:"dateTo"`
	PipelineType string `query:"pipelineType"` // aceptado, no altera el cálculo
}

// DashboardDTO respuesta de GET /api/dashboard. Los nombres de campo los consume el frontend.
type DashboardDTO struct {
	Scope         ScopeDTO               `json:"scope"`
	Kpis          KpisDTO                `json:"kpis"`
	Funnel        []FunnelItemDTO        `json:"funnel"`
	ForecastByRep []ForecastItemDTO      `json:"forecastByRep"`
	ForecastPivot ForecastPivotDTO       `json:"forecastPivot"`
	StalledDeals  []StalledDealDetailDTO `json:"stalledDeals"`
}

// ScopeDTO quién pide el reporte.
type ScopeDTO struct {
	Role       string `json:"role"`
	UserID     int64  `json:"userId"`
	UserName   string `json:"userName"`
	RegionID   *int64 `json:"regionId,omitempty"`
	RegionName string `json:"regionName,omitempty"`
}

// KpisDTO indicadores principales.
type KpisDTO struct {
	RevenueWon        decimal.Decimal `json:"revenueWon"`
	PipelineOpen      decimal.Decimal `json:"pipelineOpen"`
	OpenDealsCount    int             `json:"openDealsCount"`
	WinRate           float64         `json:"winRate"`           // 0..100
	AvgSalesCycleDays float64         `json:"avgSalesCycleDays"` // sobre las ganadas del período
	StalledDealsCount int             `json:"stalledDealsCount"`
}

// FunnelItemDTO una etapa del embudo.
type FunnelItemDTO struct {
	StageKey   string          `json:"stageKey"`
	StageLabel string          `json:"stageLabel"`
	Count      int             `json:"count"`
	Amount     decimal.Decimal `json:"amount"`
}

// ForecastItemDTO fila del forecast por vendedor.
type ForecastItemDTO struct {
	Label           string          `json:"label"`
	InProgressValue decimal.Decimal `json:"inProgressValue"`
	StalledValue    decimal.Decimal `json:"stalledValue"`
}

// ForecastPivotDTO tabla pivote; Mode es "RegionStage" o "StageSummary".
type ForecastPivotDTO struct {
	Mode string             `json:"mode"`
	Rows []ForecastPivotRow `json:"rows"`
}

// ForecastPivotRow fila del pivote: columna → valor (monto o conteo).
type ForecastPivotRow struct {
	RowLabel string                     `json:"rowLabel"`
	Columns  map[string]decimal.Decimal `json:"columns"`
}

// StalledDealDetailDTO oportunidad estancada.
type StalledDealDetailDTO struct {
	ID              int64           `json:"id"`
	OpportunityName string          `json:"opportunityName"`
	AccountName     string          `json:"accountName"`
	StageLabel      string          `json:"stageLabel"`
	Value           decimal.Decimal `json:"value"`
	DaysInStage     int             `json:"daysInStage"`
	OwnerName       string          `json:"ownerName"`
}
