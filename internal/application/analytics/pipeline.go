package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

const (
	// StalledThresholdDays días sin actualización para considerar un negocio estancado.
	StalledThresholdDays = 21
	// DefaultWindowDays ventana del reporte cuando no se envía dateFrom.
	DefaultWindowDays = 30

	stalledTableLimit = 10
	unknownLabel      = "Unknown"
	myPipelineLabel   = "My Pipeline"

	PivotModeRegionStage  = "RegionStage"
	PivotModeStageSummary = "StageSummary"
	pivotColTotalAmount   = "TotalAmount"
	pivotColCount         = "Count"
)

var (
	hundred   = decimal.NewFromInt(100)
	lowerCase = cases.Lower(language.Und)
)

// Window período del reporte, ambos extremos inclusivos.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains indica si t cae dentro del período.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// PipelineReport secciones calculadas del dashboard (sin el bloque scope).
type PipelineReport struct {
	Kpis          dto.KpisDTO
	Funnel        []dto.FunnelItemDTO
	ForecastByRep []dto.ForecastItemDTO
	ForecastPivot dto.ForecastPivotDTO
	StalledDeals  []dto.StalledDealDetailDTO
}

// StageKey clave normalizada de una etapa: minúsculas y sin espacios ("Closed Won" → "closedwon").
func StageKey(stage string) string {
	return lowerCase.String(strings.ReplaceAll(stage, " ", ""))
}

// IsStalled negocio abierto sin actualizaciones en los últimos StalledThresholdDays días.
func IsStalled(o *entity.Opportunity, now time.Time) bool {
	return o.IsOpen() && o.UpdatedAt.Before(stalledCutoff(now))
}

func stalledCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -StalledThresholdDays)
}

// BuildPipelineReport agrega las oportunidades ya filtradas por alcance.
//
//   - revenueWon y winRate usan la ventana (closeDate para ganadas, lostAt para perdidas).
//   - pipelineOpen, funnel, forecast y estancados son una foto del pipeline abierto, sin ventana.
//
// Sin oportunidades devuelve todas las secciones en cero y listas vacías.
func BuildPipelineReport(opps []*entity.Opportunity, w Window, now time.Time, role entity.Role) PipelineReport {
	var won, open, stalled []*entity.Opportunity
	lostCount := 0
	for _, o := range opps {
		switch {
		case entity.IsWonStage(o.Stage):
			if w.Contains(o.CloseDate) {
				won = append(won, o)
			}
		case entity.IsLostStage(o.Stage):
			if o.LostAt != nil && w.Contains(*o.LostAt) {
				lostCount++
			}
		default:
			open = append(open, o)
			if IsStalled(o, now) {
				stalled = append(stalled, o)
			}
		}
	}

	return PipelineReport{
		Kpis:          buildKpis(won, lostCount, open, stalled),
		Funnel:        buildFunnel(open),
		ForecastByRep: buildForecastByRep(open, now, role),
		ForecastPivot: buildPivot(open, role),
		StalledDeals:  buildStalledTable(stalled, now),
	}
}

// ── KPIs ─────────────────────────────────────────────────────────────────────

func buildKpis(won []*entity.Opportunity, lostCount int, open, stalled []*entity.Opportunity) dto.KpisDTO {
	k := dto.KpisDTO{
		RevenueWon:        sumAmount(won).Round(2),
		PipelineOpen:      sumAmount(open).Round(2),
		OpenDealsCount:    len(open),
		StalledDealsCount: len(stalled),
	}
	if closed := len(won) + lostCount; closed > 0 {
		k.WinRate = decimal.NewFromInt(int64(len(won))).
			Div(decimal.NewFromInt(int64(closed))).
			Mul(hundred).Round(2).InexactFloat64()
	}
	if len(won) > 0 {
		var totalDays decimal.Decimal
		for _, o := range won {
			totalDays = totalDays.Add(decimal.NewFromFloat(o.CloseDate.Sub(o.CreatedAt).Hours() / 24))
		}
		k.AvgSalesCycleDays = totalDays.Div(decimal.NewFromInt(int64(len(won)))).Round(2).InexactFloat64()
	}
	return k
}

// ── Funnel ───────────────────────────────────────────────────────────────────

// buildFunnel agrupa el pipeline abierto por etapa, ordenado por monto ascendente.
func buildFunnel(open []*entity.Opportunity) []dto.FunnelItemDTO {
	items := make([]dto.FunnelItemDTO, 0)
	index := make(map[string]int)
	for _, o := range open {
		i, ok := index[o.Stage]
		if !ok {
			i = len(items)
			index[o.Stage] = i
			items = append(items, dto.FunnelItemDTO{StageKey: StageKey(o.Stage), StageLabel: o.Stage, Amount: decimal.Zero})
		}
		items[i].Count++
		items[i].Amount = items[i].Amount.Add(o.Amount)
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].Amount.LessThan(items[b].Amount) })
	for i := range items {
		items[i].Amount = items[i].Amount.Round(2)
	}
	return items
}

// ── Forecast ─────────────────────────────────────────────────────────────────

func buildForecastByRep(open []*entity.Opportunity, now time.Time, role entity.Role) []dto.ForecastItemDTO {
	if role == entity.RoleSalesRep {
		row := dto.ForecastItemDTO{Label: myPipelineLabel, InProgressValue: decimal.Zero, StalledValue: decimal.Zero}
		for _, o := range open {
			addForecast(&row, o, now)
		}
		return []dto.ForecastItemDTO{roundForecast(row)}
	}

	rows := make([]dto.ForecastItemDTO, 0)
	index := make(map[string]int)
	for _, o := range open {
		label := orUnknown(o.OwnerName)
		i, ok := index[label]
		if !ok {
			i = len(rows)
			index[label] = i
			rows = append(rows, dto.ForecastItemDTO{Label: label, InProgressValue: decimal.Zero, StalledValue: decimal.Zero})
		}
		addForecast(&rows[i], o, now)
	}
	for i := range rows {
		rows[i] = roundForecast(rows[i])
	}
	return rows
}

func addForecast(row *dto.ForecastItemDTO, o *entity.Opportunity, now time.Time) {
	if IsStalled(o, now) {
		row.StalledValue = row.StalledValue.Add(o.Amount)
		return
	}
	row.InProgressValue = row.InProgressValue.Add(o.Amount)
}

func roundForecast(r dto.ForecastItemDTO) dto.ForecastItemDTO {
	r.InProgressValue = r.InProgressValue.Round(2)
	r.StalledValue = r.StalledValue.Round(2)
	return r
}

// buildPivot Super Admin: región × etapa. Resto de roles: etapa × {TotalAmount, Count}.
func buildPivot(open []*entity.Opportunity, role entity.Role) dto.ForecastPivotDTO {
	pivot := dto.ForecastPivotDTO{Rows: make([]dto.ForecastPivotRow, 0)}
	index := make(map[string]int)

	if role == entity.RoleSuperAdmin {
		pivot.Mode = PivotModeRegionStage
		for _, o := range open {
			label := orUnknown(o.RegionName)
			i, ok := index[label]
			if !ok {
				i = len(pivot.Rows)
				index[label] = i
				pivot.Rows = append(pivot.Rows, dto.ForecastPivotRow{RowLabel: label, Columns: map[string]decimal.Decimal{}})
			}
			cols := pivot.Rows[i].Columns
			cols[o.Stage] = cols[o.Stage].Add(o.Amount)
		}
	} else {
		pivot.Mode = PivotModeStageSummary
		for _, o := range open {
			i, ok := index[o.Stage]
			if !ok {
				i = len(pivot.Rows)
				index[o.Stage] = i
				pivot.Rows = append(pivot.Rows, dto.ForecastPivotRow{
					RowLabel: o.Stage,
					Columns:  map[string]decimal.Decimal{pivotColTotalAmount: decimal.Zero, pivotColCount: decimal.Zero},
				})
			}
			cols := pivot.Rows[i].Columns
			cols[pivotColTotalAmount] = cols[pivotColTotalAmount].Add(o.Amount)
			cols[pivotColCount] = cols[pivotColCount].Add(decimal.NewFromInt(1))
		}
	}

	for _, row := range pivot.Rows {
		for k, v := range row.Columns {
			row.Columns[k] = v.Round(2)
		}
	}
	return pivot
}

// ── Estancados ───────────────────────────────────────────────────────────────

// buildStalledTable top 10 por días sin actualización, de mayor a menor.
func buildStalledTable(stalled []*entity.Opportunity, now time.Time) []dto.StalledDealDetailDTO {
	sorted := make([]*entity.Opportunity, len(stalled))
	copy(sorted, stalled)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].UpdatedAt.Before(sorted[b].UpdatedAt) })
	if len(sorted) > stalledTableLimit {
		sorted = sorted[:stalledTableLimit]
	}

	out := make([]dto.StalledDealDetailDTO, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, dto.StalledDealDetailDTO{
			ID:              o.ID,
			OpportunityName: o.Name,
			AccountName:     orUnknown(o.AccountName),
			StageLabel:      o.Stage,
			Value:           o.Amount.Round(2),
			DaysInStage:     DaysSince(o.UpdatedAt, now),
			OwnerName:       orUnknown(o.OwnerName),
		})
	}
	return out
}

// DaysSince días completos transcurridos (piso).
func DaysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}

func sumAmount(opps []*entity.Opportunity) decimal.Decimal {
	total := decimal.Zero
	for _, o := range opps {
		total = total.Add(o.Amount)
	}
	return total
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownLabel
	}
	return s
}
