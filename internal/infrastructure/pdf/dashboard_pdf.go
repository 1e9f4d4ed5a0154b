// Package pdf genera la versión imprimible del dashboard de ventas.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + usuario/rol  │  fecha de generación         │
//	│  KPIs: ganado / pipeline / abiertas / tasa / ciclo / estanc.  │
//	│  EMBUDO: Etapa | Cantidad | Monto                             │
//	│  FORECAST: Responsable | En curso | Estancado                 │
//	│  ESTANCADOS: Oportunidad | Cuenta | Etapa | Días | Valor      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var printer = message.NewPrinter(language.Spanish)

// ── Exporter ──────────────────────────────────────────────────────────────────

var _ ports.DashboardExporter = (*DashboardPDFExporter)(nil)

// DashboardPDFExporter implementa ports.DashboardExporter usando Maroto v2.
type DashboardPDFExporter struct {
	now func() time.Time
}

// NewDashboardPDFExporter construye el exportador.
func NewDashboardPDFExporter() *DashboardPDFExporter {
	return &DashboardPDFExporter{now: time.Now}
}

func (DashboardPDFExporter) ContentType() string   { return "application/pdf" }
func (DashboardPDFExporter) FileExtension() string { return "pdf" }

// Export genera el PDF y devuelve sus bytes.
func (g *DashboardPDFExporter) Export(report *dto.DashboardDTO) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Dashboard de ventas", true).
		WithAuthor(report.Scope.UserName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report.Scope, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(kpiRows(report.Kpis)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("EMBUDO POR ETAPA"))
	m.AddRows(tableHeaderRow([]column{{"Etapa", 6, align.Left}, {"Cantidad", 2, align.Center}, {"Monto", 4, align.Right}}))
	for _, f := range report.Funnel {
		m.AddRows(tableRow([]cell{
			{f.StageLabel, 6, align.Left},
			{fmt.Sprint(f.Count), 2, align.Center},
			{formatMoney(f.Amount), 4, align.Right},
		}))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("FORECAST POR RESPONSABLE"))
	m.AddRows(tableHeaderRow([]column{{"Responsable", 6, align.Left}, {"En curso", 3, align.Right}, {"Estancado", 3, align.Right}}))
	for _, f := range report.ForecastByRep {
		m.AddRows(tableRow([]cell{
			{f.Label, 6, align.Left},
			{formatMoney(f.InProgressValue), 3, align.Right},
			{formatMoney(f.StalledValue), 3, align.Right},
		}))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("OPORTUNIDADES ESTANCADAS"))
	if len(report.StalledDeals) == 0 {
		m.AddRows(row.New(7).Add(col.New(12).Add(
			text.New("Sin oportunidades estancadas.", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	} else {
		m.AddRows(tableHeaderRow([]column{
			{"Oportunidad", 3, align.Left}, {"Cuenta", 3, align.Left}, {"Etapa", 2, align.Left},
			{"Días", 1, align.Center}, {"Valor", 3, align.Right},
		}))
		for _, d := range report.StalledDeals {
			m.AddRows(tableRow([]cell{
				{d.OpportunityName, 3, align.Left},
				{d.AccountName, 3, align.Left},
				{d.StageLabel, 2, align.Left},
				{fmt.Sprint(d.DaysInStage), 1, align.Center},
				{formatMoney(d.Value), 3, align.Right},
			}))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título + alcance (izq) y fecha de generación (der).
func headerRow(scope dto.ScopeDTO, at time.Time) core.Row {
	who := fmt.Sprintf("%s · %s", nonEmpty(scope.UserName, "—"), scope.Role)
	if scope.RegionName != "" {
		who += " · " + scope.RegionName
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("DASHBOARD DE VENTAS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(who, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

// kpiRows: dos filas de tres indicadores.
func kpiRows(k dto.KpisDTO) []core.Row {
	kpi := func(label, value string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 5}),
		)
	}
	return []core.Row{
		row.New(13).Add(
			kpi("Ingresos ganados", formatMoney(k.RevenueWon)),
			kpi("Pipeline abierto", formatMoney(k.PipelineOpen)),
			kpi("Negocios abiertos", fmt.Sprint(k.OpenDealsCount)),
		),
		row.New(13).Add(
			kpi("Tasa de cierre", printer.Sprintf("%.1f%%", k.WinRate)),
			kpi("Ciclo de venta promedio", printer.Sprintf("%.1f días", k.AvgSalesCycleDays)),
			kpi("Negocios estancados", fmt.Sprint(k.StalledDealsCount)),
		),
	}
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

type column struct {
	label string
	size  int
	align align.Type
}

type cell = column

// tableHeaderRow: cabecera de tabla con texto blanco sobre fondo primario.
func tableHeaderRow(cols []column) core.Row {
	out := make([]core.Col, 0, len(cols))
	for _, c := range cols {
		out = append(out, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(out...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableRow(cells []cell) core.Row {
	out := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		out = append(out, col.New(c.size).Add(text.New(c.label, props.Text{
			Size: 8, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(7).Add(out...)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney monto sin decimales con separadores de miles en español.
func formatMoney(d decimal.Decimal) string {
	return "$" + printer.Sprint(number.Decimal(d.Round(0).InexactFloat64(), number.MaxFractionDigits(0)))
}
