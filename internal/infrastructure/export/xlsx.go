// Package export genera la planilla del dashboard con excelize.
package export

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
)

var _ ports.DashboardExporter = (*XLSXExporter)(nil)

// Hojas del libro.
const (
	SheetSummary  = "Resumen"
	SheetFunnel   = "Embudo"
	SheetForecast = "Forecast"
	SheetPivot    = "Pivote"
	SheetStalled  = "Estancados"
)

// XLSXExporter una hoja por sección del reporte.
type XLSXExporter struct{}

// NewXLSXExporter construye el exportador.
func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) FileExtension() string { return "xlsx" }

// sheetWriter escribe filas consecutivas en una hoja con estilos compartidos.
type sheetWriter struct {
	f      *excelize.File
	name   string
	row    int
	header int
	money  int
	err    error
}

func (w *sheetWriter) write(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.name, cell, &values)
}

func (w *sheetWriter) writeHeader(labels ...string) {
	values := make([]any, len(labels))
	for i, l := range labels {
		values[i] = l
	}
	w.write(values...)
	if w.err != nil || len(labels) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row)
	last, _ := excelize.CoordinatesToCellName(len(labels), w.row)
	w.err = w.f.SetCellStyle(w.name, first, last, w.header)
}

// moneyColumns aplica formato monetario a las columnas dadas (1-based) en las filas de datos.
func (w *sheetWriter) moneyColumns(fromRow int, cols ...int) {
	if w.err != nil || w.row < fromRow {
		return
	}
	for _, c := range cols {
		top, _ := excelize.CoordinatesToCellName(c, fromRow)
		bottom, _ := excelize.CoordinatesToCellName(c, w.row)
		if w.err = w.f.SetCellStyle(w.name, top, bottom, w.money); w.err != nil {
			return
		}
	}
}

// Export arma el libro y devuelve sus bytes.
func (XLSXExporter) Export(report *dto.DashboardDTO) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("xlsx: reporte vacío")
	}
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	writers := make([]*sheetWriter, 0, 5)
	for i, name := range []string{SheetSummary, SheetFunnel, SheetForecast, SheetPivot, SheetStalled} {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("xlsx: hoja %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx: hoja %s: %w", name, err)
		}
		writers = append(writers, &sheetWriter{f: f, name: name, header: header, money: money})
	}

	writeSummary(writers[0], report)
	writeFunnel(writers[1], report.Funnel)
	writeForecast(writers[2], report.ForecastByRep)
	writePivot(writers[3], report.ForecastPivot)
	writeStalled(writers[4], report.StalledDeals)

	for _, w := range writers {
		if w.err != nil {
			return nil, fmt.Errorf("xlsx: hoja %s: %w", w.name, w.err)
		}
		_ = f.SetColWidth(w.name, "A", "A", 28)
		_ = f.SetColWidth(w.name, "B", "H", 18)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }

func writeSummary(w *sheetWriter, r *dto.DashboardDTO) {
	w.writeHeader("Indicador", "Valor")
	w.write("Rol", r.Scope.Role)
	w.write("Usuario", r.Scope.UserName)
	if r.Scope.RegionName != "" {
		w.write("Región", r.Scope.RegionName)
	}
	start := w.row + 1
	w.write("Ingresos ganados", num(r.Kpis.RevenueWon))
	w.write("Pipeline abierto", num(r.Kpis.PipelineOpen))
	w.moneyColumns(start, 2)
	w.write("Negocios abiertos", r.Kpis.OpenDealsCount)
	w.write("Tasa de cierre (%)", r.Kpis.WinRate)
	w.write("Ciclo de venta promedio (días)", r.Kpis.AvgSalesCycleDays)
	w.write("Negocios estancados", r.Kpis.StalledDealsCount)
}

func writeFunnel(w *sheetWriter, items []dto.FunnelItemDTO) {
	w.writeHeader("Etapa", "Cantidad", "Monto")
	for _, it := range items {
		w.write(it.StageLabel, it.Count, num(it.Amount))
	}
	w.moneyColumns(2, 3)
}

func writeForecast(w *sheetWriter, items []dto.ForecastItemDTO) {
	w.writeHeader("Responsable", "En curso", "Estancado")
	for _, it := range items {
		w.write(it.Label, num(it.InProgressValue), num(it.StalledValue))
	}
	w.moneyColumns(2, 2, 3)
}

// PivotColumns columnas del pivote en orden estable (alfabético).
func PivotColumns(p dto.ForecastPivotDTO) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range p.Rows {
		for c := range r.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				cols = append(cols, c)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func writePivot(w *sheetWriter, p dto.ForecastPivotDTO) {
	cols := PivotColumns(p)
	w.writeHeader(append([]string{p.Mode}, cols...)...)
	for _, r := range p.Rows {
		values := make([]any, 0, len(cols)+1)
		values = append(values, r.RowLabel)
		for _, c := range cols {
			values = append(values, num(r.Columns[c]))
		}
		w.write(values...)
	}
}

func writeStalled(w *sheetWriter, deals []dto.StalledDealDetailDTO) {
	w.writeHeader("ID", "Oportunidad", "Cuenta", "Etapa", "Valor", "Días en etapa", "Responsable")
	for _, d := range deals {
		w.write(d.ID, d.OpportunityName, d.AccountName, d.StageLabel, num(d.Value), d.DaysInStage, d.OwnerName)
	}
	w.moneyColumns(2, 5)
}
