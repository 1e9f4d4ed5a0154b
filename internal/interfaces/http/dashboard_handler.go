package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
)

// DashboardHandler maneja los endpoints del dashboard de pipeline.
type DashboardHandler struct {
	uc   *appanalytics.DashboardUseCase
	xlsx ports.DashboardExporter
	pdf  ports.DashboardExporter
	errs errorResponder
}

// NewDashboardHandler construye el handler. Los exportadores son opcionales.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase, xlsx, pdf ports.DashboardExporter, errs errorResponder) *DashboardHandler {
	return &DashboardHandler{uc: uc, xlsx: xlsx, pdf: pdf, errs: errs}
}

// Get godoc
// @Summary      Dashboard de pipeline
// @Description  KPIs, embudo, forecast y negocios estancados sobre las oportunidades visibles para el usuario.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Param        dateFrom      query  string  false  "Inicio del período (YYYY-MM-DD o RFC3339). Por defecto hoy-30d"
// @Param        dateTo        query  string  false  "Fin del período (inclusive si es solo fecha)"
// @Param        pipelineType  query  string  false  "Aceptado por compatibilidad; no altera el cálculo"
// @Success      200  {object}  dto.DashboardDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	report, err := h.build(c)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(report)
}

// ExportXLSX godoc
// @Summary      Dashboard en Excel
// @Tags         dashboard
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router       /api/dashboard/export.xlsx [get]
func (h *DashboardHandler) ExportXLSX(c *fiber.Ctx) error { return h.export(c, h.xlsx) }

// ExportPDF godoc
// @Summary      Dashboard en PDF
// @Tags         dashboard
// @Security     Bearer
// @Produce      application/pdf
// @Router       /api/dashboard/export.pdf [get]
func (h *DashboardHandler) ExportPDF(c *fiber.Ctx) error { return h.export(c, h.pdf) }

func (h *DashboardHandler) build(c *fiber.Ctx) (*dto.DashboardDTO, error) {
	var req dto.DashboardRequest
	if err := bindQuery(c, &req); err != nil {
		return nil, err
	}
	return h.uc.GetDashboard(c.UserContext(), GetActingUser(c), req)
}

func (h *DashboardHandler) export(c *fiber.Ctx, exp ports.DashboardExporter) error {
	if exp == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "formato de exportación no disponible"})
	}
	report, err := h.build(c)
	if err != nil {
		return h.errs.respond(c, err)
	}
	raw, err := exp.Export(report)
	if err != nil {
		return h.errs.respond(c, fmt.Errorf("exportar dashboard: %w", err))
	}
	c.Set(fiber.HeaderContentType, exp.ContentType())
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="dashboard-%s.%s"`, time.Now().Format("20060102"), exp.FileExtension()))
	return c.Send(raw)
}
