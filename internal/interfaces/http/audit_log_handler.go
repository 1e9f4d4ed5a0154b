package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
)

// AuditLogHandler consulta del historial de auditoría.
type AuditLogHandler struct {
	uc   *usecase.AuditLogUseCase
	errs errorResponder
}

// NewAuditLogHandler construye el handler.
func NewAuditLogHandler(uc *usecase.AuditLogUseCase, errs errorResponder) *AuditLogHandler {
	return &AuditLogHandler{uc: uc, errs: errs}
}

// List godoc
// @Summary      Listar historial de auditoría
// @Description  Solo Super Admin. Más reciente primero.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        userId      query  int     false  "Autor"
// @Param        action      query  string  false  "Acción (p. ej. opportunity.won)"
// @Param        entityType  query  string  false  "Tipo de entidad"
// @Param        dateFrom    query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        dateTo      query  string  false  "Hasta (YYYY-MM-DD o RFC3339)"
// @Success      200  {object}  dto.ListResponse[dto.AuditLogResponse]
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit-logs [get]
func (h *AuditLogHandler) List(c *fiber.Ctx) error {
	var req dto.AuditLogListRequest
	if err := bindQuery(c, &req); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/audit-logs/:id
func (h *AuditLogHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), GetActingUser(c), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}
