package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
)

// AccountHandler maneja las peticiones HTTP de cuentas.
type AccountHandler struct {
	uc   *usecase.AccountUseCase
	errs errorResponder
}

// NewAccountHandler construye el handler.
func NewAccountHandler(uc *usecase.AccountUseCase, errs errorResponder) *AccountHandler {
	return &AccountHandler{uc: uc, errs: errs}
}

// List godoc
// @Summary      Listar cuentas visibles
// @Tags         accounts
// @Security     Bearer
// @Produce      json
// @Param        status      query  string  false  "Estado"
// @Param        regionId    query  int     false  "Región"
// @Param        salesRepId  query  int     false  "Vendedor"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.AccountResponse]
// @Router       /api/accounts [get]
func (h *AccountHandler) List(c *fiber.Ctx) error {
	var req dto.AccountListRequest
	if err := bindQuery(c, &req); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener cuenta
// @Tags         accounts
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la cuenta"
// @Success      200  {object}  dto.AccountResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/accounts/{id} [get]
func (h *AccountHandler) GetByID(c *fiber.Ctx) error {
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

// Create godoc
// @Summary      Crear cuenta
// @Description  Un Sales Rep crea la cuenta en estado Pending Approval y asignada a sí mismo.
// @Tags         accounts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAccountRequest  true  "Datos de la cuenta"
// @Success      201   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/accounts [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAccountRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActingUser(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Approve godoc
// @Summary      Aprobar cuenta pendiente
// @Tags         accounts
// @Security     Bearer
// @Param        id  path  int  true  "ID de la cuenta"
// @Success      200  {object}  dto.AccountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/accounts/{id}/approve [post]
func (h *AccountHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Approve(c.UserContext(), GetActingUser(c), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar cuenta pendiente (la elimina)
// @Tags         accounts
// @Security     Bearer
// @Accept       json
// @Param        id    path  int                       true   "ID de la cuenta"
// @Param        body  body  dto.RejectAccountRequest  false  "Motivo"
// @Success      204
// @Router       /api/accounts/{id}/reject [post]
func (h *AccountHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var in dto.RejectAccountRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &in); err != nil {
			return h.errs.respond(c, err)
		}
	}
	if err := h.uc.Reject(c.UserContext(), GetActingUser(c), id, in); err != nil {
		return h.errs.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Eliminar cuenta
// @Tags         accounts
// @Security     Bearer
// @Param        id  path  int  true  "ID de la cuenta"
// @Success      204
// @Router       /api/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), GetActingUser(c), id); err != nil {
		return h.errs.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Contacts GET /api/accounts/:id/contacts
func (h *AccountHandler) Contacts(c *fiber.Ctx) error {
	return nested(c, h.errs, h.uc.Contacts)
}

// Opportunities GET /api/accounts/:id/opportunities
func (h *AccountHandler) Opportunities(c *fiber.Ctx) error {
	return nested(c, h.errs, h.uc.Opportunities)
}

// Tasks GET /api/accounts/:id/tasks
func (h *AccountHandler) Tasks(c *fiber.Ctx) error {
	return nested(c, h.errs, h.uc.Tasks)
}

// Documents GET /api/accounts/:id/documents
func (h *AccountHandler) Documents(c *fiber.Ctx) error {
	return nested(c, h.errs, h.uc.Documents)
}
