package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
)

// UserHandler usuarios y regiones.
type UserHandler struct {
	uc   *usecase.UserUseCase
	errs errorResponder
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase, errs errorResponder) *UserHandler {
	return &UserHandler{uc: uc, errs: errs}
}

// Me godoc
// @Summary      Usuario autenticado
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), GetActingUser(c))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Regions godoc
// @Summary      Regiones efectivas de un usuario
// @Description  Solo el propio usuario o un Super Admin.
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del usuario"
// @Success      200  {object}  dto.EffectiveRegionsResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/regions [get]
func (h *UserHandler) Regions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.EffectiveRegions(c.UserContext(), GetActingUser(c), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// ChangeRole godoc
// @Summary      Cambiar rol
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "ID del usuario"
// @Param        body  body  dto.ChangeRoleRequest  true  "Nuevo rol"
// @Success      200   {object}  dto.UserResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var in dto.ChangeRoleRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.ChangeRole(c.UserContext(), GetActingUser(c), id, in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// ListRegions GET /api/regions
func (h *UserHandler) ListRegions(c *fiber.Ctx) error {
	out, err := h.uc.Regions(c.UserContext())
	if err != nil {
		return h.errs.respond(c, err)
	}
	if out == nil {
		out = []dto.RegionDTO{}
	}
	return c.JSON(out)
}
