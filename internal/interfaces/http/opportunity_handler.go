package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
)

// OpportunityHandler maneja las peticiones HTTP de oportunidades.
type OpportunityHandler struct {
	uc   *usecase.OpportunityUseCase
	errs errorResponder
}

// NewOpportunityHandler construye el handler.
func NewOpportunityHandler(uc *usecase.OpportunityUseCase, errs errorResponder) *OpportunityHandler {
	return &OpportunityHandler{uc: uc, errs: errs}
}

// List godoc
// @Summary      Listar oportunidades visibles
// @Tags         opportunities
// @Security     Bearer
// @Produce      json
// @Param        stage      query  string  false  "Etapa"
// @Param        accountId  query  int     false  "Cuenta"
// @Param        ownerId    query  int     false  "Responsable"
// @Param        openOnly   query  bool    false  "Solo abiertas"
// @Success      200  {object}  dto.ListResponse[dto.OpportunityResponse]
// @Router       /api/opportunities [get]
func (h *OpportunityHandler) List(c *fiber.Ctx) error {
	var req dto.OpportunityListRequest
	if err := bindQuery(c, &req); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/opportunities/:id
func (h *OpportunityHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Crear oportunidad
// @Tags         opportunities
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOpportunityRequest  true  "Datos de la oportunidad"
// @Success      201   {object}  dto.OpportunityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/opportunities [post]
func (h *OpportunityHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOpportunityRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActingUser(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// MoveStage godoc
// @Summary      Mover de etapa
// @Description  Solo etapas abiertas; para cerrar usar /win o /lose.
// @Tags         opportunities
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                   true  "ID de la oportunidad"
// @Param        body  body  dto.MoveStageRequest  true  "Nueva etapa"
// @Success      200   {object}  dto.OpportunityResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/move-stage [post]
func (h *OpportunityHandler) MoveStage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var in dto.MoveStageRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.MoveStage(c.UserContext(), GetActingUser(c), id, in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Win POST /api/opportunities/:id/win
func (h *OpportunityHandler) Win(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Win(c.UserContext(), GetActingUser(c), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Lose POST /api/opportunities/:id/lose
func (h *OpportunityHandler) Lose(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var in dto.LoseOpportunityRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Lose(c.UserContext(), GetActingUser(c), id, in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Activities GET /api/opportunities/:id/activities
func (h *OpportunityHandler) Activities(c *fiber.Ctx) error {
	return nested(c, h.errs, h.uc.Activities)
}

// Documents GET /api/opportunities/:id/documents
func (h *OpportunityHandler) Documents(c *fiber.Ctx) error {
	return nested(c, h.errs, h.uc.Documents)
}
