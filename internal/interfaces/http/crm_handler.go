package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
)

// nestedFn listado de hijos de un padre ya autorizado (cuenta u oportunidad).
type nestedFn[T any] func(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[T], error)

func nested[T any](c *fiber.Ctx, errs errorResponder, fn nestedFn[T]) error {
	id, err := paramID(c, "id")
	if err != nil {
		return errs.respond(c, err)
	}
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return errs.respond(c, err)
	}
	out, err := fn(c.UserContext(), GetActingUser(c), id, page)
	if err != nil {
		return errs.respond(c, err)
	}
	return c.JSON(out)
}

// ── Leads ────────────────────────────────────────────────────────────────────

// LeadHandler maneja las peticiones HTTP de leads.
type LeadHandler struct {
	uc   *usecase.LeadUseCase
	errs errorResponder
}

// NewLeadHandler construye el handler.
func NewLeadHandler(uc *usecase.LeadUseCase, errs errorResponder) *LeadHandler {
	return &LeadHandler{uc: uc, errs: errs}
}

// List godoc
// @Summary      Listar leads visibles
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        status   query  string  false  "Estado"
// @Param        ownerId  query  int     false  "Responsable"
// @Success      200  {object}  dto.ListResponse[dto.LeadResponse]
// @Router       /api/leads [get]
func (h *LeadHandler) List(c *fiber.Ctx) error {
	var req dto.LeadListRequest
	if err := bindQuery(c, &req); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/leads/:id
func (h *LeadHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Crear lead
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLeadRequest  true  "Datos del lead"
// @Success      201   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/leads [post]
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLeadRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActingUser(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Convert godoc
// @Summary      Convertir lead en cuenta
// @Description  Solo Super Admin. Crea una cuenta en estado Prospect y marca el lead como Converted en una misma transacción.
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true   "ID del lead"
// @Param        body  body  dto.ConvertLeadRequest  false  "Datos de la cuenta"
// @Success      200   {object}  dto.ConvertLeadResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var in dto.ConvertLeadRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &in); err != nil {
			return h.errs.respond(c, err)
		}
	}
	out, err := h.uc.Convert(c.UserContext(), GetActingUser(c), id, in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// ── Contacts ─────────────────────────────────────────────────────────────────

// ContactHandler maneja las peticiones HTTP de contactos.
type ContactHandler struct {
	uc   *usecase.ContactUseCase
	errs errorResponder
}

// NewContactHandler construye el handler.
func NewContactHandler(uc *usecase.ContactUseCase, errs errorResponder) *ContactHandler {
	return &ContactHandler{uc: uc, errs: errs}
}

// contactListQuery filtros de GET /api/contacts.
type contactListQuery struct {
	AccountID int64 `query:"accountId" validate:"min=0"`
	dto.PageRequest
}

// List GET /api/contacts?accountId=
func (h *ContactHandler) List(c *fiber.Ctx) error {
	var q contactListQuery
	if err := bindQuery(c, &q); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), q.AccountID, q.PageRequest)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/contacts/:id
func (h *ContactHandler) GetByID(c *fiber.Ctx) error {
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

// Create POST /api/contacts
func (h *ContactHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateContactRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActingUser(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ── Tasks ────────────────────────────────────────────────────────────────────

// TaskHandler maneja las peticiones HTTP de tareas.
type TaskHandler struct {
	uc   *usecase.TaskUseCase
	errs errorResponder
}

// NewTaskHandler construye el handler.
func NewTaskHandler(uc *usecase.TaskUseCase, errs errorResponder) *TaskHandler {
	return &TaskHandler{uc: uc, errs: errs}
}

// List GET /api/tasks
func (h *TaskHandler) List(c *fiber.Ctx) error {
	var req dto.TaskListRequest
	if err := bindQuery(c, &req); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/tasks/:id
func (h *TaskHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Crear tarea
// @Description  La entidad relacionada (Lead, Account u Opportunity) debe ser visible para el usuario.
// @Tags         tasks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTaskRequest  true  "Datos de la tarea"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTaskRequest
	if err := bindBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetActingUser(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Complete godoc
// @Summary      Completar tarea
// @Tags         tasks
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.Complete(c.UserContext(), GetActingUser(c), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// ── Documents ────────────────────────────────────────────────────────────────

// DocumentHandler metadatos de documentos (solo lectura).
type DocumentHandler struct {
	uc   *usecase.DocumentUseCase
	errs errorResponder
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *usecase.DocumentUseCase, errs errorResponder) *DocumentHandler {
	return &DocumentHandler{uc: uc, errs: errs}
}

// List GET /api/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return h.errs.respond(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActingUser(c), page)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
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
