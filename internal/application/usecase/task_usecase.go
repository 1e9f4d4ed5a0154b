package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// TaskUseCase tareas. Una tarea es visible si su entidad relacionada lo es, o si está
// asignada a quien consulta.
type TaskUseCase struct {
	engine *access.Engine
	tasks  repository.TaskRepository
	audit  *Auditor
	now    func() time.Time
}

// NewTaskUseCase construye el caso de uso.
func NewTaskUseCase(engine *access.Engine, tasks repository.TaskRepository, audit *Auditor) *TaskUseCase {
	return &TaskUseCase{engine: engine, tasks: tasks, audit: audit, now: time.Now}
}

// SetClock fija el reloj (tests).
func (uc *TaskUseCase) SetClock(now func() time.Time) { uc.now = now }

// List tareas visibles.
func (uc *TaskUseCase) List(ctx context.Context, u access.ActingUser, req dto.TaskListRequest) (*dto.ListResponse[dto.TaskResponse], error) {
	page := toPage(req.PageRequest)
	rows, err := uc.tasks.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindTask), repository.TaskFilter{
		Status:       strings.TrimSpace(req.Status),
		AssignedToID: optID(req.AssignedToID),
		Page:         page,
	})
	if err != nil {
		return nil, storeErr("tasks: listar", err)
	}
	return &dto.ListResponse[dto.TaskResponse]{Items: mapList(rows, toTaskResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID detalle de una tarea.
func (uc *TaskUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.TaskResponse, error) {
	t, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("tasks: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindTask, t); err != nil {
		return nil, err
	}
	out := toTaskResponse(t)
	return &out, nil
}

// Create crea una tarea. Si se indica entidad relacionada debe existir y ser visible.
// Sin asignado explícito queda asignada a quien la crea.
func (uc *TaskUseCase) Create(ctx context.Context, u access.ActingUser, req dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	t := &entity.Task{
		Subject:      strings.TrimSpace(req.Subject),
		Description:  req.Description,
		Type:         req.Type,
		Status:       entity.TaskStatusOpen,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		AssignedToID: req.AssignedToID,
	}
	if t.Subject == "" {
		return nil, domain.NewValidationError("subject", "subject es requerido")
	}
	if req.RelatedEntityType != "" || req.RelatedEntityID != 0 {
		ref, err := entity.NewRelatedEntity(req.RelatedEntityType, req.RelatedEntityID)
		if err != nil {
			return nil, domain.NewValidationError("relatedEntityType", err.Error())
		}
		if err := uc.engine.AuthorizeLink(ctx, u, ref); err != nil {
			return nil, err
		}
		t.Related = ref
	}
	self := u.ID
	if t.AssignedToID == nil {
		t.AssignedToID = &self
	}
	t.CreatedByID = &self

	if err := uc.tasks.Create(ctx, t); err != nil {
		return nil, storeErr("tasks: crear", err)
	}
	uc.audit.Record(ctx, u, ActionTaskCreated, entity.KindTask, t.ID, map[string]any{
		"relatedEntityType": string(t.Related.Kind),
		"relatedEntityId":   t.Related.ID,
	})
	out := toTaskResponse(t)
	return &out, nil
}

// Complete cierra una tarea visible para el usuario. Una tarea ya completada es conflicto.
func (uc *TaskUseCase) Complete(ctx context.Context, u access.ActingUser, id int64) (*dto.TaskResponse, error) {
	t, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("tasks: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindTask, t); err != nil {
		return nil, err
	}
	if t.Status == entity.TaskStatusCompleted {
		return nil, fmt.Errorf("tarea %d ya completada: %w", id, domain.ErrConflict)
	}
	now := uc.now().UTC()
	if err := uc.tasks.Complete(ctx, id, now); err != nil {
		return nil, storeErr("tasks: completar", err)
	}
	t.Status, t.CompletedAt, t.UpdatedAt = entity.TaskStatusCompleted, &now, now
	uc.audit.Record(ctx, u, ActionTaskCompleted, entity.KindTask, id, nil)
	out := toTaskResponse(t)
	return &out, nil
}

// listRelatedTasks tareas de una entidad ya autorizada, con el predicado de tareas.
func listRelatedTasks(ctx context.Context, engine *access.Engine, tasks repository.TaskRepository, u access.ActingUser, ref entity.RelatedEntity, p dto.PageRequest) (*dto.ListResponse[dto.TaskResponse], error) {
	page := toPage(p)
	rows, err := tasks.ListWhere(ctx, engine.ListFilter(ctx, u, entity.KindTask), repository.TaskFilter{Related: &ref, Page: page})
	if err != nil {
		return nil, storeErr("tasks: listar relacionadas", err)
	}
	return &dto.ListResponse[dto.TaskResponse]{Items: mapList(rows, toTaskResponse), Page: pageResponse(page, len(rows))}, nil
}

func toTaskResponse(t *entity.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:                t.ID,
		Subject:           t.Subject,
		Description:       t.Description,
		Type:              t.Type,
		Status:            t.Status,
		Priority:          t.Priority,
		DueDate:           t.DueDate,
		RelatedEntityType: string(t.Related.Kind),
		RelatedEntityID:   t.Related.ID,
		AssignedToID:      t.AssignedToID,
		CreatedByID:       t.CreatedByID,
		CompletedAt:       t.CompletedAt,
		CreatedAt:         t.CreatedAt,
	}
}

// ── Documents ────────────────────────────────────────────────────────────────

// DocumentUseCase lectura de metadatos de documentos. La subida de archivos es externa.
type DocumentUseCase struct {
	engine *access.Engine
	docs   repository.DocumentRepository
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(engine *access.Engine, docs repository.DocumentRepository) *DocumentUseCase {
	return &DocumentUseCase{engine: engine, docs: docs}
}

// List documentos visibles.
func (uc *DocumentUseCase) List(ctx context.Context, u access.ActingUser, p dto.PageRequest) (*dto.ListResponse[dto.DocumentResponse], error) {
	page := toPage(p)
	rows, err := uc.docs.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindDocument), repository.DocumentFilter{Page: page})
	if err != nil {
		return nil, storeErr("documents: listar", err)
	}
	return &dto.ListResponse[dto.DocumentResponse]{Items: mapList(rows, toDocumentResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID detalle de un documento.
func (uc *DocumentUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.DocumentResponse, error) {
	d, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("documents: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindDocument, d); err != nil {
		return nil, err
	}
	out := toDocumentResponse(d)
	return &out, nil
}

func listRelatedDocuments(ctx context.Context, engine *access.Engine, docs repository.DocumentRepository, u access.ActingUser, ref entity.RelatedEntity, p dto.PageRequest) (*dto.ListResponse[dto.DocumentResponse], error) {
	page := toPage(p)
	rows, err := docs.ListWhere(ctx, engine.ListFilter(ctx, u, entity.KindDocument), repository.DocumentFilter{Related: &ref, Page: page})
	if err != nil {
		return nil, storeErr("documents: listar relacionados", err)
	}
	return &dto.ListResponse[dto.DocumentResponse]{Items: mapList(rows, toDocumentResponse), Page: pageResponse(page, len(rows))}, nil
}

func toDocumentResponse(d *entity.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:                d.ID,
		Name:              d.Name,
		Type:              d.Type,
		Status:            d.Status,
		URL:               d.URL,
		RelatedEntityType: string(d.Related.Kind),
		RelatedEntityID:   d.Related.ID,
		UploadedByID:      d.UploadedByID,
		CreatedAt:         d.CreatedAt,
	}
}
