package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

var (
	_ repository.TaskRepository     = (*TaskRepo)(nil)
	_ repository.DocumentRepository = (*DocumentRepo)(nil)
)

const taskSelect = `
	SELECT t.id, t.subject, t.description, t.type, t.status, t.priority, t.due_date,
	       t.related_entity_type, t.related_entity_id, t.assigned_to_id, t.created_by_id,
	       t.completed_at, t.created_at, t.updated_at
	FROM tasks t`

// TaskRepo implementación de TaskRepository sobre PostgreSQL.
type TaskRepo struct {
	q Querier
}

// NewTaskRepository construye el adaptador de tareas.
func NewTaskRepository(q Querier) *TaskRepo {
	return &TaskRepo{q: q}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		t       entity.Task
		relKind *string
		relID   *int64
	)
	err := row.Scan(&t.ID, &t.Subject, &t.Description, &t.Type, &t.Status, &t.Priority, &t.DueDate,
		&relKind, &relID, &t.AssignedToID, &t.CreatedByID, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Related = relatedFromColumns(relKind, relID)
	return &t, nil
}

// relatedFromColumns arma la referencia polimórfica; un tipo desconocido equivale a "sin relación".
func relatedFromColumns(kind *string, id *int64) entity.RelatedEntity {
	if kind == nil || id == nil {
		return entity.RelatedEntity{}
	}
	ref, err := entity.NewRelatedEntity(*kind, *id)
	if err != nil {
		return entity.RelatedEntity{}
	}
	return ref
}

func relatedColumns(ref entity.RelatedEntity) (*string, *int64) {
	if ref.IsZero() {
		return nil, nil
	}
	kind, id := string(ref.Kind), ref.ID
	return &kind, &id
}

// ListWhere tareas que cumplen el predicado de alcance y los filtros.
func (r *TaskRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.TaskFilter) ([]*entity.Task, error) {
	q := newSelect(taskSelect)
	if err := q.scope(p, taskTarget); err != nil {
		return nil, err
	}
	if f.Status != "" {
		q.where("t.status = %s", f.Status)
	}
	if f.AssignedToID != nil {
		q.where("t.assigned_to_id = %s", *f.AssignedToID)
	}
	if f.Related != nil {
		q.where("t.related_entity_type = %s AND t.related_entity_id = %s", string(f.Related.Kind), f.Related.ID)
	}
	rows, err := r.q.Query(ctx, q.sql("t.id", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID obtiene una tarea; (nil, nil) si no existe.
func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*entity.Task, error) {
	t, err := scanTask(r.q.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Create persiste una tarea.
func (r *TaskRepo) Create(ctx context.Context, t *entity.Task) error {
	relKind, relID := relatedColumns(t.Related)
	const query = `
		INSERT INTO tasks (subject, description, type, status, priority, due_date,
		                   related_entity_type, related_entity_id, assigned_to_id, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, t.Subject, t.Description, t.Type, t.Status, t.Priority, t.DueDate,
		relKind, relID, t.AssignedToID, t.CreatedByID).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return writeErr("insert task", err)
	}
	return nil
}

// Complete marca la tarea como completada.
func (r *TaskRepo) Complete(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE tasks SET status = $2, completed_at = $3, updated_at = $3 WHERE id = $1`,
		id, entity.TaskStatusCompleted, at)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Documents ────────────────────────────────────────────────────────────────

const documentSelect = `
	SELECT d.id, d.name, d.type, d.status, d.url, d.uploaded_by_id,
	       d.related_entity_type, d.related_entity_id, d.created_at
	FROM documents d`

// DocumentRepo metadatos de documentos sobre PostgreSQL.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador de documentos.
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d       entity.Document
		relKind *string
		relID   *int64
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Status, &d.URL, &d.UploadedByID, &relKind, &relID, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Related = relatedFromColumns(relKind, relID)
	return &d, nil
}

// ListWhere documentos que cumplen el predicado de alcance.
func (r *DocumentRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.DocumentFilter) ([]*entity.Document, error) {
	q := newSelect(documentSelect)
	if err := q.scope(p, documentTarget); err != nil {
		return nil, err
	}
	if f.Related != nil {
		q.where("d.related_entity_type = %s AND d.related_entity_id = %s", string(f.Related.Kind), f.Related.ID)
	}
	rows, err := r.q.Query(ctx, q.sql("d.id", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByID obtiene un documento; (nil, nil) si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, documentSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// Create registra los metadatos de un documento.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	relKind, relID := relatedColumns(d.Related)
	const query = `
		INSERT INTO documents (name, type, status, url, uploaded_by_id, related_entity_type, related_entity_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query, d.Name, d.Type, d.Status, d.URL, d.UploadedByID, relKind, relID).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return writeErr("insert document", err)
	}
	return nil
}
