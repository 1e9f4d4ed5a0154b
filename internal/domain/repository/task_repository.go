package repository

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// TaskRepository define el puerto de persistencia para Task.
type TaskRepository interface {
	ListWhere(ctx context.Context, p scope.Predicate, f TaskFilter) ([]*entity.Task, error)
	GetByID(ctx context.Context, id int64) (*entity.Task, error)
	Create(ctx context.Context, t *entity.Task) error
	// Complete marca la tarea como Completed con completedAt = at.
	Complete(ctx context.Context, id int64, at time.Time) error
}

// DocumentRepository define el puerto de lectura para Document (la subida de archivos es externa).
type DocumentRepository interface {
	ListWhere(ctx context.Context, p scope.Predicate, f DocumentFilter) ([]*entity.Document, error)
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	Create(ctx context.Context, d *entity.Document) error
}
