package repository

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// AuditLogFilter filtros del historial de auditoría. From/To inclusivos.
type AuditLogFilter struct {
	UserID     *int64
	Action     string
	EntityType string
	From       *time.Time
	To         *time.Time
	Page
}

// AuditLogRepository historial de mutaciones, del más reciente al más antiguo.
type AuditLogRepository interface {
	Create(ctx context.Context, l *entity.AuditLog) error
	List(ctx context.Context, f AuditLogFilter) ([]*entity.AuditLog, error)
	GetByID(ctx context.Context, id int64) (*entity.AuditLog, error)
}
