package repository

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// LeadRepository define el puerto de persistencia para Lead.
type LeadRepository interface {
	ListWhere(ctx context.Context, p scope.Predicate, f LeadFilter) ([]*entity.Lead, error)
	GetByID(ctx context.Context, id int64) (*entity.Lead, error)
	Create(ctx context.Context, l *entity.Lead) error
	// MarkConverted pasa el lead a Converted con convertedAt = at.
	MarkConverted(ctx context.Context, id int64, at time.Time) error
}
