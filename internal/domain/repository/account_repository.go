package repository

import (
	"context"
	"time"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// AccountRepository define el puerto de persistencia para Account.
// ListWhere aplica el predicado de alcance; GetByID devuelve (nil, nil) si no existe.
type AccountRepository interface {
	ListWhere(ctx context.Context, p scope.Predicate, f AccountFilter) ([]*entity.Account, error)
	GetByID(ctx context.Context, id int64) (*entity.Account, error)
	Create(ctx context.Context, a *entity.Account) error
	UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
