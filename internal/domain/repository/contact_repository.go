package repository

import (
	"context"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// ContactRepository define el puerto de persistencia para Contact.
type ContactRepository interface {
	ListWhere(ctx context.Context, p scope.Predicate, f ContactFilter) ([]*entity.Contact, error)
	GetByID(ctx context.Context, id int64) (*entity.Contact, error)
	Create(ctx context.Context, c *entity.Contact) error
}
