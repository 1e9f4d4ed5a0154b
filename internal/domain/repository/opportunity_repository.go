package repository

import (
	"context"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// OpportunityRepository define el puerto de persistencia para Opportunity.
// Las lecturas devuelven el modelo con los datos heredados de la cuenta ya resueltos.
type OpportunityRepository interface {
	ListWhere(ctx context.Context, p scope.Predicate, f OpportunityFilter) ([]*entity.Opportunity, error)
	GetByID(ctx context.Context, id int64) (*entity.Opportunity, error)
	Create(ctx context.Context, o *entity.Opportunity) error
	// Update persiste stage, owner, amount, close date, won/lost y updated_at.
	Update(ctx context.Context, o *entity.Opportunity) error
}
