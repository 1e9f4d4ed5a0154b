package repository

import (
	"context"

	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// GetByID devuelve (nil, nil) si el usuario no existe.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	UpdateRole(ctx context.Context, id int64, role entity.Role) error
}

// RegionRepository lectura de regiones.
type RegionRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Region, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Region, error)
	List(ctx context.Context) ([]*entity.Region, error)
	Create(ctx context.Context, region *entity.Region) error
}
