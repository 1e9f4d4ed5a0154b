package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// UserUseCase consultas de membresía y cambio de rol.
type UserUseCase struct {
	engine  *access.Engine
	users   repository.UserRepository
	regions repository.RegionRepository
	audit   *Auditor
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(engine *access.Engine, users repository.UserRepository, regions repository.RegionRepository, audit *Auditor) *UserUseCase {
	return &UserUseCase{engine: engine, users: users, regions: regions, audit: audit}
}

// Me datos del usuario que actúa.
func (uc *UserUseCase) Me(ctx context.Context, u access.ActingUser) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(ctx, u.ID)
	if err != nil {
		return nil, storeErr("users: obtener", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	out := entityToUserResponse(user)
	return &out, nil
}

// EffectiveRegions regiones efectivas de un usuario. Solo el propio usuario o un Super Admin.
func (uc *UserUseCase) EffectiveRegions(ctx context.Context, u access.ActingUser, userID int64) (*dto.EffectiveRegionsResponse, error) {
	if u.ID != userID && !u.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("users: obtener", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	out := &dto.EffectiveRegionsResponse{UserID: user.ID, Role: string(user.Role), Regions: []dto.RegionDTO{}}
	if !user.Active {
		return out, nil
	}
	set := access.RegionsForUser(user, user.Role)
	var regions []*entity.Region
	if set.IsAll() {
		out.AllRegions = true
		regions, err = uc.regions.List(ctx)
	} else if !set.IsEmpty() {
		regions, err = uc.regions.ListByIDs(ctx, set.IDs())
	}
	if err != nil {
		return nil, storeErr("users: regiones", err)
	}
	for _, r := range regions {
		out.Regions = append(out.Regions, dto.RegionDTO{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// Regions catálogo de regiones.
func (uc *UserUseCase) Regions(ctx context.Context) ([]dto.RegionDTO, error) {
	regions, err := uc.regions.List(ctx)
	if err != nil {
		return nil, storeErr("regions: listar", err)
	}
	return mapList(regions, func(r *entity.Region) dto.RegionDTO { return dto.RegionDTO{ID: r.ID, Name: r.Name} }), nil
}

// ChangeRole cambia el rol de un usuario. Solo Super Admin.
func (uc *UserUseCase) ChangeRole(ctx context.Context, u access.ActingUser, userID int64, req dto.ChangeRoleRequest) (*dto.UserResponse, error) {
	if err := uc.engine.AuthorizeRoleChange(u); err != nil {
		return nil, err
	}
	role, ok := entity.ParseRole(req.Role)
	if !ok {
		return nil, domain.NewValidationError("role", fmt.Sprintf("rol desconocido: %q", req.Role))
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("users: obtener", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	previous := user.Role
	if err := uc.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, storeErr("users: cambiar rol", err)
	}
	user.Role = role
	uc.audit.Record(ctx, u, ActionUserRoleChanged, entity.KindUser, userID, map[string]any{"from": string(previous), "to": string(role)})
	out := entityToUserResponse(user)
	return &out, nil
}

func entityToUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               string(u.Role),
		PrimaryRegionID:    u.PrimaryRegionID,
		SecondaryRegionIDs: append([]int64{}, u.SecondaryRegionIDs...),
		Active:             u.Active,
	}
}
