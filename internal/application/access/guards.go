package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

// OpportunityPolicy controla los chequeos de mutación de oportunidades.
type OpportunityPolicy struct {
	// EnforceScope exige que la oportunidad esté en el alcance de lectura del usuario.
	EnforceScope bool
	// LockClosed rechaza cambios sobre oportunidades en etapa terminal.
	LockClosed bool
}

// DefaultOpportunityPolicy alcance activo, sin bloqueo de cerradas.
func DefaultOpportunityPolicy() OpportunityPolicy {
	return OpportunityPolicy{EnforceScope: true}
}

// Policy devuelve la política vigente.
func (e *Engine) Policy() OpportunityPolicy { return e.policy }

// PrepareAccountCreate valida y normaliza una cuenta nueva según el rol:
//   - Sales Rep: status = Pending Approval y salesRepId = él mismo, ignorando lo enviado.
//     Sin región se usa su región principal.
//   - Regional Lead: la región debe estar en su conjunto efectivo.
//   - Super Admin: región obligatoria; status por defecto Prospect.
func (e *Engine) PrepareAccountCreate(ctx context.Context, u ActingUser, a *entity.Account) error {
	switch u.Role {
	case entity.RoleSalesRep:
		a.Status = entity.AccountStatusPendingApproval
		self := u.ID
		a.SalesRepID = &self
		if a.RegionID == 0 {
			user, _, err := e.regions.Membership(ctx, u)
			if err != nil {
				return domain.Unavailable("cargar usuario", err)
			}
			if user == nil || user.PrimaryRegionID == nil {
				return domain.NewValidationError("regionId", "regionId es requerido")
			}
			a.RegionID = *user.PrimaryRegionID
		}
		return nil
	case entity.RoleRegionalLead:
		if a.RegionID == 0 {
			return domain.NewValidationError("regionId", "regionId es requerido")
		}
		if !e.regions.EffectiveRegions(ctx, u).Contains(a.RegionID) {
			return domain.NewValidationError("regionId", "la región no pertenece a sus regiones asignadas")
		}
	case entity.RoleSuperAdmin:
		if a.RegionID == 0 {
			return domain.NewValidationError("regionId", "regionId es requerido")
		}
	default:
		return domain.ErrForbidden
	}
	if a.Status == "" {
		a.Status = entity.AccountStatusProspect
	}
	if !entity.ValidAccountStatus(a.Status) {
		return domain.NewValidationError("status", fmt.Sprintf("estado de cuenta inválido: %q", a.Status))
	}
	return nil
}

// PrepareLeadCreate valida y normaliza un lead nuevo según el rol:
//   - Sales Rep: owner = él mismo, región = su región principal.
//   - Regional Lead: la región enviada debe estar en su conjunto; sin región se usa la principal.
//   - Super Admin: se respeta lo enviado.
func (e *Engine) PrepareLeadCreate(ctx context.Context, u ActingUser, l *entity.Lead) error {
	if l.Status == "" {
		l.Status = entity.LeadStatusNew
	}
	switch u.Role {
	case entity.RoleSuperAdmin:
		return nil
	case entity.RoleSalesRep:
		user, _, err := e.regions.Membership(ctx, u)
		if err != nil {
			return domain.Unavailable("cargar usuario", err)
		}
		self := u.ID
		l.OwnerID = &self
		l.RegionID = nil
		if user != nil && user.PrimaryRegionID != nil {
			region := *user.PrimaryRegionID
			l.RegionID = &region
		}
		return nil
	case entity.RoleRegionalLead:
		user, regions, err := e.regions.Membership(ctx, u)
		if err != nil {
			return domain.Unavailable("cargar usuario", err)
		}
		if l.RegionID != nil {
			if !regions.Contains(*l.RegionID) {
				return domain.NewValidationError("regionId", "la región no pertenece a sus regiones asignadas")
			}
			return nil
		}
		if user == nil || user.PrimaryRegionID == nil {
			return domain.NewValidationError("regionId", "regionId es requerido")
		}
		region := *user.PrimaryRegionID
		l.RegionID = &region
		return nil
	}
	return domain.ErrForbidden
}

// AuthorizeAccountAdmin aprobar, rechazar o eliminar una cuenta: Super Admin, o Regional Lead
// con la cuenta dentro de sus regiones. Devuelve la cuenta cargada.
func (e *Engine) AuthorizeAccountAdmin(ctx context.Context, u ActingUser, accountID int64) (*entity.Account, error) {
	acc, err := e.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, domain.Unavailable("cargar cuenta", err)
	}
	if acc == nil {
		return nil, domain.ErrNotFound
	}
	switch u.Role {
	case entity.RoleSuperAdmin:
		return acc, nil
	case entity.RoleRegionalLead:
		if e.regions.EffectiveRegions(ctx, u).Contains(acc.RegionID) {
			return acc, nil
		}
	}
	if e.denials != nil {
		e.denials.RecordAccessDenied(string(entity.KindAccount), string(u.Role))
	}
	return nil, domain.ErrForbidden
}

// AuthorizeRoleChange solo Super Admin puede cambiar el rol de un usuario.
func (e *Engine) AuthorizeRoleChange(u ActingUser) error {
	if u.IsSuperAdmin() {
		return nil
	}
	return domain.ErrForbidden
}

// AuthorizeLink valida que el padre de un registro nuevo (Task, Contact) exista y sea visible.
// Ambos casos se reportan como error de validación del campo.
func (e *Engine) AuthorizeLink(ctx context.Context, u ActingUser, ref entity.RelatedEntity) error {
	err := e.Authorize(ctx, u, ref.Kind, ref.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return domain.NewValidationError("relatedEntityId",
			fmt.Sprintf("%s %d no existe o está fuera de su alcance", ref.Kind, ref.ID))
	}
	return err
}

// AuthorizeOpportunityMutation aplica OpportunityPolicy antes de mover etapa, ganar o perder.
func (e *Engine) AuthorizeOpportunityMutation(ctx context.Context, u ActingUser, opp *entity.Opportunity) error {
	if opp == nil {
		return domain.ErrNotFound
	}
	if e.policy.EnforceScope {
		if err := e.Check(ctx, u, entity.KindOpportunity, opp); err != nil {
			return err
		}
	}
	if e.policy.LockClosed && entity.IsClosedStage(opp.Stage) {
		return fmt.Errorf("oportunidad %d en etapa %q: %w", opp.ID, opp.Stage, domain.ErrConflict)
	}
	return nil
}
