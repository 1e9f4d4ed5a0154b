package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// AccountUseCase lectura, alta y ciclo de aprobación de cuentas, más las lecturas anidadas
// (contactos, oportunidades, tareas y documentos de una cuenta).
type AccountUseCase struct {
	engine *access.Engine
	stores access.Stores
	audit  *Auditor
	now    func() time.Time
}

// NewAccountUseCase construye el caso de uso.
func NewAccountUseCase(engine *access.Engine, stores access.Stores, audit *Auditor) *AccountUseCase {
	return &AccountUseCase{engine: engine, stores: stores, audit: audit, now: time.Now}
}

// List cuentas visibles para el usuario, con filtros opcionales.
func (uc *AccountUseCase) List(ctx context.Context, u access.ActingUser, req dto.AccountListRequest) (*dto.ListResponse[dto.AccountResponse], error) {
	page := toPage(req.PageRequest)
	rows, err := uc.stores.Accounts.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindAccount), repository.AccountFilter{
		Status:     strings.TrimSpace(req.Status),
		RegionID:   optID(req.RegionID),
		SalesRepID: optID(req.SalesRepID),
		Page:       page,
	})
	if err != nil {
		return nil, storeErr("accounts: listar", err)
	}
	return &dto.ListResponse[dto.AccountResponse]{Items: mapList(rows, toAccountResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID detalle de una cuenta: NotFound si no existe, Forbidden si está fuera de alcance.
func (uc *AccountUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.AccountResponse, error) {
	a, err := uc.stores.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("accounts: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindAccount, a); err != nil {
		return nil, err
	}
	out := toAccountResponse(a)
	return &out, nil
}

// Create crea una cuenta aplicando las reglas de alta por rol.
func (uc *AccountUseCase) Create(ctx context.Context, u access.ActingUser, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	a := &entity.Account{
		Name:       strings.TrimSpace(req.Name),
		Industry:   req.Industry,
		Website:    req.Website,
		Phone:      req.Phone,
		RegionID:   req.RegionID,
		SalesRepID: req.SalesRepID,
		Status:     req.Status,
	}
	if a.Name == "" {
		return nil, domain.NewValidationError("name", "name es requerido")
	}
	if err := uc.engine.PrepareAccountCreate(ctx, u, a); err != nil {
		return nil, err
	}
	if err := uc.stores.Accounts.Create(ctx, a); err != nil {
		return nil, storeErr("accounts: crear", err)
	}
	uc.audit.Record(ctx, u, ActionAccountCreated, entity.KindAccount, a.ID, map[string]any{"status": a.Status, "regionId": a.RegionID})
	return uc.reload(ctx, a)
}

// Approve pasa una cuenta de Pending Approval a Active.
func (uc *AccountUseCase) Approve(ctx context.Context, u access.ActingUser, id int64) (*dto.AccountResponse, error) {
	a, err := uc.pending(ctx, u, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if err := uc.stores.Accounts.UpdateStatus(ctx, id, entity.AccountStatusActive, now); err != nil {
		return nil, storeErr("accounts: aprobar", err)
	}
	a.Status, a.UpdatedAt = entity.AccountStatusActive, now
	uc.audit.Record(ctx, u, ActionAccountApproved, entity.KindAccount, id, nil)
	return uc.reload(ctx, a)
}

// Reject descarta una solicitud de cuenta pendiente (la elimina).
func (uc *AccountUseCase) Reject(ctx context.Context, u access.ActingUser, id int64, req dto.RejectAccountRequest) error {
	if _, err := uc.pending(ctx, u, id); err != nil {
		return err
	}
	if err := uc.stores.Accounts.Delete(ctx, id); err != nil {
		return storeErr("accounts: rechazar", err)
	}
	uc.audit.Record(ctx, u, ActionAccountRejected, entity.KindAccount, id, map[string]any{"reason": req.Reason})
	return nil
}

// Delete elimina una cuenta con sus contactos y oportunidades.
func (uc *AccountUseCase) Delete(ctx context.Context, u access.ActingUser, id int64) error {
	if _, err := uc.engine.AuthorizeAccountAdmin(ctx, u, id); err != nil {
		return err
	}
	if err := uc.stores.Accounts.Delete(ctx, id); err != nil {
		return storeErr("accounts: eliminar", err)
	}
	uc.audit.Record(ctx, u, ActionAccountDeleted, entity.KindAccount, id, nil)
	return nil
}

func (uc *AccountUseCase) pending(ctx context.Context, u access.ActingUser, id int64) (*entity.Account, error) {
	a, err := uc.engine.AuthorizeAccountAdmin(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if a.Status != entity.AccountStatusPendingApproval {
		return nil, fmt.Errorf("cuenta %d en estado %q, no pendiente de aprobación: %w", id, a.Status, domain.ErrConflict)
	}
	return a, nil
}

// reload relee la cuenta para devolver los nombres resueltos (región, sales rep).
func (uc *AccountUseCase) reload(ctx context.Context, a *entity.Account) (*dto.AccountResponse, error) {
	fresh, err := uc.stores.Accounts.GetByID(ctx, a.ID)
	if err == nil && fresh != nil {
		a = fresh
	}
	out := toAccountResponse(a)
	return &out, nil
}

// ── Lecturas anidadas ────────────────────────────────────────────────────────
// Primero se verifica la cuenta (NotFound/Forbidden); después se listan los hijos con su
// propio predicado, así un hijo nunca es más visible por la ruta anidada que por la directa.

// Contacts contactos de la cuenta.
func (uc *AccountUseCase) Contacts(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[dto.ContactResponse], error) {
	if err := uc.engine.Authorize(ctx, u, entity.KindAccount, id); err != nil {
		return nil, err
	}
	page := toPage(p)
	rows, err := uc.stores.Contacts.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindContact), repository.ContactFilter{AccountID: &id, Page: page})
	if err != nil {
		return nil, storeErr("accounts: contactos", err)
	}
	return &dto.ListResponse[dto.ContactResponse]{Items: mapList(rows, toContactResponse), Page: pageResponse(page, len(rows))}, nil
}

// Opportunities oportunidades de la cuenta.
func (uc *AccountUseCase) Opportunities(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[dto.OpportunityResponse], error) {
	if err := uc.engine.Authorize(ctx, u, entity.KindAccount, id); err != nil {
		return nil, err
	}
	page := toPage(p)
	rows, err := uc.stores.Opportunities.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindOpportunity), repository.OpportunityFilter{AccountID: &id, Page: page})
	if err != nil {
		return nil, storeErr("accounts: oportunidades", err)
	}
	return &dto.ListResponse[dto.OpportunityResponse]{Items: mapList(rows, toOpportunityResponse), Page: pageResponse(page, len(rows))}, nil
}

// Tasks tareas ligadas a la cuenta.
func (uc *AccountUseCase) Tasks(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[dto.TaskResponse], error) {
	if err := uc.engine.Authorize(ctx, u, entity.KindAccount, id); err != nil {
		return nil, err
	}
	return listRelatedTasks(ctx, uc.engine, uc.stores.Tasks, u, entity.RelatedEntity{Kind: entity.KindAccount, ID: id}, p)
}

// Documents documentos ligados a la cuenta.
func (uc *AccountUseCase) Documents(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[dto.DocumentResponse], error) {
	if err := uc.engine.Authorize(ctx, u, entity.KindAccount, id); err != nil {
		return nil, err
	}
	return listRelatedDocuments(ctx, uc.engine, uc.stores.Documents, u, entity.RelatedEntity{Kind: entity.KindAccount, ID: id}, p)
}

func toAccountResponse(a *entity.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Industry:     a.Industry,
		Website:      a.Website,
		Phone:        a.Phone,
		RegionID:     a.RegionID,
		RegionName:   a.RegionName,
		SalesRepID:   a.SalesRepID,
		SalesRepName: a.SalesRepName,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
