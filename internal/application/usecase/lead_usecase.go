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

// TxRunner ejecuta fn en una transacción con repositorios atados a ella.
// postgres.TxRunner y memory.Store la implementan.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(access.Stores) error) error
}

// LeadUseCase leads: listado, detalle, alta y conversión a cuenta.
type LeadUseCase struct {
	engine *access.Engine
	leads  repository.LeadRepository
	stores access.Stores
	tx     TxRunner
	audit  *Auditor
	now    func() time.Time
}

// NewLeadUseCase construye el caso de uso.
func NewLeadUseCase(engine *access.Engine, stores access.Stores, tx TxRunner, audit *Auditor) *LeadUseCase {
	return &LeadUseCase{engine: engine, leads: stores.Leads, stores: stores, tx: tx, audit: audit, now: time.Now}
}

// SetClock fija el reloj (tests).
func (uc *LeadUseCase) SetClock(now func() time.Time) { uc.now = now }

// List leads visibles.
func (uc *LeadUseCase) List(ctx context.Context, u access.ActingUser, req dto.LeadListRequest) (*dto.ListResponse[dto.LeadResponse], error) {
	page := toPage(req.PageRequest)
	rows, err := uc.leads.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindLead), repository.LeadFilter{
		Status:  strings.TrimSpace(req.Status),
		OwnerID: optID(req.OwnerID),
		Page:    page,
	})
	if err != nil {
		return nil, storeErr("leads: listar", err)
	}
	return &dto.ListResponse[dto.LeadResponse]{Items: mapList(rows, toLeadResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID detalle de un lead.
func (uc *LeadUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.LeadResponse, error) {
	l, err := uc.leads.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("leads: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindLead, l); err != nil {
		return nil, err
	}
	out := toLeadResponse(l)
	return &out, nil
}

// Create crea un lead aplicando las reglas de owner y región por rol.
func (uc *LeadUseCase) Create(ctx context.Context, u access.ActingUser, req dto.CreateLeadRequest) (*dto.LeadResponse, error) {
	l := &entity.Lead{
		Name:     strings.TrimSpace(req.Name),
		Company:  req.Company,
		Email:    req.Email,
		Phone:    req.Phone,
		Source:   req.Source,
		Status:   req.Status,
		OwnerID:  req.OwnerID,
		RegionID: req.RegionID,
	}
	if l.Name == "" {
		return nil, domain.NewValidationError("name", "name es requerido")
	}
	if err := uc.engine.PrepareLeadCreate(ctx, u, l); err != nil {
		return nil, err
	}
	if err := uc.leads.Create(ctx, l); err != nil {
		return nil, storeErr("leads: crear", err)
	}
	uc.audit.Record(ctx, u, ActionLeadCreated, entity.KindLead, l.ID, nil)
	if fresh, err := uc.leads.GetByID(ctx, l.ID); err == nil && fresh != nil {
		l = fresh
	}
	out := toLeadResponse(l)
	return &out, nil
}

// Convert crea una cuenta Prospect a partir del lead y lo marca Converted, todo en una
// transacción. Solo Super Admin.
func (uc *LeadUseCase) Convert(ctx context.Context, u access.ActingUser, id int64, req dto.ConvertLeadRequest) (*dto.ConvertLeadResponse, error) {
	if !u.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	l, err := uc.leads.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("leads: obtener", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	if l.Status == entity.LeadStatusConverted || l.ConvertedAt != nil {
		return nil, fmt.Errorf("lead %d ya convertido: %w", id, domain.ErrConflict)
	}

	a := &entity.Account{
		Name:       strings.TrimSpace(req.AccountName),
		RegionID:   req.RegionID,
		SalesRepID: req.SalesRepID,
		Phone:      l.Phone,
		Status:     entity.AccountStatusProspect,
	}
	if a.Name == "" {
		a.Name = strings.TrimSpace(l.Company)
	}
	if a.Name == "" {
		a.Name = l.Name
	}
	if a.RegionID == 0 {
		if r := l.EffectiveRegionID(); r != nil {
			a.RegionID = *r
		}
	}
	if a.SalesRepID == nil {
		a.SalesRepID = l.OwnerID
	}
	if err := uc.engine.PrepareAccountCreate(ctx, u, a); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	err = uc.tx.RunInTx(ctx, func(st access.Stores) error {
		if err := st.Accounts.Create(ctx, a); err != nil {
			return err
		}
		return st.Leads.MarkConverted(ctx, id, now)
	})
	if err != nil {
		return nil, storeErr("leads: convertir", err)
	}
	uc.audit.Record(ctx, u, ActionLeadConverted, entity.KindLead, id, map[string]any{"accountId": a.ID})

	out := &dto.ConvertLeadResponse{}
	if fresh, err := uc.leads.GetByID(ctx, id); err == nil && fresh != nil {
		l = fresh
	} else {
		l.Status, l.ConvertedAt = entity.LeadStatusConverted, &now
	}
	out.Lead = toLeadResponse(l)
	if fresh, err := uc.stores.Accounts.GetByID(ctx, a.ID); err == nil && fresh != nil {
		a = fresh
	}
	out.Account = toAccountResponse(a)
	return out, nil
}

func toLeadResponse(l *entity.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:          l.ID,
		Name:        l.Name,
		Company:     l.Company,
		Email:       l.Email,
		Phone:       l.Phone,
		Source:      l.Source,
		Status:      l.Status,
		OwnerID:     l.OwnerID,
		OwnerName:   l.OwnerName,
		RegionID:    l.RegionID,
		ConvertedAt: l.ConvertedAt,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
