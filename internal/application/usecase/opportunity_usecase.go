package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// OpportunityUseCase oportunidades: lectura, alta y movimientos de etapa.
// Las mutaciones pasan por access.OpportunityPolicy.
type OpportunityUseCase struct {
	engine *access.Engine
	stores access.Stores
	audit  *Auditor
	now    func() time.Time
}

// NewOpportunityUseCase construye el caso de uso.
func NewOpportunityUseCase(engine *access.Engine, stores access.Stores, audit *Auditor) *OpportunityUseCase {
	return &OpportunityUseCase{engine: engine, stores: stores, audit: audit, now: time.Now}
}

// SetClock fija el reloj (tests).
func (uc *OpportunityUseCase) SetClock(now func() time.Time) { uc.now = now }

// List oportunidades visibles.
func (uc *OpportunityUseCase) List(ctx context.Context, u access.ActingUser, req dto.OpportunityListRequest) (*dto.ListResponse[dto.OpportunityResponse], error) {
	page := toPage(req.PageRequest)
	rows, err := uc.stores.Opportunities.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindOpportunity), repository.OpportunityFilter{
		Stage:     strings.TrimSpace(req.Stage),
		AccountID: optID(req.AccountID),
		OwnerID:   optID(req.OwnerID),
		OpenOnly:  req.OpenOnly,
		Page:      page,
	})
	if err != nil {
		return nil, storeErr("opportunities: listar", err)
	}
	return &dto.ListResponse[dto.OpportunityResponse]{Items: mapList(rows, toOpportunityResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID detalle de una oportunidad.
func (uc *OpportunityUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.OpportunityResponse, error) {
	o, err := uc.stores.Opportunities.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("opportunities: obtener", err)
	}
	if err := uc.engine.Check(ctx, u, entity.KindOpportunity, o); err != nil {
		return nil, err
	}
	out := toOpportunityResponse(o)
	return &out, nil
}

// Create crea una oportunidad sobre una cuenta visible. Sin owner queda a nombre de quien la crea.
func (uc *OpportunityUseCase) Create(ctx context.Context, u access.ActingUser, req dto.CreateOpportunityRequest) (*dto.OpportunityResponse, error) {
	o := &entity.Opportunity{
		Name:      strings.TrimSpace(req.Name),
		AccountID: req.AccountID,
		Stage:     req.Stage,
		Amount:    req.Amount,
		OwnerID:   req.OwnerID,
		CloseDate: req.CloseDate,
	}
	if o.Name == "" {
		return nil, domain.NewValidationError("name", "name es requerido")
	}
	if o.Amount.IsNegative() {
		return nil, domain.NewValidationError("amount", "amount no puede ser negativo")
	}
	if o.Stage == "" {
		o.Stage = entity.StageProspecting
	}
	if entity.IsClosedStage(o.Stage) {
		return nil, domain.NewValidationError("stage", "use win/lose para cerrar una oportunidad")
	}
	if err := uc.engine.AuthorizeLink(ctx, u, entity.RelatedEntity{Kind: entity.KindAccount, ID: o.AccountID}); err != nil {
		return nil, err
	}
	self := u.ID
	if o.OwnerID == nil || (u.Role == entity.RoleSalesRep && uc.engine.Policy().EnforceScope) {
		o.OwnerID = &self
	}
	if err := uc.stores.Opportunities.Create(ctx, o); err != nil {
		return nil, storeErr("opportunities: crear", err)
	}
	uc.audit.Record(ctx, u, ActionOpportunityCreated, entity.KindOpportunity, o.ID, map[string]any{"accountId": o.AccountID, "stage": o.Stage})
	return uc.reload(ctx, o)
}

// MoveStage mueve una oportunidad a otra etapa no terminal y opcionalmente cambia el owner.
func (uc *OpportunityUseCase) MoveStage(ctx context.Context, u access.ActingUser, id int64, req dto.MoveStageRequest) (*dto.OpportunityResponse, error) {
	if entity.IsClosedStage(req.Stage) {
		return nil, domain.NewValidationError("stage", "use win/lose para cerrar una oportunidad")
	}
	o, err := uc.loadForMutation(ctx, u, id)
	if err != nil {
		return nil, err
	}
	from := o.Stage
	if req.OwnerID != nil && !sameID(req.OwnerID, o.OwnerID) {
		if u.Role == entity.RoleSalesRep && uc.engine.Policy().EnforceScope {
			return nil, domain.ErrForbidden
		}
		o.OwnerID = req.OwnerID
	}
	// wonAt/lostAt/lostReason se conservan al reabrir.
	o.Stage = req.Stage
	return uc.save(ctx, u, o, ActionOpportunityMoved, map[string]any{"from": from, "to": o.Stage})
}

// Win marca la oportunidad como Closed Won.
func (uc *OpportunityUseCase) Win(ctx context.Context, u access.ActingUser, id int64) (*dto.OpportunityResponse, error) {
	o, err := uc.loadForMutation(ctx, u, id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	o.Stage = entity.StageClosedWon
	o.WonAt = &now
	return uc.save(ctx, u, o, ActionOpportunityWon, nil)
}

// Lose marca la oportunidad como Closed Lost con su motivo.
func (uc *OpportunityUseCase) Lose(ctx context.Context, u access.ActingUser, id int64, req dto.LoseOpportunityRequest) (*dto.OpportunityResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "reason es requerido")
	}
	o, err := uc.loadForMutation(ctx, u, id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	o.Stage = entity.StageClosedLost
	o.LostAt, o.LostReason = &now, reason
	return uc.save(ctx, u, o, ActionOpportunityLost, map[string]any{"reason": reason})
}

// Activities tareas ligadas a la oportunidad.
func (uc *OpportunityUseCase) Activities(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[dto.TaskResponse], error) {
	if err := uc.engine.Authorize(ctx, u, entity.KindOpportunity, id); err != nil {
		return nil, err
	}
	return listRelatedTasks(ctx, uc.engine, uc.stores.Tasks, u, entity.RelatedEntity{Kind: entity.KindOpportunity, ID: id}, p)
}

// Documents documentos ligados a la oportunidad.
func (uc *OpportunityUseCase) Documents(ctx context.Context, u access.ActingUser, id int64, p dto.PageRequest) (*dto.ListResponse[dto.DocumentResponse], error) {
	if err := uc.engine.Authorize(ctx, u, entity.KindOpportunity, id); err != nil {
		return nil, err
	}
	return listRelatedDocuments(ctx, uc.engine, uc.stores.Documents, u, entity.RelatedEntity{Kind: entity.KindOpportunity, ID: id}, p)
}

func (uc *OpportunityUseCase) loadForMutation(ctx context.Context, u access.ActingUser, id int64) (*entity.Opportunity, error) {
	o, err := uc.stores.Opportunities.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("opportunities: obtener", err)
	}
	if err := uc.engine.AuthorizeOpportunityMutation(ctx, u, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *OpportunityUseCase) save(ctx context.Context, u access.ActingUser, o *entity.Opportunity, action string, details map[string]any) (*dto.OpportunityResponse, error) {
	o.UpdatedAt = uc.now().UTC()
	if err := uc.stores.Opportunities.Update(ctx, o); err != nil {
		return nil, storeErr("opportunities: actualizar", err)
	}
	uc.audit.Record(ctx, u, action, entity.KindOpportunity, o.ID, details)
	return uc.reload(ctx, o)
}

func (uc *OpportunityUseCase) reload(ctx context.Context, o *entity.Opportunity) (*dto.OpportunityResponse, error) {
	if fresh, err := uc.stores.Opportunities.GetByID(ctx, o.ID); err == nil && fresh != nil {
		o = fresh
	}
	out := toOpportunityResponse(o)
	return &out, nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func toOpportunityResponse(o *entity.Opportunity) dto.OpportunityResponse {
	return dto.OpportunityResponse{
		ID:          o.ID,
		Name:        o.Name,
		AccountID:   o.AccountID,
		AccountName: o.AccountName,
		RegionID:    o.AccountRegionID,
		RegionName:  o.RegionName,
		Stage:       o.Stage,
		Amount:      o.Amount,
		OwnerID:     o.OwnerID,
		OwnerName:   o.OwnerName,
		CloseDate:   o.CloseDate,
		WonAt:       o.WonAt,
		LostAt:      o.LostAt,
		LostReason:  o.LostReason,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
