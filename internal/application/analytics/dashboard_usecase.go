// Package analytics arma el dashboard de pipeline: KPIs, embudo, forecast y negocios
// estancados sobre las oportunidades visibles para quien consulta.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

const cacheName = "dashboard"

// Recorder métricas del dashboard (pkg/metrics las implementa).
type Recorder interface {
	RecordDashboard(role string, seconds float64)
	RecordCache(cache string, hit bool)
}

// DashboardUseCase construye el reporte del dashboard para el usuario que actúa.
type DashboardUseCase struct {
	engine   *access.Engine
	opps     repository.OpportunityRepository
	users    repository.UserRepository
	regions  repository.RegionRepository
	log      *logger.Logger
	cache    ports.ReportCache
	cacheTTL time.Duration
	recorder Recorder
	now      func() time.Time
}

// DashboardOption configuración opcional del caso de uso.
type DashboardOption func(*DashboardUseCase)

// WithReportCache activa la caché de reportes. ttl <= 0 la desactiva.
func WithReportCache(c ports.ReportCache, ttl time.Duration) DashboardOption {
	return func(uc *DashboardUseCase) {
		if ttl > 0 {
			uc.cache, uc.cacheTTL = c, ttl
		}
	}
}

// WithRecorder registra métricas de cálculo y caché.
func WithRecorder(r Recorder) DashboardOption {
	return func(uc *DashboardUseCase) { uc.recorder = r }
}

// WithClock fija el reloj (tests).
func WithClock(now func() time.Time) DashboardOption {
	return func(uc *DashboardUseCase) { uc.now = now }
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	engine *access.Engine,
	opps repository.OpportunityRepository,
	users repository.UserRepository,
	regions repository.RegionRepository,
	log *logger.Logger,
	opts ...DashboardOption,
) *DashboardUseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &DashboardUseCase{engine: engine, opps: opps, users: users, regions: regions, log: log, now: time.Now}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// GetDashboard arma el reporte completo.
//
// Dos consultas en paralelo:
//  1. Usuario y región para el bloque scope.
//  2. Oportunidades con el predicado de alcance del usuario.
func (uc *DashboardUseCase) GetDashboard(ctx context.Context, u access.ActingUser, req dto.DashboardRequest) (*dto.DashboardDTO, error) {
	now := uc.now()
	w, err := ParseWindow(req.DateFrom, req.DateTo, now)
	if err != nil {
		return nil, err
	}

	key := cacheKey(u, req, now)
	if cached := uc.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	start := time.Now()

	type scopeResult struct {
		scope dto.ScopeDTO
		err   error
	}
	type oppsResult struct {
		rows []*entity.Opportunity
		err  error
	}

	scopeCh := make(chan scopeResult, 1)
	oppsCh := make(chan oppsResult, 1)

	go func() {
		s, err := uc.buildScope(ctx, u)
		scopeCh <- scopeResult{s, err}
	}()
	go func() {
		rows, err := uc.opps.ListWhere(ctx, uc.engine.ListFilter(ctx, u, entity.KindOpportunity), repository.OpportunityFilter{})
		oppsCh <- oppsResult{rows, err}
	}()

	sc := <-scopeCh
	op := <-oppsCh

	if sc.err != nil {
		return nil, domain.Unavailable("dashboard: usuario", sc.err)
	}
	if op.err != nil {
		return nil, domain.Unavailable("dashboard: oportunidades", op.err)
	}

	report := BuildPipelineReport(op.rows, w, now, u.Role)
	out := &dto.DashboardDTO{
		Scope:         sc.scope,
		Kpis:          report.Kpis,
		Funnel:        report.Funnel,
		ForecastByRep: report.ForecastByRep,
		ForecastPivot: report.ForecastPivot,
		StalledDeals:  report.StalledDeals,
	}

	if uc.recorder != nil {
		uc.recorder.RecordDashboard(string(u.Role), time.Since(start).Seconds())
	}
	uc.toCache(ctx, key, out)
	return out, nil
}

// buildScope nombre y región de quien consulta. Un Regional Lead sin región principal
// muestra la primera secundaria.
func (uc *DashboardUseCase) buildScope(ctx context.Context, u access.ActingUser) (dto.ScopeDTO, error) {
	s := dto.ScopeDTO{Role: string(u.Role), UserID: u.ID, UserName: unknownLabel}

	user, err := uc.users.GetByID(ctx, u.ID)
	if err != nil {
		return s, err
	}
	if user == nil {
		return s, nil
	}
	if user.Name != "" {
		s.UserName = user.Name
	}

	regionID := user.PrimaryRegionID
	if regionID == nil && u.Role == entity.RoleRegionalLead && len(user.SecondaryRegionIDs) > 0 {
		first := user.SecondaryRegionIDs[0]
		regionID = &first
	}
	if regionID == nil {
		return s, nil
	}
	region, err := uc.regions.GetByID(ctx, *regionID)
	if err != nil {
		return s, err
	}
	if region != nil {
		id := region.ID
		s.RegionID = &id
		s.RegionName = region.Name
	}
	return s, nil
}

func (uc *DashboardUseCase) fromCache(ctx context.Context, key string) *dto.DashboardDTO {
	if uc.cache == nil {
		return nil
	}
	report, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("dashboard: lectura de caché fallida")
		return nil
	}
	if uc.recorder != nil {
		uc.recorder.RecordCache(cacheName, ok)
	}
	if !ok {
		return nil
	}
	return report
}

func (uc *DashboardUseCase) toCache(ctx context.Context, key string, report *dto.DashboardDTO) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, report, uc.cacheTTL); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("dashboard: escritura de caché fallida")
	}
}

// cacheKey incluye el día de now: la ventana por defecto y los estancados dependen del reloj.
// Las mutaciones de cuentas, oportunidades y roles invalidan todo el prefijo (ver usecase.Auditor).
func cacheKey(u access.ActingUser, req dto.DashboardRequest, now time.Time) string {
	return fmt.Sprintf("%s%d:%s:%s:%s:%s", ports.DashboardCachePrefix, u.ID, StageKey(string(u.Role)),
		now.Format(dateLayout), strings.TrimSpace(req.DateFrom), strings.TrimSpace(req.DateTo))
}
