package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// invalidations caché de dashboard que solo anota los prefijos invalidados.
type invalidations struct {
	prefixes []string
	err      error
}

func (c *invalidations) Get(context.Context, string) (*dto.DashboardDTO, bool, error) {
	return nil, false, nil
}

func (c *invalidations) Set(context.Context, string, *dto.DashboardDTO, time.Duration) error {
	return nil
}

func (c *invalidations) Invalidate(_ context.Context, prefix string) error {
	c.prefixes = append(c.prefixes, prefix)
	return c.err
}

type failingAuditLog struct{ repository.AuditLogRepository }

func (failingAuditLog) Create(context.Context, *entity.AuditLog) error {
	return errors.New("disco lleno")
}

func TestAuditor_GuardaHistorial(t *testing.T) {
	e := newEnv(t)
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	audit := usecase.NewAuditor(e.events, nil, usecase.WithAuditLog(e.store.AuditLogs()), usecase.WithAuditClock(func() time.Time { return at }))
	ctx := context.Background()

	audit.Record(ctx, rep7, usecase.ActionOpportunityWon, entity.KindOpportunity, 1, map[string]any{"amount": "100000"})

	rows, err := e.store.AuditLogs().List(ctx, repository.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, usecase.ActionOpportunityWon, got.Action)
	assert.Equal(t, string(entity.KindOpportunity), got.EntityType)
	assert.Equal(t, int64(1), got.EntityID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "Rita Rep", got.UserName)
	assert.Equal(t, string(entity.RoleSalesRep), got.Role)
	assert.True(t, at.Equal(got.At))
	assert.Equal(t, "100000", got.Details["amount"])

	require.Len(t, e.events.audits, 1)
	assert.Equal(t, e.events.audits[0].ID, got.EventID, "historial y evento comparten id")
}

func TestAuditor_InvalidaDashboard(t *testing.T) {
	tests := []struct {
		action     string
		invalidate bool
	}{
		{usecase.ActionOpportunityWon, true},
		{usecase.ActionOpportunityLost, true},
		{usecase.ActionOpportunityMoved, true},
		{usecase.ActionOpportunityCreated, true},
		{usecase.ActionAccountApproved, true},
		{usecase.ActionAccountDeleted, true},
		{usecase.ActionUserRoleChanged, true},
		{usecase.ActionTaskCreated, false},
		{usecase.ActionTaskCompleted, false},
		{usecase.ActionContactCreated, false},
		{usecase.ActionLeadCreated, false},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			reports := &invalidations{}
			audit := usecase.NewAuditor(nil, nil, usecase.WithReportInvalidation(reports))

			audit.Record(context.Background(), admin, tt.action, entity.KindOpportunity, 1, nil)

			if tt.invalidate {
				assert.Equal(t, []string{"dashboard:"}, reports.prefixes)
			} else {
				assert.Empty(t, reports.prefixes)
			}
		})
	}
}

func TestAuditor_FallosNoInterrumpen(t *testing.T) {
	events := &eventLog{}
	reports := &invalidations{err: errors.New("redis caído")}
	audit := usecase.NewAuditor(events, nil, usecase.WithAuditLog(failingAuditLog{}), usecase.WithReportInvalidation(reports))

	assert.NotPanics(t, func() {
		audit.Record(context.Background(), admin, usecase.ActionAccountApproved, entity.KindAccount, 1, nil)
	})
	assert.Equal(t, []string{usecase.ActionAccountApproved}, events.actions())
	assert.Len(t, reports.prefixes, 1)

	var nilAuditor *usecase.Auditor
	assert.NotPanics(t, func() {
		nilAuditor.Record(context.Background(), admin, usecase.ActionAccountApproved, entity.KindAccount, 1, nil)
	})
}

// ── Historial ────────────────────────────────────────────────────────────────

func seedAuditLogs(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()
	for _, l := range []*entity.AuditLog{
		{EventID: "ev-1", UserID: 7, Role: "Sales Rep", Action: usecase.ActionTaskCreated, EntityType: "Task", EntityID: 1, At: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{EventID: "ev-2", UserID: 7, Role: "Sales Rep", Action: usecase.ActionOpportunityWon, EntityType: "Opportunity", EntityID: 1, At: time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)},
		{EventID: "ev-3", UserID: 1, Role: "Super Admin", Action: usecase.ActionAccountApproved, EntityType: "Account", EntityID: 2, At: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)},
		{EventID: "ev-4", UserID: 20, Role: "Regional Lead", Action: usecase.ActionOpportunityWon, EntityType: "Opportunity", EntityID: 3, At: time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)},
	} {
		require.NoError(t, e.store.AuditLogs().Create(ctx, l))
	}
}

func eventIDs(items []dto.AuditLogResponse) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.EventID)
	}
	return out
}

func TestAuditLogUseCase_List(t *testing.T) {
	e := newEnv(t)
	seedAuditLogs(t, e)
	uc := usecase.NewAuditLogUseCase(e.store.AuditLogs())
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.AuditLogListRequest
		want []string
	}{
		{"sin filtros, más reciente primero", dto.AuditLogListRequest{}, []string{"ev-4", "ev-3", "ev-2", "ev-1"}},
		{"por usuario", dto.AuditLogListRequest{UserID: 7}, []string{"ev-2", "ev-1"}},
		{"por acción", dto.AuditLogListRequest{Action: "opportunity.won"}, []string{"ev-4", "ev-2"}},
		{"por tipo sin distinguir mayúsculas", dto.AuditLogListRequest{EntityType: "account"}, []string{"ev-3"}},
		{"dateTo incluye el día completo", dto.AuditLogListRequest{DateFrom: "2026-03-02", DateTo: "2026-03-03"}, []string{"ev-3", "ev-2"}},
		{"RFC3339", dto.AuditLogListRequest{DateFrom: "2026-03-03T09:00:00Z"}, []string{"ev-4"}},
		{"paginado", dto.AuditLogListRequest{PageRequest: dto.PageRequest{Limit: 2, Offset: 1}}, []string{"ev-3", "ev-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := uc.List(ctx, admin, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eventIDs(out.Items))
		})
	}

	_, err := uc.List(ctx, lead20, dto.AuditLogListRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.List(ctx, admin, dto.AuditLogListRequest{DateFrom: "03/02/2026"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "dateFrom", verr.Field)

	_, err = uc.List(ctx, admin, dto.AuditLogListRequest{DateFrom: "2026-03-05", DateTo: "2026-03-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuditLogUseCase_GetByID(t *testing.T) {
	e := newEnv(t)
	seedAuditLogs(t, e)
	uc := usecase.NewAuditLogUseCase(e.store.AuditLogs())
	ctx := context.Background()

	all, err := uc.List(ctx, admin, dto.AuditLogListRequest{Action: usecase.ActionAccountApproved})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)

	got, err := uc.GetByID(ctx, admin, all.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ev-3", got.EventID)
	assert.Equal(t, "Ana Admin", got.UserName)

	_, err = uc.GetByID(ctx, rep7, all.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetByID(ctx, admin, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
