package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/usecase"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
)

var (
	admin  = access.ActingUser{ID: 1, Role: entity.RoleSuperAdmin}
	rep7   = access.ActingUser{ID: 7, Role: entity.RoleSalesRep}
	rep8   = access.ActingUser{ID: 8, Role: entity.RoleSalesRep}
	lead20 = access.ActingUser{ID: 20, Role: entity.RoleRegionalLead}
)

func ptr(v int64) *int64 { return &v }

// eventLog publicador en memoria.
type eventLog struct {
	mu     sync.Mutex
	audits []ports.AuditEvent
}

func (l *eventLog) PublishAudit(_ context.Context, ev ports.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.audits = append(l.audits, ev)
	return nil
}

func (l *eventLog) PublishStalledDigest(context.Context, ports.StalledDigest) error { return nil }

func (l *eventLog) actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.audits))
	for _, ev := range l.audits {
		out = append(out, ev.Action)
	}
	return out
}

type env struct {
	store  *memory.Store
	engine *access.Engine
	events *eventLog
	audit  *usecase.Auditor
	stores access.Stores
}

// newEnv región 5 Norte y 6 Sur; cuentas 1 (5, rep 7, activa), 2 (5, rep 7, pendiente),
// 3 (6, rep 8, pendiente); oportunidades 1 (cuenta 1) y 2 (cuenta 3, Closed Won).
func newEnv(t *testing.T, opts ...access.Option) *env {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Regions().Create(ctx, &entity.Region{ID: 5, Name: "Norte"}))
	require.NoError(t, s.Regions().Create(ctx, &entity.Region{ID: 6, Name: "Sur"}))
	for _, u := range []*entity.User{
		{ID: 1, Name: "Ana Admin", Email: "ana@crm.test", Role: entity.RoleSuperAdmin, Active: true},
		{ID: 7, Name: "Rita Rep", Email: "rita@crm.test", Role: entity.RoleSalesRep, PrimaryRegionID: ptr(5), Active: true},
		{ID: 8, Name: "Raúl Rep", Email: "raul@crm.test", Role: entity.RoleSalesRep, PrimaryRegionID: ptr(6), Active: true},
		{ID: 20, Name: "Lucía Lead", Email: "lucia@crm.test", Role: entity.RoleRegionalLead, PrimaryRegionID: ptr(5), SecondaryRegionIDs: []int64{9}, Active: true},
	} {
		require.NoError(t, s.Users().Create(ctx, u))
	}
	for _, a := range []*entity.Account{
		{ID: 1, Name: "Acme", RegionID: 5, SalesRepID: ptr(7), Status: entity.AccountStatusActive},
		{ID: 2, Name: "Globex", RegionID: 5, SalesRepID: ptr(7), Status: entity.AccountStatusPendingApproval},
		{ID: 3, Name: "Initech", RegionID: 6, SalesRepID: ptr(8), Status: entity.AccountStatusPendingApproval},
	} {
		require.NoError(t, s.Accounts().Create(ctx, a))
	}
	closeDate := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Opportunities().Create(ctx, &entity.Opportunity{ID: 1, Name: "O1", AccountID: 1, Stage: entity.StageProposal, Amount: decimal.NewFromInt(100000), OwnerID: ptr(7), CloseDate: closeDate}))
	require.NoError(t, s.Opportunities().Create(ctx, &entity.Opportunity{ID: 2, Name: "O2", AccountID: 3, Stage: entity.StageClosedWon, Amount: decimal.NewFromInt(5000), OwnerID: ptr(8), CloseDate: closeDate}))
	require.NoError(t, s.Contacts().Create(ctx, &entity.Contact{ID: 1, AccountID: 1, FirstName: "Carla"}))
	require.NoError(t, s.Contacts().Create(ctx, &entity.Contact{ID: 2, AccountID: 3, FirstName: "Carlos"}))

	stores := s.Stores()
	engine := access.NewEngine(access.NewRegionResolver(s.Users(), nil), stores, nil, opts...)
	events := &eventLog{}
	audit := usecase.NewAuditor(events, nil, usecase.WithAuditLog(s.AuditLogs()))
	return &env{store: s, engine: engine, events: events, audit: audit, stores: stores}
}
