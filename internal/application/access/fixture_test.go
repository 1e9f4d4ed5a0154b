package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture común
//
//	Regiones: 5 Norte, 6 Sur
//	Usuarios: 1 Super Admin · 7 y 8 Sales Rep (regiones 5 y 6) · 20 Regional Lead (5)
//	          21 Regional Lead sin regiones · 22 Regional Lead (5 + 6) · 30 Regional Lead inactivo
//	Cuentas:  1, 2 (región 5, rep 7) · 3 (región 6, rep 8) · 9 (región 5, rep 8) · 10 (región 6, sin rep)
// ──────────────────────────────────────────────────────────────────────────────

var (
	superAdmin = access.ActingUser{ID: 1, Role: entity.RoleSuperAdmin}
	rep7       = access.ActingUser{ID: 7, Role: entity.RoleSalesRep}
	rep8       = access.ActingUser{ID: 8, Role: entity.RoleSalesRep}
	lead20     = access.ActingUser{ID: 20, Role: entity.RoleRegionalLead}
	lead21     = access.ActingUser{ID: 21, Role: entity.RoleRegionalLead}
	lead22     = access.ActingUser{ID: 22, Role: entity.RoleRegionalLead}
	lead30     = access.ActingUser{ID: 30, Role: entity.RoleRegionalLead}
)

func ptr(v int64) *int64 { return &v }

type fixture struct {
	store   *memory.Store
	engine  *access.Engine
	denials *denialCounter
}

type denialCounter struct{ n int }

func (d *denialCounter) RecordAccessDenied(string, string) { d.n++ }

func newFixture(t *testing.T, opts ...access.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	for _, r := range []*entity.Region{{ID: 5, Name: "Norte"}, {ID: 6, Name: "Sur"}} {
		require.NoError(t, s.Regions().Create(ctx, r))
	}
	users := []*entity.User{
		{ID: 1, Name: "Ana Admin", Role: entity.RoleSuperAdmin, Active: true},
		{ID: 7, Name: "Rita Rep", Role: entity.RoleSalesRep, PrimaryRegionID: ptr(5), Active: true},
		{ID: 8, Name: "Raúl Rep", Role: entity.RoleSalesRep, PrimaryRegionID: ptr(6), Active: true},
		{ID: 20, Name: "Lucía Lead", Role: entity.RoleRegionalLead, PrimaryRegionID: ptr(5), Active: true},
		{ID: 21, Name: "Leo Lead", Role: entity.RoleRegionalLead, Active: true},
		{ID: 22, Name: "Lola Lead", Role: entity.RoleRegionalLead, PrimaryRegionID: ptr(5), SecondaryRegionIDs: []int64{6}, Active: true},
		{ID: 30, Name: "Iván Inactivo", Role: entity.RoleRegionalLead, PrimaryRegionID: ptr(5), Active: false},
	}
	for _, u := range users {
		require.NoError(t, s.Users().Create(ctx, u))
	}
	accounts := []*entity.Account{
		{ID: 1, Name: "Acme", RegionID: 5, SalesRepID: ptr(7), Status: entity.AccountStatusActive},
		{ID: 2, Name: "Globex", RegionID: 5, SalesRepID: ptr(7), Status: entity.AccountStatusPendingApproval},
		{ID: 3, Name: "Initech", RegionID: 6, SalesRepID: ptr(8), Status: entity.AccountStatusActive},
		{ID: 9, Name: "Umbrella", RegionID: 5, SalesRepID: ptr(8), Status: entity.AccountStatusProspect},
		{ID: 10, Name: "Hooli", RegionID: 6, Status: entity.AccountStatusProspect},
	}
	for _, a := range accounts {
		require.NoError(t, s.Accounts().Create(ctx, a))
	}
	now := time.Now()
	opps := []*entity.Opportunity{
		{ID: 1, Name: "O1", AccountID: 1, Stage: entity.StageProposal, Amount: decimal.NewFromInt(100000), OwnerID: ptr(7), CloseDate: now},
		{ID: 2, Name: "O2", AccountID: 3, Stage: entity.StageNegotiation, Amount: decimal.NewFromInt(5000), OwnerID: ptr(8), CloseDate: now},
		{ID: 3, Name: "O3", AccountID: 9, Stage: entity.StageClosedWon, Amount: decimal.NewFromInt(700), OwnerID: ptr(8), CloseDate: now},
	}
	for _, o := range opps {
		require.NoError(t, s.Opportunities().Create(ctx, o))
	}
	leads := []*entity.Lead{
		{ID: 1, Name: "Lead con owner", OwnerID: ptr(7), RegionID: ptr(6)},
		{ID: 2, Name: "Lead Sur sin owner", RegionID: ptr(6)},
		{ID: 3, Name: "Lead huérfano"},
	}
	for _, l := range leads {
		require.NoError(t, s.Leads().Create(ctx, l))
	}
	contacts := []*entity.Contact{
		{ID: 1, AccountID: 1, FirstName: "Carla"},
		{ID: 2, AccountID: 3, FirstName: "Carlos"},
	}
	for _, c := range contacts {
		require.NoError(t, s.Contacts().Create(ctx, c))
	}
	tasks := []*entity.Task{
		{ID: 1, Subject: "Llamar a Acme", Related: entity.RelatedEntity{Kind: entity.KindAccount, ID: 1}},
		{ID: 2, Subject: "Visitar Initech", Related: entity.RelatedEntity{Kind: entity.KindAccount, ID: 3}, AssignedToID: ptr(7)},
		{ID: 3, Subject: "Calificar lead", Related: entity.RelatedEntity{Kind: entity.KindLead, ID: 3}},
		{ID: 4, Subject: "Sin relación", AssignedToID: ptr(8)},
	}
	for _, tk := range tasks {
		require.NoError(t, s.Tasks().Create(ctx, tk))
	}
	docs := []*entity.Document{
		{ID: 1, Name: "propuesta-o1.pdf", Related: entity.RelatedEntity{Kind: entity.KindOpportunity, ID: 1}},
		{ID: 2, Name: "contrato-o2.pdf", Related: entity.RelatedEntity{Kind: entity.KindOpportunity, ID: 2}},
	}
	for _, d := range docs {
		require.NoError(t, s.Documents().Create(ctx, d))
	}

	counter := &denialCounter{}
	resolver := access.NewRegionResolver(s.Users(), nil)
	engine := access.NewEngine(resolver, storesOf(s), nil, append([]access.Option{access.WithDenialRecorder(counter)}, opts...)...)
	return &fixture{store: s, engine: engine, denials: counter}
}

func storesOf(s *memory.Store) access.Stores {
	return access.Stores{
		Accounts:      s.Accounts(),
		Leads:         s.Leads(),
		Opportunities: s.Opportunities(),
		Contacts:      s.Contacts(),
		Tasks:         s.Tasks(),
		Documents:     s.Documents(),
	}
}

// failingUsers simula una caída del almacenamiento de usuarios.
type failingUsers struct{ *memory.UserRepo }

func (failingUsers) GetByID(context.Context, int64) (*entity.User, error) {
	return nil, errors.New("conexión rechazada")
}

// failingAccounts simula una caída del almacenamiento de cuentas.
type failingAccounts struct{ *memory.AccountRepo }

func (failingAccounts) GetByID(context.Context, int64) (*entity.Account, error) {
	return nil, errors.New("timeout")
}
