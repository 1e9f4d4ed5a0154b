package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

func accountIDs(t *testing.T, f *fixture, u access.ActingUser) []int64 {
	t.Helper()
	ctx := context.Background()
	list, err := f.store.Accounts().ListWhere(ctx, f.engine.ListFilter(ctx, u, entity.KindAccount), repository.AccountFilter{})
	require.NoError(t, err)
	ids := make([]int64, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return ids
}

// ── Propiedades sobre Account ────────────────────────────────────────────────

func TestListFilter_SalesRepVeSoloSusCuentas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	all, err := f.store.Accounts().ListWhere(ctx, scope.All(), repository.AccountFilter{})
	require.NoError(t, err)

	for _, rep := range []access.ActingUser{rep7, rep8} {
		visible := accountIDs(t, f, rep)
		for _, a := range all {
			owned := a.SalesRepID != nil && *a.SalesRepID == rep.ID
			assert.Equal(t, owned, contains(visible, a.ID), "rep %d cuenta %d", rep.ID, a.ID)
		}
	}
}

func TestListFilter_RegionalLeadVeSusRegiones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	all, err := f.store.Accounts().ListWhere(ctx, scope.All(), repository.AccountFilter{})
	require.NoError(t, err)

	for _, lead := range []access.ActingUser{lead20, lead22} {
		regions := f.engine.Regions().EffectiveRegions(ctx, lead)
		visible := accountIDs(t, f, lead)
		for _, a := range all {
			assert.Equal(t, regions.Contains(a.RegionID), contains(visible, a.ID), "lead %d cuenta %d", lead.ID, a.ID)
		}
	}
}

func TestListFilter_RegionalLeadSinRegionesNoVeNada(t *testing.T) {
	f := newFixture(t)
	assert.True(t, scope.IsNone(f.engine.ListFilter(context.Background(), lead21, entity.KindAccount)))
	assert.Empty(t, accountIDs(t, f, lead21))
}

func TestListFilter_SuperAdminVeTodo(t *testing.T) {
	f := newFixture(t)
	for _, k := range []entity.Kind{entity.KindAccount, entity.KindLead, entity.KindOpportunity, entity.KindContact, entity.KindTask, entity.KindDocument} {
		assert.True(t, scope.IsAll(f.engine.ListFilter(context.Background(), superAdmin, k)), string(k))
	}
	assert.Equal(t, []int64{1, 2, 3, 9, 10}, accountIDs(t, f, superAdmin))
}

func TestListFilter_RolDesconocidoNoVeNada(t *testing.T) {
	f := newFixture(t)
	u := access.ActingUser{ID: 7, Role: entity.Role("Intern")}
	assert.True(t, scope.IsNone(f.engine.ListFilter(context.Background(), u, entity.KindAccount)))
	assert.True(t, scope.IsNone(f.engine.ListFilter(context.Background(), u, entity.KindTask)))
}

// ── Escenarios ───────────────────────────────────────────────────────────────

// Rep 7 es dueño de las cuentas 1 y 2; O1 está en la cuenta 1, O2 en la cuenta 3.
func TestEscenario_SalesRepVeSoloO1(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	list, err := f.store.Opportunities().ListWhere(ctx, f.engine.ListFilter(ctx, rep7, entity.KindOpportunity), repository.OpportunityFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "O1", list[0].Name)
}

// Lead con región principal 5: ve A9 (región 5) y no A10 (región 6).
func TestEscenario_RegionalLeadA9SiA10Prohibido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visible := accountIDs(t, f, lead20)
	assert.Contains(t, visible, int64(9))
	assert.NotContains(t, visible, int64(10))

	assert.NoError(t, f.engine.Authorize(ctx, lead20, entity.KindAccount, 9))
	err := f.engine.Authorize(ctx, lead20, entity.KindAccount, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1, f.denials.n, "la denegación se registra")
	assert.False(t, f.engine.CanAccess(ctx, lead20, entity.KindAccount, 10))
}

func TestAuthorize_InexistenteEsNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Authorize(context.Background(), superAdmin, entity.KindAccount, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthorize_FalloDelStoreEsUnavailable(t *testing.T) {
	f := newFixture(t)
	stores := storesOf(f.store)
	stores.Accounts = failingAccounts{f.store.Accounts()}
	engine := access.NewEngine(f.engine.Regions(), stores, nil)

	err := engine.Authorize(context.Background(), rep7, entity.KindAccount, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	assert.False(t, errors.Is(err, domain.ErrForbidden))
}

func TestAuthorize_ListadoYDetalleCoinciden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, u := range []access.ActingUser{rep7, rep8, lead20, lead21, lead22, superAdmin} {
		visible := accountIDs(t, f, u)
		for _, id := range []int64{1, 2, 3, 9, 10} {
			assert.Equal(t, contains(visible, id), f.engine.CanAccess(ctx, u, entity.KindAccount, id), "usuario %d cuenta %d", u.ID, id)
		}
	}
}

// ── Lead ─────────────────────────────────────────────────────────────────────

func TestLead_RegionalLeadUsaRegionDelOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Lead 1: owner 7 (región 5) aunque el lead diga región 6.
	assert.NoError(t, f.engine.Authorize(ctx, lead20, entity.KindLead, 1))
	// Lead 2: sin owner, región 6.
	assert.ErrorIs(t, f.engine.Authorize(ctx, lead20, entity.KindLead, 2), domain.ErrForbidden)
	assert.NoError(t, f.engine.Authorize(ctx, lead22, entity.KindLead, 2))
	// Lead 3: sin owner ni región: solo Super Admin.
	assert.ErrorIs(t, f.engine.Authorize(ctx, lead22, entity.KindLead, 3), domain.ErrForbidden)
	assert.NoError(t, f.engine.Authorize(ctx, superAdmin, entity.KindLead, 3))
}

func TestLead_SalesRepPorOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.NoError(t, f.engine.Authorize(ctx, rep7, entity.KindLead, 1))
	assert.ErrorIs(t, f.engine.Authorize(ctx, rep8, entity.KindLead, 1), domain.ErrForbidden)
}

// ── Contact / Task / Document ────────────────────────────────────────────────

func TestContact_HeredaAlcanceDeLaCuenta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.NoError(t, f.engine.Authorize(ctx, rep7, entity.KindContact, 1))
	assert.ErrorIs(t, f.engine.Authorize(ctx, rep7, entity.KindContact, 2), domain.ErrForbidden)
	assert.NoError(t, f.engine.Authorize(ctx, lead22, entity.KindContact, 2))
}

func TestTask_AsignacionEsUnionForzada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	list, err := f.store.Tasks().ListWhere(ctx, f.engine.ListFilter(ctx, rep7, entity.KindTask), repository.TaskFilter{})
	require.NoError(t, err)

	ids := make([]int64, 0, len(list))
	for _, tk := range list {
		ids = append(ids, tk.ID)
	}
	// 1: relacionada a su cuenta; 2: cuenta ajena pero asignada a él.
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestTask_SinRelacionSoloAsignadoOSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.NoError(t, f.engine.Authorize(ctx, rep8, entity.KindTask, 4))
	assert.ErrorIs(t, f.engine.Authorize(ctx, rep7, entity.KindTask, 4), domain.ErrForbidden)
	assert.ErrorIs(t, f.engine.Authorize(ctx, lead22, entity.KindTask, 4), domain.ErrForbidden)
	assert.NoError(t, f.engine.Authorize(ctx, superAdmin, entity.KindTask, 4))
}

func TestDocument_HeredaAlcanceDeLaOportunidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.NoError(t, f.engine.Authorize(ctx, rep7, entity.KindDocument, 1))
	assert.ErrorIs(t, f.engine.Authorize(ctx, rep7, entity.KindDocument, 2), domain.ErrForbidden)
	assert.NoError(t, f.engine.Authorize(ctx, rep8, entity.KindDocument, 2))
}

func TestCheck_PunteroNilEsNotFound(t *testing.T) {
	f := newFixture(t)
	var acc *entity.Account
	assert.ErrorIs(t, f.engine.Check(context.Background(), superAdmin, entity.KindAccount, acc), domain.ErrNotFound)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
