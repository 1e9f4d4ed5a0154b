package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/usecase"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

var fixedNow = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func newOpportunityUC(e *env) *usecase.OpportunityUseCase {
	uc := usecase.NewOpportunityUseCase(e.engine, e.stores, e.audit)
	uc.SetClock(func() time.Time { return fixedNow })
	return uc
}

func TestOpportunityCreate(t *testing.T) {
	e := newEnv(t)
	uc := newOpportunityUC(e)
	ctx := context.Background()

	out, err := uc.Create(ctx, rep7, dto.CreateOpportunityRequest{
		Name: "Renovación", AccountID: 1, Amount: decimal.NewFromInt(1200), OwnerID: ptr(8), CloseDate: fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StageProspecting, out.Stage)
	assert.Equal(t, int64(7), *out.OwnerID, "un Sales Rep no asigna a otro owner")
	assert.Equal(t, int64(5), out.RegionID)
	assert.Equal(t, "Acme", out.AccountName)

	_, err = uc.Create(ctx, rep7, dto.CreateOpportunityRequest{Name: "Ajena", AccountID: 3, CloseDate: fixedNow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cuenta fuera de alcance")

	_, err = uc.Create(ctx, admin, dto.CreateOpportunityRequest{Name: "Cerrada", AccountID: 1, Stage: entity.StageClosedWon, CloseDate: fixedNow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, admin, dto.CreateOpportunityRequest{Name: "Negativa", AccountID: 1, Amount: decimal.NewFromInt(-1), CloseDate: fixedNow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	byAdmin, err := uc.Create(ctx, admin, dto.CreateOpportunityRequest{Name: "Asignada", AccountID: 3, OwnerID: ptr(8), CloseDate: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, int64(8), *byAdmin.OwnerID)
}

func TestOpportunityMoveStage(t *testing.T) {
	e := newEnv(t)
	uc := newOpportunityUC(e)
	ctx := context.Background()

	_, err := uc.MoveStage(ctx, rep8, 1, dto.MoveStageRequest{Stage: entity.StageNegotiation})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.MoveStage(ctx, rep7, 1, dto.MoveStageRequest{Stage: entity.StageNegotiation, OwnerID: ptr(8)})
	assert.ErrorIs(t, err, domain.ErrForbidden, "reasignar owner no está permitido al Sales Rep")

	_, err = uc.MoveStage(ctx, rep7, 1, dto.MoveStageRequest{Stage: entity.StageClosedLost})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err := uc.MoveStage(ctx, rep7, 1, dto.MoveStageRequest{Stage: entity.StageNegotiation, OwnerID: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, entity.StageNegotiation, out.Stage)
	assert.Equal(t, fixedNow, out.UpdatedAt)

	moved, err := uc.MoveStage(ctx, lead20, 1, dto.MoveStageRequest{Stage: entity.StageProposal, OwnerID: ptr(20)})
	require.NoError(t, err)
	assert.Equal(t, int64(20), *moved.OwnerID)

	_, err = uc.MoveStage(ctx, admin, 99, dto.MoveStageRequest{Stage: entity.StageProposal})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{usecase.ActionOpportunityMoved, usecase.ActionOpportunityMoved}, e.events.actions())
	assert.Equal(t, entity.StageProposal, e.events.audits[0].Details["from"])
}

func TestOpportunityWinLose(t *testing.T) {
	e := newEnv(t)
	uc := newOpportunityUC(e)
	ctx := context.Background()

	won, err := uc.Win(ctx, rep7, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StageClosedWon, won.Stage)
	require.NotNil(t, won.WonAt)
	assert.Equal(t, fixedNow, *won.WonAt)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), won.CloseDate, "ganar no modifica closeDate")

	_, err = uc.Lose(ctx, rep7, 1, dto.LoseOpportunityRequest{Reason: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	lost, err := uc.Lose(ctx, rep7, 1, dto.LoseOpportunityRequest{Reason: "precio"})
	require.NoError(t, err)
	assert.Equal(t, entity.StageClosedLost, lost.Stage)
	assert.NotNil(t, lost.WonAt, "perder no borra wonAt")
	require.NotNil(t, lost.LostAt)
	assert.Equal(t, "precio", lost.LostReason)

	assert.Equal(t, []string{usecase.ActionOpportunityWon, usecase.ActionOpportunityLost}, e.events.actions())
}

func TestOpportunity_ReabrirConservaCierre(t *testing.T) {
	e := newEnv(t)
	uc := newOpportunityUC(e)
	ctx := context.Background()

	_, err := uc.Lose(ctx, admin, 1, dto.LoseOpportunityRequest{Reason: "precio"})
	require.NoError(t, err)

	reopened, err := uc.MoveStage(ctx, admin, 1, dto.MoveStageRequest{Stage: entity.StageProposal})
	require.NoError(t, err)
	assert.Equal(t, entity.StageProposal, reopened.Stage)
	require.NotNil(t, reopened.LostAt)
	assert.Equal(t, fixedNow, *reopened.LostAt)
	assert.Equal(t, "precio", reopened.LostReason)
	assert.Nil(t, reopened.WonAt)

	won, err := uc.Win(ctx, admin, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StageClosedWon, won.Stage)
	require.NotNil(t, won.WonAt)
	require.NotNil(t, won.LostAt, "ganar después de perder conserva lostAt")
	assert.Equal(t, "precio", won.LostReason)

	stored, err := e.stores.Opportunities.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored.LostAt)
	require.NotNil(t, stored.WonAt)
}

func TestOpportunityPolicy_LockClosed(t *testing.T) {
	e := newEnv(t, access.WithOpportunityPolicy(access.OpportunityPolicy{EnforceScope: true, LockClosed: true}))
	uc := newOpportunityUC(e)

	_, err := uc.Win(context.Background(), admin, 2)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOpportunityPolicy_SinAlcance(t *testing.T) {
	e := newEnv(t, access.WithOpportunityPolicy(access.OpportunityPolicy{}))
	uc := newOpportunityUC(e)
	ctx := context.Background()

	out, err := uc.MoveStage(ctx, rep8, 1, dto.MoveStageRequest{Stage: entity.StageNegotiation, OwnerID: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, int64(8), *out.OwnerID)

	// la lectura sigue acotada aunque la mutación no lo esté
	_, err = uc.GetByID(ctx, rep8, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOpportunityList(t *testing.T) {
	e := newEnv(t)
	uc := newOpportunityUC(e)
	ctx := context.Background()

	mine, err := uc.List(ctx, rep8, dto.OpportunityListRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "O2", mine.Items[0].Name)

	open, err := uc.List(ctx, admin, dto.OpportunityListRequest{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open.Items, 1)
	assert.Equal(t, "O1", open.Items[0].Name)

	acts, err := uc.Activities(ctx, rep8, 1, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Nil(t, acts)
}
