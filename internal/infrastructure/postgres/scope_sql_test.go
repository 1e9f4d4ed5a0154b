package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

func TestCompile_Hojas(t *testing.T) {
	tests := []struct {
		name string
		p    scope.Predicate
		tgt  target
		want string
		args []any
	}{
		{"all", scope.All(), accountTarget, "TRUE", nil},
		{"none", scope.None(), accountTarget, "FALSE", nil},
		{"eq", scope.Eq{Field: scope.FieldSalesRepID, Value: 7}, accountTarget, "a.sales_rep_id = $1", []any{int64(7)}},
		{"in", scope.In{Field: scope.FieldRegionID, Values: []int64{5, 6}}, accountTarget, "a.region_id = ANY($1)", []any{[]int64{5, 6}}},
		{"lead region", scope.Eq{Field: scope.FieldLeadRegion, Value: 5}, leadTarget, "COALESCE(lo.primary_region_id, l.region_id) = $1", []any{int64(5)}},
		{"campo ajeno", scope.Eq{Field: scope.FieldOwnerID, Value: 1}, accountTarget, "FALSE", nil},
		{"related sin referencia", scope.Related{Kind: entity.KindAccount, Match: scope.All()}, accountTarget, "FALSE", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newSelect("")
			got, err := q.compile(tt.p, tt.tgt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, q.args)
		})
	}
}

func TestCompile_TaskConRelacionadas(t *testing.T) {
	p := scope.AnyOf(
		scope.RelatedTo(entity.KindAccount, scope.Eq{Field: scope.FieldSalesRepID, Value: 7}),
		scope.RelatedTo(entity.KindOpportunity, scope.Eq{Field: scope.FieldAccountSalesRepID, Value: 7}),
		scope.Eq{Field: scope.FieldAssignedToID, Value: 7},
	)
	q := newSelect("")
	got, err := q.compile(p, taskTarget)
	require.NoError(t, err)

	assert.Equal(t,
		"((t.related_entity_type = $1 AND EXISTS (SELECT 1 FROM accounts ra WHERE ra.id = t.related_entity_id AND ra.sales_rep_id = $2))"+
			" OR (t.related_entity_type = $3 AND EXISTS (SELECT 1 FROM opportunities ro JOIN accounts roa ON roa.id = ro.account_id WHERE ro.id = t.related_entity_id AND roa.sales_rep_id = $4))"+
			" OR t.assigned_to_id = $5)",
		got)
	assert.Equal(t, []any{"Account", int64(7), "Opportunity", int64(7), int64(7)}, q.args)
}

func TestCompile_RelatedLeadUsaRegionDelOwner(t *testing.T) {
	q := newSelect("")
	got, err := q.compile(scope.RelatedTo(entity.KindLead, scope.InSet(scope.FieldLeadRegion, []int64{6, 5})), documentTarget)
	require.NoError(t, err)
	assert.Contains(t, got, "leads rl LEFT JOIN users rlo ON rlo.id = rl.owner_id")
	assert.Contains(t, got, "COALESCE(rlo.primary_region_id, rl.region_id) = ANY($2)")
	assert.Equal(t, []any{"Lead", []int64{5, 6}}, q.args)
}

func TestSelectQuery_SQL(t *testing.T) {
	q := newSelect("SELECT a.id FROM accounts a")
	require.NoError(t, q.scope(scope.All(), accountTarget))
	assert.Equal(t, "SELECT a.id FROM accounts a ORDER BY a.id", q.sql("a.id", repository.Page{}))

	q = newSelect("SELECT a.id FROM accounts a")
	require.NoError(t, q.scope(scope.Eq{Field: scope.FieldSalesRepID, Value: 7}, accountTarget))
	q.where("a.status = %s", "Active")
	assert.Equal(t,
		"SELECT a.id FROM accounts a WHERE a.sales_rep_id = $1 AND a.status = $2 ORDER BY a.id LIMIT $3 OFFSET $4",
		q.sql("a.id", repository.Page{Limit: 20, Offset: 40}))
	assert.Equal(t, []any{int64(7), "Active", 20, 40}, q.args)
}

func TestSelectQuery_NoneFiltraTodo(t *testing.T) {
	q := newSelect("SELECT 1 FROM leads l")
	require.NoError(t, q.scope(scope.None(), leadTarget))
	assert.Equal(t, "SELECT 1 FROM leads l WHERE FALSE", q.sql("", repository.Page{}))
}

type bogusPredicate struct{ scope.Predicate }

func TestCompile_PredicadoDesconocido(t *testing.T) {
	q := newSelect("")
	_, err := q.compile(bogusPredicate{}, accountTarget)
	assert.Error(t, err)
}

func TestAuditLogQuery_Filtros(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	user := int64(7)
	q := auditLogQuery(repository.AuditLogFilter{
		UserID:     &user,
		Action:     "opportunity.won",
		EntityType: "opportunity",
		From:       &from,
		Page:       repository.Page{Limit: 50},
	})
	got := q.sql("al.created_at DESC, al.id DESC", repository.Page{Limit: 50})

	assert.Contains(t, got, "FROM audit_logs al")
	assert.Contains(t, got, "WHERE al.user_id = $1 AND al.action = $2 AND lower(al.entity_type) = lower($3) AND al.created_at >= $4")
	assert.Contains(t, got, "ORDER BY al.created_at DESC, al.id DESC LIMIT $5")
	assert.Equal(t, []any{int64(7), "opportunity.won", "opportunity", from, 50}, q.args)
}

func TestAuditLogQuery_SinFiltros(t *testing.T) {
	q := auditLogQuery(repository.AuditLogFilter{})
	assert.NotContains(t, q.sql("al.id", repository.Page{}), "WHERE")
	assert.Empty(t, q.args)
}
