package postgres

import (
	"fmt"
	"strings"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

// target describe cómo se traducen los campos lógicos de scope a columnas de una consulta.
type target struct {
	cols map[scope.Field]string
	// kindCol/idCol solo para Task y Document (referencia polimórfica).
	kindCol string
	idCol   string
}

// relatedSource subconsulta usada por scope.Related: FROM + alias de la columna id.
type relatedSource struct {
	from   string
	idCol  string
	target target
}

var (
	accountTarget = target{cols: map[scope.Field]string{
		scope.FieldSalesRepID: "a.sales_rep_id",
		scope.FieldRegionID:   "a.region_id",
	}}
	leadTarget = target{cols: map[scope.Field]string{
		scope.FieldOwnerID:    "l.owner_id",
		scope.FieldLeadRegion: "COALESCE(lo.primary_region_id, l.region_id)",
	}}
	opportunityTarget = target{cols: map[scope.Field]string{
		scope.FieldAccountSalesRepID: "a.sales_rep_id",
		scope.FieldAccountRegionID:   "a.region_id",
	}}
	contactTarget = target{cols: map[scope.Field]string{
		scope.FieldAccountSalesRepID: "a.sales_rep_id",
		scope.FieldAccountRegionID:   "a.region_id",
	}}
	taskTarget = target{
		cols:    map[scope.Field]string{scope.FieldAssignedToID: "t.assigned_to_id"},
		kindCol: "t.related_entity_type",
		idCol:   "t.related_entity_id",
	}
	documentTarget = target{
		cols:    map[scope.Field]string{},
		kindCol: "d.related_entity_type",
		idCol:   "d.related_entity_id",
	}
)

// relatedSources usa alias propios para no chocar con los de la consulta externa.
var relatedSources = map[entity.Kind]relatedSource{
	entity.KindAccount: {
		from:  "accounts ra",
		idCol: "ra.id",
		target: target{cols: map[scope.Field]string{
			scope.FieldSalesRepID: "ra.sales_rep_id",
			scope.FieldRegionID:   "ra.region_id",
		}},
	},
	entity.KindLead: {
		from:  "leads rl LEFT JOIN users rlo ON rlo.id = rl.owner_id",
		idCol: "rl.id",
		target: target{cols: map[scope.Field]string{
			scope.FieldOwnerID:    "rl.owner_id",
			scope.FieldLeadRegion: "COALESCE(rlo.primary_region_id, rl.region_id)",
		}},
	},
	entity.KindOpportunity: {
		from:  "opportunities ro JOIN accounts roa ON roa.id = ro.account_id",
		idCol: "ro.id",
		target: target{cols: map[scope.Field]string{
			scope.FieldAccountSalesRepID: "roa.sales_rep_id",
			scope.FieldAccountRegionID:   "roa.region_id",
		}},
	},
}

// selectQuery arma un SELECT con condiciones y argumentos posicionales ($1, $2, ...).
type selectQuery struct {
	base  string
	conds []string
	args  []any
}

func newSelect(base string) *selectQuery {
	return &selectQuery{base: base}
}

// arg registra un argumento y devuelve su marcador.
func (q *selectQuery) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// where agrega una condición (AND).
func (q *selectQuery) where(format string, values ...any) {
	marks := make([]any, len(values))
	for i, v := range values {
		marks[i] = q.arg(v)
	}
	q.conds = append(q.conds, fmt.Sprintf(format, marks...))
}

// scope agrega el predicado de alcance compilado.
func (q *selectQuery) scope(p scope.Predicate, t target) error {
	if scope.IsAll(p) {
		return nil
	}
	cond, err := q.compile(p, t)
	if err != nil {
		return err
	}
	q.conds = append(q.conds, cond)
	return nil
}

// compile traduce el predicado. Un campo sin columna o un Related sobre una tabla sin
// referencia produce FALSE, igual que scope.Matches.
func (q *selectQuery) compile(p scope.Predicate, t target) (string, error) {
	if scope.IsAll(p) {
		return "TRUE", nil
	}
	if scope.IsNone(p) {
		return "FALSE", nil
	}
	switch v := p.(type) {
	case scope.Eq:
		col, ok := t.cols[v.Field]
		if !ok {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = %s", col, q.arg(v.Value)), nil
	case scope.In:
		col, ok := t.cols[v.Field]
		if !ok || len(v.Values) == 0 {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = ANY(%s)", col, q.arg(append([]int64(nil), v.Values...))), nil
	case scope.Or:
		return q.join(v.Terms, t, " OR ", "FALSE")
	case scope.And:
		return q.join(v.Terms, t, " AND ", "TRUE")
	case scope.Related:
		src, ok := relatedSources[v.Kind]
		if !ok || t.kindCol == "" {
			return "FALSE", nil
		}
		kind := q.arg(string(v.Kind))
		match, err := q.compile(v.Match, src.target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s = %s AND EXISTS (SELECT 1 FROM %s WHERE %s = %s AND %s))",
			t.kindCol, kind, src.from, src.idCol, t.idCol, match), nil
	}
	return "", fmt.Errorf("postgres: predicado de alcance no soportado %T", p)
}

func (q *selectQuery) join(terms []scope.Predicate, t target, sep, empty string) (string, error) {
	if len(terms) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		s, err := q.compile(term, t)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// sql devuelve la sentencia completa con ORDER BY y paginación.
func (q *selectQuery) sql(orderBy string, page repository.Page) string {
	var b strings.Builder
	b.WriteString(q.base)
	if len(q.conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.conds, " AND "))
	}
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	if page.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(q.arg(page.Limit))
	}
	if page.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(q.arg(page.Offset))
	}
	return b.String()
}

// stageKeySQL normaliza la etapa igual que entity.IsClosedStage ("Closed Won" == "ClosedWon").
const stageKeySQL = "lower(replace(o.stage, ' ', ''))"
