package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

var _ repository.OpportunityRepository = (*OpportunityRepo)(nil)

// Modelo de lectura del pipeline: región y sales rep heredados de la cuenta.
const opportunitySelect = `
	SELECT o.id, o.name, o.account_id, o.stage, o.amount, o.owner_id, o.close_date,
	       o.created_at, o.updated_at, o.won_at, o.lost_at, o.lost_reason,
	       a.name, a.region_id, a.sales_rep_id, COALESCE(rg.name, ''), COALESCE(ow.name, '')
	FROM opportunities o
	JOIN accounts a       ON a.id  = o.account_id
	LEFT JOIN regions rg  ON rg.id = a.region_id
	LEFT JOIN users   ow  ON ow.id = o.owner_id`

// OpportunityRepo implementación de OpportunityRepository sobre PostgreSQL.
type OpportunityRepo struct {
	q Querier
}

// NewOpportunityRepository construye el adaptador de oportunidades.
func NewOpportunityRepository(q Querier) *OpportunityRepo {
	return &OpportunityRepo{q: q}
}

func scanOpportunity(row pgx.Row) (*entity.Opportunity, error) {
	var o entity.Opportunity
	err := row.Scan(&o.ID, &o.Name, &o.AccountID, &o.Stage, &o.Amount, &o.OwnerID, &o.CloseDate,
		&o.CreatedAt, &o.UpdatedAt, &o.WonAt, &o.LostAt, &o.LostReason,
		&o.AccountName, &o.AccountRegionID, &o.AccountSalesRepID, &o.RegionName, &o.OwnerName)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListWhere oportunidades que cumplen el predicado de alcance y los filtros.
// Sin límite de página devuelve todas (lo usa el dashboard).
func (r *OpportunityRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.OpportunityFilter) ([]*entity.Opportunity, error) {
	q := newSelect(opportunitySelect)
	if err := q.scope(p, opportunityTarget); err != nil {
		return nil, err
	}
	if f.Stage != "" {
		q.where(stageKeySQL+" = lower(replace(%s, ' ', ''))", f.Stage)
	}
	if f.AccountID != nil {
		q.where("o.account_id = %s", *f.AccountID)
	}
	if f.OwnerID != nil {
		q.where("o.owner_id = %s", *f.OwnerID)
	}
	if f.OpenOnly {
		q.where(stageKeySQL + " NOT IN ('closedwon', 'closedlost')")
	}
	rows, err := r.q.Query(ctx, q.sql("o.id", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Opportunity, 0)
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetByID obtiene una oportunidad; (nil, nil) si no existe.
func (r *OpportunityRepo) GetByID(ctx context.Context, id int64) (*entity.Opportunity, error) {
	o, err := scanOpportunity(r.q.QueryRow(ctx, opportunitySelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

// Create persiste una oportunidad.
func (r *OpportunityRepo) Create(ctx context.Context, o *entity.Opportunity) error {
	const query = `
		INSERT INTO opportunities (name, account_id, stage, amount, owner_id, close_date, won_at, lost_at, lost_reason,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()), COALESCE($11, now()))
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, o.Name, o.AccountID, o.Stage, o.Amount, o.OwnerID, o.CloseDate, o.WonAt, o.LostAt, o.LostReason,
		optTime(o.CreatedAt), optTime(o.UpdatedAt)).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return writeErr("insert opportunity", err)
	}
	return nil
}

// Update persiste los campos mutables de la oportunidad.
func (r *OpportunityRepo) Update(ctx context.Context, o *entity.Opportunity) error {
	const query = `
		UPDATE opportunities
		SET name = $2, stage = $3, amount = $4, owner_id = $5, close_date = $6,
		    won_at = $7, lost_at = $8, lost_reason = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, o.ID, o.Name, o.Stage, o.Amount, o.OwnerID, o.CloseDate,
		o.WonAt, o.LostAt, o.LostReason, o.UpdatedAt)
	if err != nil {
		return writeErr("update opportunity", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
