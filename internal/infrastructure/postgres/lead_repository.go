package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

var _ repository.LeadRepository = (*LeadRepo)(nil)

const leadSelect = `
	SELECT l.id, l.name, l.company, l.email, l.phone, l.source, l.status, l.owner_id, l.region_id,
	       l.converted_at, l.created_at, l.updated_at, lo.primary_region_id, COALESCE(lo.name, '')
	FROM leads l
	LEFT JOIN users lo ON lo.id = l.owner_id`

// LeadRepo implementación de LeadRepository sobre PostgreSQL.
type LeadRepo struct {
	q Querier
}

// NewLeadRepository construye el adaptador de leads.
func NewLeadRepository(q Querier) *LeadRepo {
	return &LeadRepo{q: q}
}

func scanLead(row pgx.Row) (*entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(&l.ID, &l.Name, &l.Company, &l.Email, &l.Phone, &l.Source, &l.Status, &l.OwnerID, &l.RegionID,
		&l.ConvertedAt, &l.CreatedAt, &l.UpdatedAt, &l.OwnerRegionID, &l.OwnerName)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListWhere leads que cumplen el predicado de alcance y los filtros.
func (r *LeadRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.LeadFilter) ([]*entity.Lead, error) {
	q := newSelect(leadSelect)
	if err := q.scope(p, leadTarget); err != nil {
		return nil, err
	}
	if f.Status != "" {
		q.where("l.status = %s", f.Status)
	}
	if f.OwnerID != nil {
		q.where("l.owner_id = %s", *f.OwnerID)
	}
	rows, err := r.q.Query(ctx, q.sql("l.id", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetByID obtiene un lead; (nil, nil) si no existe.
func (r *LeadRepo) GetByID(ctx context.Context, id int64) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, leadSelect+` WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// Create persiste un lead.
func (r *LeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	const query = `
		INSERT INTO leads (name, company, email, phone, source, status, owner_id, region_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, l.Name, l.Company, l.Email, l.Phone, l.Source, l.Status, l.OwnerID, l.RegionID).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return writeErr("insert lead", err)
	}
	return nil
}

// MarkConverted marca el lead como convertido.
func (r *LeadRepo) MarkConverted(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE leads SET status = $2, converted_at = $3, updated_at = $3 WHERE id = $1`,
		id, entity.LeadStatusConverted, at)
	if err != nil {
		return fmt.Errorf("convert lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
