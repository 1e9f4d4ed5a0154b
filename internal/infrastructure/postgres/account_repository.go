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

var _ repository.AccountRepository = (*AccountRepo)(nil)

// Modelo de lectura: la cuenta con el nombre de su región y de su sales rep.
const accountSelect = `
	SELECT a.id, a.name, a.industry, a.website, a.phone, a.region_id, a.sales_rep_id, a.status,
	       a.created_at, a.updated_at, COALESCE(rg.name, ''), COALESCE(sr.name, '')
	FROM accounts a
	LEFT JOIN regions rg ON rg.id = a.region_id
	LEFT JOIN users   sr ON sr.id = a.sales_rep_id`

// AccountRepo implementación de AccountRepository sobre PostgreSQL.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador de cuentas.
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	err := row.Scan(&a.ID, &a.Name, &a.Industry, &a.Website, &a.Phone, &a.RegionID, &a.SalesRepID, &a.Status,
		&a.CreatedAt, &a.UpdatedAt, &a.RegionName, &a.SalesRepName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListWhere cuentas que cumplen el predicado de alcance y los filtros.
func (r *AccountRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.AccountFilter) ([]*entity.Account, error) {
	q := newSelect(accountSelect)
	if err := q.scope(p, accountTarget); err != nil {
		return nil, err
	}
	if f.Status != "" {
		q.where("a.status = %s", f.Status)
	}
	if f.RegionID != nil {
		q.where("a.region_id = %s", *f.RegionID)
	}
	if f.SalesRepID != nil {
		q.where("a.sales_rep_id = %s", *f.SalesRepID)
	}
	rows, err := r.q.Query(ctx, q.sql("a.id", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID obtiene una cuenta; (nil, nil) si no existe.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, accountSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// Create persiste una cuenta.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	const query = `
		INSERT INTO accounts (name, industry, website, phone, region_id, sales_rep_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, a.Name, a.Industry, a.Website, a.Phone, a.RegionID, a.SalesRepID, a.Status).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return writeErr("insert account", err)
	}
	return nil
}

// UpdateStatus cambia el estado de la cuenta.
func (r *AccountRepo) UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la cuenta; contactos y oportunidades caen por ON DELETE CASCADE.
func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
