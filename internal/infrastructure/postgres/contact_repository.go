package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/internal/domain/scope"
)

var _ repository.ContactRepository = (*ContactRepo)(nil)

const contactSelect = `
	SELECT c.id, c.account_id, c.first_name, c.last_name, c.email, c.phone, c.title,
	       c.created_at, c.updated_at, a.name, a.region_id, a.sales_rep_id
	FROM contacts c
	JOIN accounts a ON a.id = c.account_id`

// ContactRepo implementación de ContactRepository sobre PostgreSQL.
type ContactRepo struct {
	q Querier
}

// NewContactRepository construye el adaptador de contactos.
func NewContactRepository(q Querier) *ContactRepo {
	return &ContactRepo{q: q}
}

func scanContact(row pgx.Row) (*entity.Contact, error) {
	var c entity.Contact
	err := row.Scan(&c.ID, &c.AccountID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Title,
		&c.CreatedAt, &c.UpdatedAt, &c.AccountName, &c.AccountRegionID, &c.AccountSalesRepID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListWhere contactos que cumplen el predicado de alcance.
func (r *ContactRepo) ListWhere(ctx context.Context, p scope.Predicate, f repository.ContactFilter) ([]*entity.Contact, error) {
	q := newSelect(contactSelect)
	if err := q.scope(p, contactTarget); err != nil {
		return nil, err
	}
	if f.AccountID != nil {
		q.where("c.account_id = %s", *f.AccountID)
	}
	rows, err := r.q.Query(ctx, q.sql("c.id", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID obtiene un contacto; (nil, nil) si no existe.
func (r *ContactRepo) GetByID(ctx context.Context, id int64) (*entity.Contact, error) {
	c, err := scanContact(r.q.QueryRow(ctx, contactSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// Create persiste un contacto.
func (r *ContactRepo) Create(ctx context.Context, c *entity.Contact) error {
	const query = `
		INSERT INTO contacts (account_id, first_name, last_name, email, phone, title)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, c.AccountID, c.FirstName, c.LastName, c.Email, c.Phone, c.Title).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return writeErr("insert contact", err)
	}
	return nil
}
