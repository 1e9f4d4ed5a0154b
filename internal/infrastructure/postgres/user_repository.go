package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var (
	_ repository.UserRepository   = (*UserRepo)(nil)
	_ repository.RegionRepository = (*RegionRepo)(nil)
)

const userColumns = `id, name, email, password_hash, role, primary_region_id, secondary_region_ids, active, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de usuarios. Pasar pool o tx.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.PrimaryRegionID,
		&u.SecondaryRegionIDs, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return &u, nil
}

// GetByID obtiene un usuario por ID; (nil, nil) si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail obtiene un usuario por email (sin distinguir mayúsculas).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// List todos los usuarios ordenados por id.
func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Create persiste un usuario. Email duplicado devuelve domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	secondary := u.SecondaryRegionIDs
	if secondary == nil {
		secondary = []int64{}
	}
	const query = `
		INSERT INTO users (name, email, password_hash, role, primary_region_id, secondary_region_ids, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash, string(u.Role), u.PrimaryRegionID, secondary, u.Active).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %s: %w", u.Email, domain.ErrConflict)
		}
		return writeErr("insert user", err)
	}
	return nil
}

// UpdateRole cambia el rol de un usuario.
func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role entity.Role) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Regions ──────────────────────────────────────────────────────────────────

// RegionRepo catálogo de regiones.
type RegionRepo struct {
	q Querier
}

// NewRegionRepository construye el adaptador de regiones.
func NewRegionRepository(q Querier) *RegionRepo {
	return &RegionRepo{q: q}
}

// GetByID obtiene una región; (nil, nil) si no existe.
func (r *RegionRepo) GetByID(ctx context.Context, id int64) (*entity.Region, error) {
	var reg entity.Region
	err := r.q.QueryRow(ctx, `SELECT id, name FROM regions WHERE id = $1`, id).Scan(&reg.ID, &reg.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get region: %w", err)
	}
	return &reg, nil
}

// ListByIDs regiones con esos ids; los ids inexistentes se omiten.
func (r *RegionRepo) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Region, error) {
	if len(ids) == 0 {
		return []*entity.Region{}, nil
	}
	return r.list(ctx, `SELECT id, name FROM regions WHERE id = ANY($1) ORDER BY id`, ids)
}

// List todas las regiones.
func (r *RegionRepo) List(ctx context.Context) ([]*entity.Region, error) {
	return r.list(ctx, `SELECT id, name FROM regions ORDER BY id`)
}

func (r *RegionRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Region, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Region, 0)
	for rows.Next() {
		var reg entity.Region
		if err := rows.Scan(&reg.ID, &reg.Name); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, &reg)
	}
	return out, rows.Err()
}

// Create inserta una región.
func (r *RegionRepo) Create(ctx context.Context, reg *entity.Region) error {
	err := r.q.QueryRow(ctx, `INSERT INTO regions (name) VALUES ($1) RETURNING id`, reg.Name).Scan(&reg.ID)
	if err != nil {
		return writeErr("insert region", err)
	}
	return nil
}
