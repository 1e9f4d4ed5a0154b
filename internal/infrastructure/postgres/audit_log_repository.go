package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

const auditLogSelect = `
	SELECT al.id, al.event_id, al.user_id, COALESCE(u.name, ''), al.role, al.action,
	       al.entity_type, al.entity_id, al.details, al.created_at
	FROM audit_logs al
	LEFT JOIN users u ON u.id = al.user_id`

// AuditLogRepo historial de auditoría sobre PostgreSQL.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

func scanAuditLog(row pgx.Row) (*entity.AuditLog, error) {
	var l entity.AuditLog
	err := row.Scan(&l.ID, &l.EventID, &l.UserID, &l.UserName, &l.Role, &l.Action,
		&l.EntityType, &l.EntityID, &l.Details, &l.At)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserta una entrada. details se guarda como JSONB.
func (r *AuditLogRepo) Create(ctx context.Context, l *entity.AuditLog) error {
	const query = `
		INSERT INTO audit_logs (event_id, user_id, role, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query, l.EventID, l.UserID, l.Role, l.Action, l.EntityType, l.EntityID,
		l.Details, optTime(l.At)).Scan(&l.ID, &l.At)
	if err != nil {
		return writeErr("insert audit log", err)
	}
	return nil
}

// List entradas filtradas, más recientes primero.
func (r *AuditLogRepo) List(ctx context.Context, f repository.AuditLogFilter) ([]*entity.AuditLog, error) {
	q := auditLogQuery(f)
	rows, err := r.q.Query(ctx, q.sql("al.created_at DESC, al.id DESC", f.Page), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.AuditLog, 0)
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func auditLogQuery(f repository.AuditLogFilter) *selectQuery {
	q := newSelect(auditLogSelect)
	if f.UserID != nil {
		q.where("al.user_id = %s", *f.UserID)
	}
	if f.Action != "" {
		q.where("al.action = %s", f.Action)
	}
	if f.EntityType != "" {
		q.where("lower(al.entity_type) = lower(%s)", f.EntityType)
	}
	if f.From != nil {
		q.where("al.created_at >= %s", *f.From)
	}
	if f.To != nil {
		q.where("al.created_at <= %s", *f.To)
	}
	return q
}

// GetByID obtiene una entrada; (nil, nil) si no existe.
func (r *AuditLogRepo) GetByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	l, err := scanAuditLog(r.q.QueryRow(ctx, auditLogSelect+` WHERE al.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	return l, nil
}
