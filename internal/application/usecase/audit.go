package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// Acciones auditadas.
const (
	ActionAccountCreated     = "account.created"
	ActionAccountApproved    = "account.approved"
	ActionAccountRejected    = "account.rejected"
	ActionAccountDeleted     = "account.deleted"
	ActionLeadCreated        = "lead.created"
	ActionLeadConverted      = "lead.converted"
	ActionOpportunityCreated = "opportunity.created"
	ActionOpportunityMoved   = "opportunity.stage_moved"
	ActionOpportunityWon     = "opportunity.won"
	ActionOpportunityLost    = "opportunity.lost"
	ActionContactCreated     = "contact.created"
	ActionTaskCreated        = "task.created"
	ActionTaskCompleted      = "task.completed"
	ActionUserRoleChanged    = "user.role_changed"
)

// Acciones que cambian lo que muestra el dashboard (oportunidades, cuentas o el alcance de un usuario).
var dashboardActionPrefixes = []string{"account.", "opportunity.", "user."}

// Auditor registra cada mutación en el historial y la publica como AuditEvent.
// Los fallos solo se registran en el log; la operación sigue su curso.
type Auditor struct {
	pub     ports.EventPublisher
	store   repository.AuditLogRepository
	reports ports.ReportCache
	log     *logger.Logger
	now     func() time.Time
}

// AuditorOption configuración opcional del auditor.
type AuditorOption func(*Auditor)

// WithAuditLog guarda cada evento en el historial consultable.
func WithAuditLog(store repository.AuditLogRepository) AuditorOption {
	return func(a *Auditor) { a.store = store }
}

// WithReportInvalidation invalida los dashboards cacheados tras mutaciones que los afectan.
func WithReportInvalidation(c ports.ReportCache) AuditorOption {
	return func(a *Auditor) { a.reports = c }
}

// WithAuditClock fija el reloj (tests).
func WithAuditClock(now func() time.Time) AuditorOption {
	return func(a *Auditor) { a.now = now }
}

// NewAuditor construye el auditor. pub nil desactiva la publicación.
func NewAuditor(pub ports.EventPublisher, log *logger.Logger, opts ...AuditorOption) *Auditor {
	if log == nil {
		log = logger.Nop()
	}
	a := &Auditor{pub: pub, log: log, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record registra la mutación. Las acciones sobre cuentas, oportunidades o usuarios
// descartan además los dashboards cacheados.
func (a *Auditor) Record(ctx context.Context, u access.ActingUser, action string, kind entity.Kind, id int64, details map[string]any) {
	if a == nil {
		return
	}
	ev := ports.AuditEvent{
		ID:         uuid.New().String(),
		Action:     action,
		EntityType: string(kind),
		EntityID:   id,
		UserID:     u.ID,
		Role:       string(u.Role),
		At:         a.now().UTC(),
		Details:    details,
	}

	if a.store != nil {
		entry := &entity.AuditLog{
			EventID:    ev.ID,
			UserID:     ev.UserID,
			Role:       ev.Role,
			Action:     ev.Action,
			EntityType: ev.EntityType,
			EntityID:   ev.EntityID,
			Details:    ev.Details,
			At:         ev.At,
		}
		if err := a.store.Create(ctx, entry); err != nil {
			a.log.Error().Err(err).Str("action", action).Int64("entity_id", id).Msg("auditoría: no se pudo guardar el registro")
		}
	}
	if a.pub != nil {
		if err := a.pub.PublishAudit(ctx, ev); err != nil {
			a.log.Error().Err(err).Str("action", action).Int64("entity_id", id).Msg("auditoría: no se pudo publicar el evento")
		}
	}
	if a.reports != nil && affectsDashboard(action) {
		if err := a.reports.Invalidate(ctx, ports.DashboardCachePrefix); err != nil {
			a.log.Warn().Err(err).Str("action", action).Msg("auditoría: no se pudo invalidar la caché del dashboard")
		}
	}
}

func affectsDashboard(action string) bool {
	for _, p := range dashboardActionPrefixes {
		if strings.HasPrefix(action, p) {
			return true
		}
	}
	return false
}
