package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/application/access"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

const auditDateLayout = "2006-01-02"

// AuditLogUseCase consulta del historial de auditoría. Solo Super Admin: las entradas
// describen registros de todas las regiones.
type AuditLogUseCase struct {
	logs repository.AuditLogRepository
}

// NewAuditLogUseCase construye el caso de uso.
func NewAuditLogUseCase(logs repository.AuditLogRepository) *AuditLogUseCase {
	return &AuditLogUseCase{logs: logs}
}

// List historial filtrado, más reciente primero.
func (uc *AuditLogUseCase) List(ctx context.Context, u access.ActingUser, req dto.AuditLogListRequest) (*dto.ListResponse[dto.AuditLogResponse], error) {
	if !u.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	page := toPage(req.PageRequest)
	f := repository.AuditLogFilter{
		UserID:     optID(req.UserID),
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
		Page:       page,
	}
	var err error
	if f.From, err = parseAuditDate("dateFrom", req.DateFrom, false); err != nil {
		return nil, err
	}
	if f.To, err = parseAuditDate("dateTo", req.DateTo, true); err != nil {
		return nil, err
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, domain.NewValidationError("dateFrom", "dateFrom no puede ser posterior a dateTo")
	}

	rows, err := uc.logs.List(ctx, f)
	if err != nil {
		return nil, storeErr("audit logs: listar", err)
	}
	return &dto.ListResponse[dto.AuditLogResponse]{Items: mapList(rows, toAuditLogResponse), Page: pageResponse(page, len(rows))}, nil
}

// GetByID una entrada del historial.
func (uc *AuditLogUseCase) GetByID(ctx context.Context, u access.ActingUser, id int64) (*dto.AuditLogResponse, error) {
	if !u.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	l, err := uc.logs.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("audit logs: obtener", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	out := toAuditLogResponse(l)
	return &out, nil
}

// parseAuditDate YYYY-MM-DD (en UTC; como cota superior incluye el día completo) o RFC3339.
func parseAuditDate(field, s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(auditDateLayout, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, domain.NewValidationError(field, fmt.Sprintf("%s inválido: %q", field, s))
	}
	return &t, nil
}

func toAuditLogResponse(l *entity.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:         l.ID,
		EventID:    l.EventID,
		Timestamp:  l.At,
		UserID:     l.UserID,
		UserName:   l.UserName,
		Role:       l.Role,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Details:    l.Details,
	}
}
