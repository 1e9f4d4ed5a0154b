// Package ports define los puertos de salida de la capa de aplicación: caché de reportes,
// publicación de eventos y exportadores del dashboard. Los adaptadores viven en
// internal/infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/crm-api/internal/application/dto"
)

// DashboardCachePrefix prefijo de todas las claves de reportes de dashboard.
const DashboardCachePrefix = "dashboard:"

// ReportCache guarda reportes de dashboard ya calculados.
type ReportCache interface {
	// Get devuelve (nil, false, nil) si la clave no existe o expiró.
	Get(ctx context.Context, key string) (*dto.DashboardDTO, bool, error)
	Set(ctx context.Context, key string, report *dto.DashboardDTO, ttl time.Duration) error
	// Invalidate borra todas las claves que empiezan con prefix.
	Invalidate(ctx context.Context, prefix string) error
}

// Tipos de evento publicados.
const (
	EventTypeAudit         = "audit"
	EventTypeStalledDigest = "stalled_digest"
)

// AuditEvent registro de una mutación.
type AuditEvent struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   int64          `json:"entityId"`
	UserID     int64          `json:"userId"`
	Role       string         `json:"role"`
	At         time.Time      `json:"at"`
	Details    map[string]any `json:"details,omitempty"`
}

// StalledDigest resumen de negocios estancados de un responsable.
type StalledDigest struct {
	ID          string                     `json:"id"`
	OwnerID     *int64                     `json:"ownerId"`
	OwnerName   string                     `json:"ownerName"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	TotalValue  decimal.Decimal            `json:"totalValue"`
	Deals       []dto.StalledDealDetailDTO `json:"deals"`
}

// EventPublisher publica eventos hacia otros sistemas (RabbitMQ o log).
type EventPublisher interface {
	PublishAudit(ctx context.Context, ev AuditEvent) error
	PublishStalledDigest(ctx context.Context, d StalledDigest) error
}

// DashboardExporter convierte el reporte en un archivo descargable.
type DashboardExporter interface {
	ContentType() string
	FileExtension() string
	Export(report *dto.DashboardDTO) ([]byte, error)
}
