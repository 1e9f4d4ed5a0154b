// Package queue publica eventos de auditoría y resúmenes de negocios estancados.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/pkg/logger"
)

const (
	DefaultExchange  = "crm.events"
	RoutingKeyDigest = "digest.stalled"
	auditKeyPrefix   = "audit."
)

// EventRecorder métricas de publicación (result: "ok" | "error").
type EventRecorder interface {
	RecordEvent(eventType, result string)
}

// Channel parte de *amqp.Channel que usa el publicador.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ ports.EventPublisher = (*RabbitPublisher)(nil)

// RabbitPublisher publica en un exchange topic durable.
// Routing keys: audit.<acción> y digest.stalled.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	metrics  EventRecorder
	mu       sync.Mutex // amqp.Channel no es seguro para publicar en paralelo
}

// Dial conecta a RabbitMQ y declara el exchange.
func Dial(url, exchange string, metrics EventRecorder) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: conectar: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: abrir canal: %w", err)
	}
	p, err := NewRabbitPublisher(ch, exchange, metrics)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewRabbitPublisher declara el exchange sobre un canal ya abierto.
func NewRabbitPublisher(ch Channel, exchange string, metrics EventRecorder) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq: declarar exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, metrics: metrics}, nil
}

// PublishAudit publica un evento de auditoría.
func (p *RabbitPublisher) PublishAudit(ctx context.Context, ev ports.AuditEvent) error {
	return p.publish(ctx, ports.EventTypeAudit, auditKeyPrefix+ev.Action, ev.ID, ev)
}

// PublishStalledDigest publica el resumen de un responsable.
func (p *RabbitPublisher) PublishStalledDigest(ctx context.Context, d ports.StalledDigest) error {
	return p.publish(ctx, ports.EventTypeStalledDigest, RoutingKeyDigest, d.ID, d)
}

func (p *RabbitPublisher) publish(ctx context.Context, eventType, key, id string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.record(eventType, "error")
		return fmt.Errorf("rabbitmq: serializar %s: %w", eventType, err)
	}
	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Type:         eventType,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		p.record(eventType, "error")
		return fmt.Errorf("rabbitmq: publicar %s: %w", key, err)
	}
	p.record(eventType, "ok")
	return nil
}

func (p *RabbitPublisher) record(eventType, result string) {
	if p.metrics != nil {
		p.metrics.RecordEvent(eventType, result)
	}
}

// Close cierra canal y conexión.
func (p *RabbitPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ── Fallback sin broker ──────────────────────────────────────────────────────

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe los eventos en el log cuando no hay RABBITMQ_URL.
type LogPublisher struct {
	log     *logger.Logger
	metrics EventRecorder
}

// NewLogPublisher construye el publicador de log.
func NewLogPublisher(log *logger.Logger, metrics EventRecorder) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log, metrics: metrics}
}

// PublishAudit registra el evento en el log.
func (p *LogPublisher) PublishAudit(_ context.Context, ev ports.AuditEvent) error {
	p.log.Info().
		Str("event_id", ev.ID).
		Str("action", ev.Action).
		Str("entity_type", ev.EntityType).
		Int64("entity_id", ev.EntityID).
		Int64("user_id", ev.UserID).
		Str("role", ev.Role).
		Msg("auditoría")
	if p.metrics != nil {
		p.metrics.RecordEvent(ports.EventTypeAudit, "logged")
	}
	return nil
}

// PublishStalledDigest registra el resumen en el log.
func (p *LogPublisher) PublishStalledDigest(_ context.Context, d ports.StalledDigest) error {
	evt := p.log.Info().
		Str("event_id", d.ID).
		Str("owner", d.OwnerName).
		Int("deals", len(d.Deals)).
		Str("total_value", d.TotalValue.StringFixed(2))
	if d.OwnerID != nil {
		evt = evt.Int64("owner_id", *d.OwnerID)
	}
	evt.Msg("negocios estancados")
	if p.metrics != nil {
		p.metrics.RecordEvent(ports.EventTypeStalledDigest, "logged")
	}
	return nil
}
