package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/infrastructure/queue"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// fakeChannel registra lo publicado en lugar de hablar con un broker.
type fakeChannel struct {
	declared   []string
	kind       string
	durable    bool
	out        []published
	publishErr error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name)
	f.kind, f.durable = kind, durable
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.out = append(f.out, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

type eventCounter map[string]int

func (c eventCounter) RecordEvent(eventType, result string) { c[eventType+"/"+result]++ }

func TestRabbitPublisher_DeclaraExchangeTopic(t *testing.T) {
	ch := &fakeChannel{}
	_, err := queue.NewRabbitPublisher(ch, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{queue.DefaultExchange}, ch.declared)
	assert.Equal(t, "topic", ch.kind)
	assert.True(t, ch.durable)
}

func TestRabbitPublisher_PublishAudit(t *testing.T) {
	ch := &fakeChannel{}
	counter := eventCounter{}
	p, err := queue.NewRabbitPublisher(ch, "crm.test", counter)
	require.NoError(t, err)

	ev := ports.AuditEvent{ID: "ev-1", Action: "account.approved", EntityType: "Account", EntityID: 2, UserID: 20, Role: "Regional Lead", At: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, p.PublishAudit(context.Background(), ev))

	require.Len(t, ch.out, 1)
	got := ch.out[0]
	assert.Equal(t, "crm.test", got.exchange)
	assert.Equal(t, "audit.account.approved", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "ev-1", got.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "Account", body["entityType"])
	assert.Equal(t, float64(2), body["entityId"])
	assert.Equal(t, 1, counter["audit/ok"])
}

func TestRabbitPublisher_PublishDigest(t *testing.T) {
	ch := &fakeChannel{}
	p, err := queue.NewRabbitPublisher(ch, "crm.test", nil)
	require.NoError(t, err)

	owner := int64(7)
	require.NoError(t, p.PublishStalledDigest(context.Background(), ports.StalledDigest{ID: "d-1", OwnerID: &owner, OwnerName: "Rita Rep", TotalValue: decimal.NewFromInt(5000)}))

	require.Len(t, ch.out, 1)
	assert.Equal(t, queue.RoutingKeyDigest, ch.out[0].key)
	assert.Equal(t, ports.EventTypeStalledDigest, ch.out[0].msg.Type)
	assert.JSONEq(t, `{"id":"d-1","ownerId":7,"ownerName":"Rita Rep","generatedAt":"0001-01-01T00:00:00Z","totalValue":5000,"deals":null}`, string(ch.out[0].msg.Body))
}

func TestRabbitPublisher_ErrorDePublicacion(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	counter := eventCounter{}
	p, err := queue.NewRabbitPublisher(ch, "crm.test", counter)
	require.NoError(t, err)

	err = p.PublishAudit(context.Background(), ports.AuditEvent{ID: "x", Action: "lead.created"})
	assert.ErrorContains(t, err, "audit.lead.created")
	assert.Equal(t, 1, counter["audit/error"])
}

func TestLogPublisher(t *testing.T) {
	counter := eventCounter{}
	p := queue.NewLogPublisher(nil, counter)
	require.NoError(t, p.PublishAudit(context.Background(), ports.AuditEvent{ID: "x", Action: "lead.created"}))
	require.NoError(t, p.PublishStalledDigest(context.Background(), ports.StalledDigest{ID: "y"}))
	assert.Equal(t, 1, counter["audit/logged"])
	assert.Equal(t, 1, counter["stalled_digest/logged"])
}
