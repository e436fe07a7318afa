package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shinelstudios/website-sub000/internal/audit"
)

const auditQueue = "audit.login"

// AMQPPublisher publishes audit events to a durable RabbitMQ queue. A fresh
// connection is dialed per publish; audit volume is a handful of events per
// minute.
type AMQPPublisher struct {
	url string
}

// NewAMQPPublisher binds a publisher to the broker URL.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

// PublishAudit sends one audit record to the audit queue. Messages are
// persistent so they survive broker restarts. Errors are returned for the
// caller to log; they never interrupt the request flow.
func (p *AMQPPublisher) PublishAudit(ctx context.Context, rec audit.Record) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so the service works against a fresh broker.
	if _, err := ch.QueueDeclare(auditQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(AuditEvent{
		When:    rec.When.Format(time.RFC3339Nano),
		Kind:    rec.Kind,
		Email:   rec.Email,
		Success: rec.Success,
		IPHash:  rec.IPHash,
		Reason:  rec.Reason,
	})
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",         // default exchange
		auditQueue, // routing key = queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
