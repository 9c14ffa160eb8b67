package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
)

// Publisher sends domain events to a durable RabbitMQ queue. It dials per
// message so a broker outage never blocks startup; errors are logged and
// returned so callers can ignore them without interrupting the request.
type Publisher struct {
	URL   string
	Queue string
	log   *zap.Logger
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	return &Publisher{URL: url, Queue: queue, log: logger.OrNop(log)}
}

// PublishRegistrationConfirmed publishes ev as a persistent JSON message
// routed through the default exchange to the configured queue.
func (p *Publisher) PublishRegistrationConfirmed(ctx context.Context, ev RegistrationConfirmedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", zap.String("queue", p.Queue), zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.String("queue", p.Queue), zap.Error(err))
		return err
	}
	return nil
}
