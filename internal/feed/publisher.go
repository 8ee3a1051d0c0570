package feed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// queueName is the durable queue carrying change events between instances.
const queueName = "crm.changefeed"

// Publisher emits change events.  Delivery is two-step: the local hub is
// notified first so in-process subscribers never depend on the broker, then
// the event is mirrored to RabbitMQ for other instances.  Broker errors are
// logged and returned but never interrupt the write path; callers ignore
// them.
type Publisher struct {
	hub    *Hub
	url    string
	origin string
}

// NewPublisher returns a Publisher bound to hub.  Every event it emits
// carries the same origin id so consumers can drop this instance's echoes.
func NewPublisher(hub *Hub, url string) *Publisher {
	return &Publisher{hub: hub, url: url, origin: uuid.NewString()}
}

// Origin returns the instance id stamped on published events.
func (p *Publisher) Origin() string { return p.origin }

// Publish notifies subscribers of a row change on table.
func (p *Publisher) Publish(ctx context.Context, op Op, table string, rowID uint64) error {
	ev := ChangeEvent{
		ID:         uuid.NewString(),
		Origin:     p.origin,
		Op:         op,
		Schema:     "public",
		Table:      table,
		RowID:      rowID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	p.hub.Publish(ev)
	return p.publishBroker(ctx, ev)
}

// publishBroker mirrors the event to the durable queue.  The function
// attempts to be robust and to never panic; any error is logged and
// returned so the caller can choose to ignore it.  Messages are marked as
// persistent.
func (p *Publisher) publishBroker(ctx context.Context, ev ChangeEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("changefeed: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("changefeed: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("changefeed: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("changefeed: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("changefeed: publish failed: %v", err)
		return err
	}
	return nil
}
