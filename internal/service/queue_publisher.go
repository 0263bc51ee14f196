// Package service holds outbound integrations, currently the
// RabbitMQ publisher for domain events. Publishing is best-effort:
// errors are logged and returned so callers can ignore failures
// without interrupting the request that triggered the event.
package service

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/crittertrack/crittertrack-server/internal/queue"
)

// EventPublisher publishes domain events to RabbitMQ. An empty URL
// turns every publish into a no-op, which is how deployments
// without a broker run.
type EventPublisher struct {
	URL string
}

// NewEventPublisher builds a publisher for the given AMQP URL.
func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{URL: url}
}

// PublishUserRegistered publishes a UserRegisteredEvent to the
// user.registered queue. The queue is declared durable and the
// message persistent so registrations survive a broker restart.
// The function never panics; any error is logged and returned for
// the caller to ignore.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event queue.UserRegisteredEvent) error {
	if p == nil || p.URL == "" {
		return nil
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Declare is idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.UserRegisteredQueue, // name
		true,                      // durable
		false,                     // autoDelete
		false,                     // exclusive
		false,                     // noWait
		nil,                       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",                        // default exchange
		queue.UserRegisteredQueue, // routing key
		false,                     // mandatory
		false,                     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
	return err
}
