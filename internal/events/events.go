// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events publishes project lifecycle notifications to a RabbitMQ
// topic exchange. Routing keys have the form "project.<event>".
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"

	"pagecraft/internal/models"
)

// Publisher sends a message body under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// ProjectEvent is the message emitted after a project change is persisted.
type ProjectEvent struct {
	ProjectID     uuid.UUID            `json:"projectId"`
	OwnerID       string               `json:"ownerId"`
	Event         string               `json:"event"`
	From          models.ProjectStatus `json:"from,omitempty"`
	To            models.ProjectStatus `json:"to,omitempty"`
	DeploymentURL string               `json:"deploymentUrl,omitempty"`
	At            time.Time            `json:"at"`
}

// RoutingKey returns the topic key for e.
func (e ProjectEvent) RoutingKey() string {
	return "project." + e.Event
}

// Emit encodes e and publishes it.
func Emit(ctx context.Context, p Publisher, e ProjectEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode project event: %w", err)
	}
	return p.Publish(ctx, e.RoutingKey(), body)
}

// RabbitPublisher publishes persistent JSON messages to a durable topic
// exchange over a single channel.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbitPublisher dials url and declares the exchange. An empty
// exchange name defaults to "pagecraft.events".
func NewRabbitPublisher(url string, exchange string) (*RabbitPublisher, error) {
	exchange = lo.Ternary(exchange != "", exchange, "pagecraft.events")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq declare exchange %q: %w", exchange, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	})
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Discard drops every message. Used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, []byte) error { return nil }
func (Discard) Close() error                                  { return nil }
