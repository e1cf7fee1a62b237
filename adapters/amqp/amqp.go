// Package amqp publishes violations to an AMQP exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"github.com/effectus/sig/adapters"
)

// Config holds AMQP reporter configuration.
type Config struct {
	URL             string `json:"url" yaml:"url"`
	Exchange        string `json:"exchange" yaml:"exchange"`
	ExchangeType    string `json:"exchange_type" yaml:"exchange_type"`
	ExchangeDeclare bool   `json:"exchange_declare" yaml:"exchange_declare"`
	RoutingKey      string `json:"routing_key" yaml:"routing_key"`
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Reporter publishes one persistent JSON message per violation.
type Reporter struct {
	channel    publisher
	exchange   string
	routingKey string
	close      func() error
}

// Dial connects to the broker and opens a channel.
func Dial(cfg Config) (*Reporter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp reporter requires a url")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.URL, err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if cfg.ExchangeDeclare {
		kind := cfg.ExchangeType
		if kind == "" {
			kind = amqp.ExchangeTopic
		}
		if err := channel.ExchangeDeclare(cfg.Exchange, kind, true, false, false, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
		}
	}

	r := NewReporter(channel, cfg.Exchange, cfg.RoutingKey)
	r.close = func() error {
		return multierr.Combine(channel.Close(), conn.Close())
	}
	return r, nil
}

// NewReporter publishes through an existing channel. An empty routing key
// routes by violation kind.
func NewReporter(channel publisher, exchange, routingKey string) *Reporter {
	return &Reporter{channel: channel, exchange: exchange, routingKey: routingKey}
}

// Report publishes v.
func (r *Reporter) Report(ctx context.Context, v adapters.Violation) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode violation %s: %w", v.ID, err)
	}

	key := r.routingKey
	if key == "" {
		key = "sig.violation." + string(v.Kind)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    v.ID,
		Timestamp:    v.OccurredAt,
		Type:         string(v.Kind),
		Body:         body,
	}
	if err := r.channel.PublishWithContext(ctx, r.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish violation %s: %w", v.ID, err)
	}
	return nil
}

// Close closes the channel and connection opened by Dial.
func (r *Reporter) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
