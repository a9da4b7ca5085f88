// Package queue carries write requests between the HTTP layer and the
// workers that apply them. Delivery is at least once; messages sharing an
// ordering key are delivered in publish order.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message is a write request to publish.
type Message struct {
	EventType   string
	Payload     json.RawMessage
	OrderingKey string
}

// Envelope is the JSON body of every queued message.
type Envelope struct {
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Delivery is a received message.
type Delivery struct {
	ID          string
	OrderingKey string
	Envelope    Envelope
}

// Handler processes one delivery. A nil error acknowledges it; any other
// result leaves it for redelivery.
type Handler func(ctx context.Context, d Delivery) error

// Publisher enqueues messages.
type Publisher interface {
	Publish(ctx context.Context, m Message) (string, error)
	Close() error
}

// Consumer pulls messages until ctx is done.
type Consumer interface {
	Run(ctx context.Context, h Handler) error
}

// Queue both publishes and consumes.
type Queue interface {
	Publisher
	Consumer
}

func encode(m Message, now time.Time) ([]byte, error) {
	body, err := json.Marshal(Envelope{
		EventType: m.EventType,
		Payload:   m.Payload,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return body, nil
}

func decode(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.EventType == "" {
		return Envelope{}, fmt.Errorf("failed to decode envelope: missing eventType")
	}
	return env, nil
}
