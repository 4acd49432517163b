package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/maneralab/parsbot/internal/flow"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements flow.EventPublisher
type NATSPublisher struct {
	js NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{js: conn}
}

// PublishPostHarvested publishes a harvested post event
func (p *NATSPublisher) PublishPostHarvested(ctx context.Context, event flow.PostHarvestedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.js.Publish("posts.harvested", data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
