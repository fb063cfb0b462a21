package bus

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/signalsfoundry/geofencer/core"
)

// Publisher emits change events onto the bus. It publishes exactly two
// payload shapes: "in"/"out" on status channels and a zone name (or
// empty string) on current-zone channels.
type Publisher struct {
	client *backend.Client
}

// NewPublisher creates a publisher on an existing Redis client.
func NewPublisher(client *backend.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishZoneStatus emits one in/out flip.
func (p *Publisher) PublishZoneStatus(ctx context.Context, change core.ZoneStatusChange) error {
	payload := PayloadOutside
	if change.Inside {
		payload = PayloadInside
	}
	topic := StatusTopic(change.Account, change.Zone)
	if err := p.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishCurrentZone emits one current-zone change. An empty zone name
// is published as-is and means "no current zone".
func (p *Publisher) PublishCurrentZone(ctx context.Context, change core.CurrentZoneChange) error {
	topic := CurrentZoneTopic(change.Account)
	if err := p.client.Publish(ctx, topic, change.Zone).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
