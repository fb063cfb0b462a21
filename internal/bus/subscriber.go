package bus

import (
	"context"

	backend "github.com/redis/go-redis/v9"

	"github.com/signalsfoundry/geofencer/internal/logging"
)

// Message is one raw inbound location sample: the account resolved from
// the channel name plus the untouched payload. Decoding the payload is
// the consumer's business.
type Message struct {
	Account string
	Payload []byte
}

// Subscriber consumes location samples from the bus via a pattern
// subscription over every account's location channel.
type Subscriber struct {
	client *backend.Client
	log    logging.Logger
}

// NewSubscriber creates a subscriber on an existing Redis client.
func NewSubscriber(client *backend.Client, log logging.Logger) *Subscriber {
	if log == nil {
		log = logging.Noop()
	}
	return &Subscriber{client: client, log: log}
}

// Run subscribes and delivers messages to handle until ctx is
// cancelled. Messages on channels that don't parse as location topics
// are dropped with a warning. handle is invoked from the receive loop,
// so a slow handler backpressures the subscription; consumers that need
// concurrency dispatch internally.
func (s *Subscriber) Run(ctx context.Context, handle func(context.Context, Message)) error {
	sub := s.client.PSubscribe(ctx, locationPattern)
	defer sub.Close()

	// Force the subscription before reporting ready.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "subscribed to location channels",
		logging.String("pattern", locationPattern))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			account, ok := accountFromLocationTopic(msg.Channel)
			if !ok {
				s.log.Warn(ctx, "dropping message on unrecognized channel",
					logging.String("channel", msg.Channel))
				continue
			}
			handle(ctx, Message{Account: account, Payload: []byte(msg.Payload)})
		}
	}
}
