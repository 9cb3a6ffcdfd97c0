// Package pubsub adapts the Google Cloud Pub/Sub SDK to the exporting
// engine's uniform Sender contract (§4.7).
package pubsub

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/vigilantagent/exporting/internal/constants"
)

// Sender publishes formatted batches as Pub/Sub messages.
type Sender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New returns a Sender publishing to topicID in projectID.
func New(ctx context.Context, projectID, topicID string) (*Sender, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("sdk/pubsub: new client: %w", err)
	}
	return &Sender{client: client, topic: client.Topic(topicID)}, nil
}

// Send implements instance.Sender, publishing payload and waiting
// synchronously for the publish to resolve, for at most
// constants.SDKPollTimeout plus five seconds (less if the caller's context
// ends sooner) so a stuck publish cannot wedge the worker loop indefinitely.
func (s *Sender) Send(ctx context.Context, payload []byte) (int, int, error) {
	result := s.topic.Publish(ctx, &pubsub.Message{Data: payload})

	waitCtx, cancel := context.WithTimeout(ctx, constants.SDKPollTimeout+5*time.Second)
	defer cancel()

	if _, err := result.Get(waitCtx); err != nil {
		return 0, 0, fmt.Errorf("sdk/pubsub: publish: %w", err)
	}
	return len(payload), 0, nil
}

// Close stops the topic's publish scheduler and releases the client.
func (s *Sender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
