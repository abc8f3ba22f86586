package msgpipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-msgtrace/pkg/dumpstore"
)

// DumpPublisher forwards failure dump records to an audit channel, such as a
// broker topic consumed by downstream tooling.
type DumpPublisher interface {
	Publish(ctx context.Context, record *dumpstore.Record) error
	// Stop flushes any pending records, respecting the context for timeout control.
	Stop(ctx context.Context) error
}

// GoogleDumpPublisher publishes dump records directly to a Pub/Sub topic.
// Records are published as JSON with the exchange and route ids duplicated
// into attributes for subscription filtering.
type GoogleDumpPublisher struct {
	topic  *pubsub.Topic
	logger zerolog.Logger
}

// NewGoogleDumpPublisher creates a publisher for the given topic. It accepts
// a context to verify that the topic exists before returning.
func NewGoogleDumpPublisher(ctx context.Context, client *pubsub.Client, topicID string, logger zerolog.Logger) (*GoogleDumpPublisher, error) {
	if client == nil {
		return nil, errors.New("pubsub client cannot be nil")
	}
	topic := client.Topic(topicID)

	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", topicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicID)
	}

	return &GoogleDumpPublisher{
		topic:  topic,
		logger: logger.With().Str("component", "GoogleDumpPublisher").Str("topic_id", topicID).Logger(),
	}, nil
}

// Publish sends one record. It returns after queueing the message and logs
// the final publish result asynchronously.
func (p *GoogleDumpPublisher) Publish(ctx context.Context, record *dumpstore.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal dump record: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"exchangeId": record.ExchangeID,
			"routeId":    record.RouteID,
		},
	})

	go func() {
		// A fresh context so a short-lived publish context cannot cancel the result wait.
		getCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msgID, err := result.Get(getCtx)
		if err != nil {
			p.logger.Error().Err(err).Str("exchange_id", record.ExchangeID).Msg("Failed to publish dump record")
			return
		}
		p.logger.Info().Str("published_msg_id", msgID).Msg("Dump record sent successfully.")
	}()

	return nil
}

// Stop flushes any pending messages for the topic, respecting the context's timeout.
func (p *GoogleDumpPublisher) Stop(ctx context.Context) error {
	if p.topic == nil {
		return nil
	}

	stopDone := make(chan struct{})
	go func() {
		p.topic.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
