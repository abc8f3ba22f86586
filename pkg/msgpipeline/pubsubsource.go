package msgpipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// Headers set on exchanges built from Pub/Sub messages.
const (
	HeaderMessageID   = "pubsub.messageId"
	HeaderPublishTime = "pubsub.publishTime"
)

// PubsubSourceConfig configures a Google Pub/Sub backed exchange source.
type PubsubSourceConfig struct {
	SubscriptionID string
	// RouteID is recorded as the origin route of every exchange.
	RouteID string
	// EndpointURI is recorded as the origin endpoint of every exchange.
	// Defaults to "pubsub://<subscription-id>".
	EndpointURI            string
	MaxOutstandingMessages int
	NumGoroutines          int
}

// NewPubsubSourceDefaults returns a config with sensible defaults; a source
// always needs a subscription.
func NewPubsubSourceDefaults(subID string) *PubsubSourceConfig {
	return &PubsubSourceConfig{
		SubscriptionID:         subID,
		EndpointURI:            "pubsub://" + subID,
		MaxOutstandingMessages: 100,
		NumGoroutines:          5,
	}
}

// PubsubSource consumes Google Pub/Sub messages and wraps each into an
// exchange: attributes become headers and the payload becomes a resettable
// stream cache body, so diagnostics can materialize it without consuming it.
type PubsubSource struct {
	config       *PubsubSourceConfig
	pipelineCtx  *exchange.Context
	subscription *pubsub.Subscription
	logger       zerolog.Logger
	outputChan   chan InboundExchange
	stopOnce     sync.Once
	cancelSub    context.CancelFunc
	wg           sync.WaitGroup
	doneChan     chan struct{}
}

// NewPubsubSource creates a source reading from the configured subscription.
// It verifies the subscription exists before returning.
func NewPubsubSource(cfg *PubsubSourceConfig, client *pubsub.Client, pipelineCtx *exchange.Context, logger zerolog.Logger) (*PubsubSource, error) {
	if client == nil {
		return nil, errors.New("pubsub client cannot be nil")
	}
	sub := client.Subscription(cfg.SubscriptionID)

	existsCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	exists, err := sub.Exists(existsCtx)
	if !exists || err != nil {
		return nil, fmt.Errorf("subscription %s does not exist: %w", cfg.SubscriptionID, err)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines

	if cfg.EndpointURI == "" {
		cfg.EndpointURI = "pubsub://" + cfg.SubscriptionID
	}

	logger = logger.With().Str("component", "PubsubSource").Str("subscription_id", cfg.SubscriptionID).Logger()
	logger.Info().Msg("Listening for messages")

	return &PubsubSource{
		config:       cfg,
		pipelineCtx:  pipelineCtx,
		subscription: sub,
		logger:       logger,
		outputChan:   make(chan InboundExchange, cfg.MaxOutstandingMessages),
		doneChan:     make(chan struct{}),
	}, nil
}

// Exchanges returns the channel of inbound exchanges.
func (s *PubsubSource) Exchanges() <-chan InboundExchange { return s.outputChan }

// Start begins receiving and wrapping messages.
func (s *PubsubSource) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting Pub/Sub exchange source...")
	receiveCtx, cancel := context.WithCancel(ctx)
	s.cancelSub = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.outputChan)
		defer close(s.doneChan)
		defer s.logger.Info().Msg("Pub/Sub Receive goroutine stopped.")

		err := s.subscription.Receive(receiveCtx, func(_ context.Context, msg *pubsub.Message) {
			inbound := InboundExchange{
				Exchange: s.wrap(msg),
				Ack:      msg.Ack,
				Nack:     msg.Nack,
			}

			select {
			case s.outputChan <- inbound:
			case <-receiveCtx.Done():
				msg.Nack()
				s.logger.Warn().Str("msg_id", msg.ID).Msg("Source stopping, Nacking message due to receive context done.")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("Pub/Sub Receive call exited with error")
		}
	}()
	return nil
}

// wrap builds an exchange from one broker message.
func (s *PubsubSource) wrap(msg *pubsub.Message) *exchange.Exchange {
	payloadCopy := make([]byte, len(msg.Data))
	copy(payloadCopy, msg.Data)

	ex := exchange.NewExchange(s.pipelineCtx)
	ex.FromRouteID = s.config.RouteID
	ex.FromEndpointURI = s.config.EndpointURI

	in := ex.Message()
	in.SetHeader(HeaderMessageID, msg.ID)
	in.SetHeader(HeaderPublishTime, msg.PublishTime)
	for key, value := range msg.Attributes {
		in.SetHeader(key, value)
	}
	in.SetBody(exchange.NewMemoryStreamCache(payloadCopy))

	return ex
}

// Stop cancels receiving and waits for the receive goroutine to finish.
func (s *PubsubSource) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("Stopping Pub/Sub exchange source...")
		if s.cancelSub != nil {
			s.cancelSub()
		}
		select {
		case <-s.doneChan:
			s.logger.Info().Msg("Pub/Sub Receive goroutine confirmed stopped.")
		case <-ctx.Done():
			s.logger.Error().Msg("Timeout waiting for Pub/Sub Receive goroutine to stop.")
		}
	})
	return nil
}

// Done is closed once the source has fully shut down.
func (s *PubsubSource) Done() <-chan struct{} { return s.doneChan }
