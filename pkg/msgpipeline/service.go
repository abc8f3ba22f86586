package msgpipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-msgtrace/pkg/diagnostics"
	"github.com/illmade-knight/go-msgtrace/pkg/dumpstore"
	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// PipelineServiceConfig holds configuration for a PipelineService.
type PipelineServiceConfig struct {
	// RouteID names the route the service runs; it is recorded in every
	// history entry.
	RouteID    string
	NumWorkers int
	// IncludeStacktraceHeader appends the stacktrace banner to failure dumps.
	IncludeStacktraceHeader bool
}

// PipelineService pulls exchanges from a source and runs them through a route
// of nodes, appending a history entry per node visit. When a node fails the
// service captures a message history dump and an XML dump of the in-flight
// message, logs them, optionally persists them, and Nacks the exchange.
type PipelineService struct {
	config    PipelineServiceConfig
	source    ExchangeSource
	nodes     []Node
	inspector *diagnostics.Inspector
	store     dumpstore.Store
	publisher DumpPublisher
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// NewPipelineService creates a pipeline service. The store and publisher are
// optional failure dump sinks; pass nil to log dumps only.
func NewPipelineService(
	cfg PipelineServiceConfig,
	source ExchangeSource,
	nodes []Node,
	inspector *diagnostics.Inspector,
	store dumpstore.Store,
	publisher DumpPublisher,
	logger zerolog.Logger,
) (*PipelineService, error) {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 5
	}
	if source == nil {
		return nil, errors.New("source cannot be nil")
	}
	if len(nodes) == 0 {
		return nil, errors.New("route must have at least one node")
	}
	if inspector == nil {
		return nil, errors.New("inspector cannot be nil")
	}

	return &PipelineService{
		config:    cfg,
		source:    source,
		nodes:     nodes,
		inspector: inspector,
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("service", "PipelineService").Str("route_id", cfg.RouteID).Logger(),
	}, nil
}

// Start begins the service: it starts the source and spawns the worker pool.
func (s *PipelineService) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting pipeline service...")

	if err := s.source.Start(ctx); err != nil {
		return fmt.Errorf("failed to start exchange source: %w", err)
	}

	s.logger.Info().Int("worker_count", s.config.NumWorkers).Msg("Starting processing workers...")
	s.wg.Add(s.config.NumWorkers)
	for i := 0; i < s.config.NumWorkers; i++ {
		go s.worker(ctx, i)
	}

	s.logger.Info().Msg("Pipeline service started successfully.")
	return nil
}

// Stop gracefully shuts the service down: source first, then the workers.
func (s *PipelineService) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping pipeline service...")

	if err := s.source.Stop(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Error during source stop, continuing shutdown.")
	}

	workerDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(workerDone)
	}()

	select {
	case <-workerDone:
		s.logger.Info().Msg("All processing workers completed gracefully.")
	case <-ctx.Done():
		s.logger.Error().Err(ctx.Err()).Msg("Timeout waiting for processing workers to finish.")
		return ctx.Err()
	}

	s.logger.Info().Msg("Pipeline service stopped.")
	return nil
}

// worker is the main processing loop for each concurrent worker.
func (s *PipelineService) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()
	s.logger.Debug().Int("worker_id", workerID).Msg("Processing worker started.")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Int("worker_id", workerID).Msg("Processing worker shutting down due to context cancellation.")
			return
		case inbound, ok := <-s.source.Exchanges():
			if !ok {
				s.logger.Info().Int("worker_id", workerID).Msg("Source channel closed, worker exiting.")
				return
			}
			s.processExchange(ctx, inbound)
		}
	}
}

// processExchange runs one exchange through every node of the route.
func (s *PipelineService) processExchange(ctx context.Context, inbound InboundExchange) {
	ex := inbound.Exchange

	for _, node := range s.nodes {
		started := time.Now()
		err := node.Process(ctx, ex)
		ex.AddHistory(exchange.HistoryEntry{
			RouteID:       s.config.RouteID,
			NodeID:        node.ID,
			Label:         node.Label,
			ElapsedMillis: time.Since(started).Milliseconds(),
		})

		if err != nil {
			s.diagnoseFailure(ctx, ex, node, err)
			inbound.Nack()
			return
		}
	}

	s.logger.Debug().Str("exchange_id", ex.ID()).Msg("Exchange processed successfully, Acking.")
	inbound.Ack()
}

// diagnoseFailure captures and sinks the diagnostic dumps for a failed node.
// Dump capture itself never fails, so the failure path cannot cascade.
func (s *PipelineService) diagnoseFailure(ctx context.Context, ex *exchange.Exchange, node Node, cause error) {
	history, _ := s.inspector.DumpMessageHistory(ex, nil, s.config.IncludeStacktraceHeader)
	xml := s.inspector.DumpAsXML(ex.Message())

	s.logger.Error().
		Err(cause).
		Str("exchange_id", ex.ID()).
		Str("node_id", node.ID).
		Str("message_history", history).
		Str("message_dump", xml).
		Msg("Node failed to process exchange, Nacking.")

	if s.store == nil && s.publisher == nil {
		return
	}

	record := &dumpstore.Record{
		ExchangeID: ex.ID(),
		RouteID:    s.config.RouteID,
		XML:        xml,
		History:    history,
		FailedAt:   time.Now(),
	}
	if s.store != nil {
		if err := s.store.Write(ctx, record); err != nil {
			s.logger.Warn().Err(err).Str("exchange_id", ex.ID()).Msg("Failed to persist failure dump.")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record); err != nil {
			s.logger.Warn().Err(err).Str("exchange_id", ex.ID()).Msg("Failed to publish failure dump.")
		}
	}
}
