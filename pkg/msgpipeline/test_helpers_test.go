package msgpipeline_test

import (
	"context"
	"sync"

	"github.com/illmade-knight/go-msgtrace/pkg/dumpstore"
	"github.com/illmade-knight/go-msgtrace/pkg/msgpipeline"
)

// --- MockExchangeSource ---

// MockExchangeSource is a channel backed ExchangeSource for unit tests.
type MockExchangeSource struct {
	exchChan chan msgpipeline.InboundExchange
	doneChan chan struct{}
	stopOnce sync.Once
	startErr error
}

// NewMockExchangeSource creates a mock source with a buffered channel.
func NewMockExchangeSource(bufferSize int) *MockExchangeSource {
	return &MockExchangeSource{
		exchChan: make(chan msgpipeline.InboundExchange, bufferSize),
		doneChan: make(chan struct{}),
	}
}

func (m *MockExchangeSource) Exchanges() <-chan msgpipeline.InboundExchange { return m.exchChan }

func (m *MockExchangeSource) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	go func() {
		<-ctx.Done()
		_ = m.Stop(context.Background())
	}()
	return nil
}

func (m *MockExchangeSource) Stop(_ context.Context) error {
	m.stopOnce.Do(func() {
		close(m.exchChan)
		close(m.doneChan)
	})
	return nil
}

func (m *MockExchangeSource) Done() <-chan struct{} { return m.doneChan }

// Push offers an inbound exchange to the pipeline without blocking.
func (m *MockExchangeSource) Push(inbound msgpipeline.InboundExchange) {
	select {
	case m.exchChan <- inbound:
	default:
	}
}

// --- MockDumpPublisher ---

// MockDumpPublisher records published dump records.
type MockDumpPublisher struct {
	mu        sync.Mutex
	published []*dumpstore.Record
}

func NewMockDumpPublisher() *MockDumpPublisher {
	return &MockDumpPublisher{}
}

func (m *MockDumpPublisher) Publish(_ context.Context, record *dumpstore.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, record)
	return nil
}

func (m *MockDumpPublisher) Stop(_ context.Context) error { return nil }

// Published returns a snapshot of the records published so far.
func (m *MockDumpPublisher) Published() []*dumpstore.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*dumpstore.Record, len(m.published))
	copy(out, m.published)
	return out
}
