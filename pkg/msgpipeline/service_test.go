package msgpipeline_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-msgtrace/pkg/converter"
	"github.com/illmade-knight/go-msgtrace/pkg/diagnostics"
	"github.com/illmade-knight/go-msgtrace/pkg/dumpstore"
	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
	"github.com/illmade-knight/go-msgtrace/pkg/msgpipeline"
)

func newServiceInspector(t *testing.T) *diagnostics.Inspector {
	t.Helper()
	inspector, err := diagnostics.NewInspector(diagnostics.InspectorConfig{}, converter.NewCastConverter(), zerolog.Nop())
	require.NoError(t, err)
	return inspector
}

func newInbound(body []byte, acked, nacked *atomic.Bool) msgpipeline.InboundExchange {
	ex := exchange.NewExchange(exchange.NewContext(converter.NewCastConverter()))
	ex.FromRouteID = "orders-route"
	ex.FromEndpointURI = "pubsub://orders-sub"
	ex.Message().SetBody(exchange.NewMemoryStreamCache(body))
	return msgpipeline.InboundExchange{
		Exchange: ex,
		Ack:      func() { acked.Store(true) },
		Nack:     func() { nacked.Store(true) },
	}
}

func okNode(id, label string) msgpipeline.Node {
	return msgpipeline.Node{
		ID:    id,
		Label: label,
		Process: func(context.Context, *exchange.Exchange) error {
			return nil
		},
	}
}

func TestNewPipelineService_Validation(t *testing.T) {
	inspector := newServiceInspector(t)
	source := NewMockExchangeSource(1)
	nodes := []msgpipeline.Node{okNode("n1", "noop")}

	_, err := msgpipeline.NewPipelineService(msgpipeline.PipelineServiceConfig{}, nil, nodes, inspector, nil, nil, zerolog.Nop())
	require.Error(t, err)

	_, err = msgpipeline.NewPipelineService(msgpipeline.PipelineServiceConfig{}, source, nil, inspector, nil, nil, zerolog.Nop())
	require.Error(t, err)

	_, err = msgpipeline.NewPipelineService(msgpipeline.PipelineServiceConfig{}, source, nodes, nil, nil, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestPipelineService_SuccessfulExchangeIsAcked(t *testing.T) {
	inspector := newServiceInspector(t)
	source := NewMockExchangeSource(10)

	nodes := []msgpipeline.Node{
		okNode("validate-1", "validate(order)"),
		okNode("enrich-1", "enrich(customer)"),
	}
	service, err := msgpipeline.NewPipelineService(
		msgpipeline.PipelineServiceConfig{RouteID: "orders-route", NumWorkers: 1},
		source, nodes, inspector, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	t.Cleanup(serviceCancel)
	require.NoError(t, service.Start(serviceCtx))

	var acked, nacked atomic.Bool
	inbound := newInbound([]byte(`{"order":1}`), &acked, &nacked)
	source.Push(inbound)

	require.Eventually(t, acked.Load, time.Second, 10*time.Millisecond, "exchange was not Acked")
	assert.False(t, nacked.Load())

	history := inbound.Exchange.History()
	require.Len(t, history, 2, "one history entry per node visit")
	assert.Equal(t, "validate-1", history[0].NodeID)
	assert.Equal(t, "enrich-1", history[1].NodeID)
	assert.Equal(t, "orders-route", history[0].RouteID)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(stopCancel)
	require.NoError(t, service.Stop(stopCtx))
}

func TestPipelineService_FailureCapturesDumpAndNacks(t *testing.T) {
	inspector := newServiceInspector(t)
	source := NewMockExchangeSource(10)
	store, err := dumpstore.NewInMemoryStore(10)
	require.NoError(t, err)
	publisher := NewMockDumpPublisher()

	nodes := []msgpipeline.Node{
		okNode("validate-1", "validate(order)"),
		{
			ID:    "enrich-1",
			Label: "enrich(customer)",
			Process: func(context.Context, *exchange.Exchange) error {
				return errors.New("customer lookup failed")
			},
		},
	}
	service, err := msgpipeline.NewPipelineService(
		msgpipeline.PipelineServiceConfig{RouteID: "orders-route", NumWorkers: 1},
		source, nodes, inspector, store, publisher, zerolog.Nop())
	require.NoError(t, err)

	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	t.Cleanup(serviceCancel)
	require.NoError(t, service.Start(serviceCtx))

	var acked, nacked atomic.Bool
	inbound := newInbound([]byte(`{"order":2}`), &acked, &nacked)
	source.Push(inbound)

	require.Eventually(t, nacked.Load, time.Second, 10*time.Millisecond, "exchange was not Nacked")
	assert.False(t, acked.Load())

	exchangeID := inbound.Exchange.ID()
	record, err := store.Fetch(context.Background(), exchangeID)
	require.NoError(t, err)
	assert.Equal(t, "orders-route", record.RouteID)
	assert.Contains(t, record.History, "Message History")
	assert.Contains(t, record.History, "validate-1")
	assert.Contains(t, record.History, "enrich-1")
	assert.Contains(t, record.XML, `<message exchangeId="`+exchangeID+`">`)
	// Streams are not materialized in failure dumps.
	assert.Contains(t, record.XML, "[Body is instance of ResettableStream]")

	published := publisher.Published()
	require.Len(t, published, 1)
	assert.Equal(t, exchangeID, published[0].ExchangeID)

	// The dump must leave the stream cache body fully re-readable.
	cache, ok := inbound.Exchange.Message().Body().(*exchange.MemoryStreamCache)
	require.True(t, ok)
	content, err := io.ReadAll(cache)
	require.NoError(t, err)
	assert.Equal(t, `{"order":2}`, string(content))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(stopCancel)
	require.NoError(t, service.Stop(stopCtx))
}

func TestPipelineService_FailedNodeStillRecordsHistory(t *testing.T) {
	inspector := newServiceInspector(t)
	source := NewMockExchangeSource(10)

	nodes := []msgpipeline.Node{
		{
			ID:    "explode-1",
			Label: "explode",
			Process: func(context.Context, *exchange.Exchange) error {
				return errors.New("boom")
			},
		},
	}
	service, err := msgpipeline.NewPipelineService(
		msgpipeline.PipelineServiceConfig{RouteID: "orders-route", NumWorkers: 1},
		source, nodes, inspector, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	t.Cleanup(serviceCancel)
	require.NoError(t, service.Start(serviceCtx))

	var acked, nacked atomic.Bool
	inbound := newInbound([]byte("x"), &acked, &nacked)
	source.Push(inbound)

	require.Eventually(t, nacked.Load, time.Second, 10*time.Millisecond)

	history := inbound.Exchange.History()
	require.Len(t, history, 1, "the failing node visit is still recorded")
	assert.Equal(t, "explode-1", history[0].NodeID)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(stopCancel)
	require.NoError(t, service.Stop(stopCtx))
}
