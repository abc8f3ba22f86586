// Package msgpipeline runs exchanges through a route of processing nodes,
// recording message history as it goes and capturing diagnostic dumps when a
// node fails. It is the host side glue between a message broker and the
// diagnostics layer.
package msgpipeline

import (
	"context"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// InboundExchange pairs a freshly created exchange with the acknowledgement
// handles of the broker message it was built from.
type InboundExchange struct {
	Exchange *exchange.Exchange

	// Ack signals the broker that processing succeeded.
	Ack func()
	// Nack signals the broker that processing failed and the message should
	// be redelivered or dead-lettered.
	Nack func()
}

// ExchangeSource delivers exchanges from a broker into the pipeline.
type ExchangeSource interface {
	// Exchanges returns the channel pipeline workers receive from.
	Exchanges() <-chan InboundExchange
	// Start begins consumption.
	Start(ctx context.Context) error
	// Stop gracefully ceases consumption and waits for background tasks.
	Stop(ctx context.Context) error
	// Done is closed when the source has completely shut down.
	Done() <-chan struct{}
}

// Node is one processing step of a route.
type Node struct {
	// ID identifies the node within its route.
	ID string
	// Label is a human readable description used in history dumps.
	Label string
	// Process runs the node's work against the in-flight exchange.
	Process func(ctx context.Context, ex *exchange.Exchange) error
}
