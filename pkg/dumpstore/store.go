// Package dumpstore persists diagnostic dumps produced for failed exchanges
// so they can be inspected after the message itself has moved on: a bounded
// in-memory store for the most recent dumps, a Redis store with expiry for
// shared access, and a GCS archiver for long term audit.
package dumpstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no dump exists for the requested exchange.
var ErrNotFound = errors.New("dump record not found")

// Record is one persisted diagnostic dump of a failed exchange.
type Record struct {
	// ExchangeID identifies the exchange the dump was taken from.
	ExchangeID string `json:"exchangeId"`
	// RouteID is the route the exchange entered the pipeline on.
	RouteID string `json:"routeId"`
	// XML is the structured dump of the in-flight message.
	XML string `json:"xml"`
	// History is the rendered message history table.
	History string `json:"history"`
	// FailedAt is when the failure was recorded.
	FailedAt time.Time `json:"failedAt"`
}

// Store keeps dump records retrievable by exchange id.
type Store interface {
	// Write persists a record, replacing any previous dump for the same exchange.
	Write(ctx context.Context, record *Record) error
	// Fetch returns the record for an exchange, or ErrNotFound.
	Fetch(ctx context.Context, exchangeID string) (*Record, error)
}
