package dumpstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-msgtrace/pkg/dumpstore"
)

func newRecord(exchangeID string) *dumpstore.Record {
	return &dumpstore.Record{
		ExchangeID: exchangeID,
		RouteID:    "route-1",
		XML:        "<message exchangeId=\"" + exchangeID + "\"></message>",
		History:    "Message History",
		FailedAt:   time.Now(),
	}
}

func TestInMemoryStore_WriteAndFetch(t *testing.T) {
	ctx := context.Background()
	store, err := dumpstore.NewInMemoryStore(10)
	require.NoError(t, err)

	record := newRecord("ex-1")
	require.NoError(t, store.Write(ctx, record))

	got, err := store.Fetch(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	_, err = store.Fetch(ctx, "ex-missing")
	assert.ErrorIs(t, err, dumpstore.ErrNotFound)
}

func TestInMemoryStore_RejectsInvalid(t *testing.T) {
	_, err := dumpstore.NewInMemoryStore(0)
	require.Error(t, err)

	store, err := dumpstore.NewInMemoryStore(1)
	require.NoError(t, err)
	assert.Error(t, store.Write(context.Background(), &dumpstore.Record{}))
	assert.Error(t, store.Write(context.Background(), nil))
}

func TestInMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store, err := dumpstore.NewInMemoryStore(2)
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, newRecord("ex-1")))
	require.NoError(t, store.Write(ctx, newRecord("ex-2")))

	// Touch ex-1 so ex-2 becomes the eviction candidate.
	_, err = store.Fetch(ctx, "ex-1")
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, newRecord("ex-3")))

	_, err = store.Fetch(ctx, "ex-2")
	assert.ErrorIs(t, err, dumpstore.ErrNotFound, "least recently used record should be evicted")

	_, err = store.Fetch(ctx, "ex-1")
	assert.NoError(t, err)
	_, err = store.Fetch(ctx, "ex-3")
	assert.NoError(t, err)
}

func TestInMemoryStore_RewriteSameExchange(t *testing.T) {
	ctx := context.Background()
	store, err := dumpstore.NewInMemoryStore(2)
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, newRecord("ex-1")))
	updated := newRecord("ex-1")
	updated.XML = "<message exchangeId=\"ex-1\"><headers></headers></message>"
	require.NoError(t, store.Write(ctx, updated))

	got, err := store.Fetch(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, updated.XML, got.XML)

	// Rewriting must not consume capacity.
	require.NoError(t, store.Write(ctx, newRecord("ex-2")))
	_, err = store.Fetch(ctx, "ex-1")
	assert.NoError(t, err)
}
