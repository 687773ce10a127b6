package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDeletedEvent(t *testing.T) {
	body, err := json.Marshal(StocksDeletedEvent{
		OfferID: 4, OwnerID: 2, CancelledCount: 3, DeletedAt: "2026-10-18T10:00:00Z",
		Stocks: []DeletedStock{{ID: 10, BookingsQuantity: 3}, {ID: 11}},
	})
	require.NoError(t, err)

	line, err := FormatEvent(StocksDeletedQueue, body)
	require.NoError(t, err)
	assert.Equal(t, "[2026-10-18T10:00:00Z] Stocks deleted | offer_id=4 | owner_id=2 | stocks=[10,11] | cancelled_bookings=3\n", line)
}

func TestFormatEventRejectsGarbage(t *testing.T) {
	_, err := FormatEvent(StocksUpsertedQueue, []byte("{"))
	assert.Error(t, err)
	_, err = FormatEvent("booking.confirmed", []byte("{}"))
	assert.Error(t, err)
}

func TestHandleMessageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stocks.log")
	body := []byte(`{"offer_id":1,"owner_id":2,"created":1,"updated":2,"upserted_at":"now"}`)

	require.NoError(t, handleMessage(StocksUpsertedQueue, body, path))
	require.NoError(t, handleMessage(StocksUpsertedQueue, body, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	line := "[now] Stocks saved | offer_id=1 | owner_id=2 | created=1 | updated=2\n"
	assert.Equal(t, line+line, string(content))
}
