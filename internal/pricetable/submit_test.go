package pricetable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/offer-stocks/internal/model"
)

type fakeUpserter struct {
	calls [][]model.PriceTableEntry
	err   error
}

func (f *fakeUpserter) UpsertStocks(_ context.Context, _ uint64, entries []model.PriceTableEntry) (int, error) {
	f.calls = append(f.calls, entries)
	if f.err != nil {
		return 0, f.err
	}
	return len(entries), nil
}

func submitFixture(t *testing.T, backend Upserter) (*Submitter, *Collection, []model.PriceTableEntry) {
	t.Helper()
	baseline := []model.PriceTableEntry{persisted(1, 0), persisted(2, 4)}
	baseline[1].Label = "child"
	c := newTestCollection(t, eventOffer(), model.ModeEdition, baseline...)
	s := &Submitter{
		Backend:    backend,
		Calculator: ConstraintCalculator{Mode: model.ModeEdition, Offer: eventOffer(), Now: func() time.Time { return testNow }},
	}
	return s, c, baseline
}

func TestSubmitSendsOnlyChangedEntries(t *testing.T) {
	backend := &fakeUpserter{}
	s, c, baseline := submitFixture(t, backend)
	require.NoError(t, c.SetPrice(0, decimal.NewFromInt(15)))
	_, err := c.AddEntry()
	require.NoError(t, err)
	require.NoError(t, c.SetLabel(2, "senior"))

	res, err := s.Submit(context.Background(), c, baseline, false)
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{Sent: 2, PersistedCount: 2}, res)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, uint64(1), *backend.calls[0][0].ID)
	assert.Nil(t, backend.calls[0][1].ID)
}

func TestSubmitNothingChanged(t *testing.T) {
	backend := &fakeUpserter{}
	s, c, baseline := submitFixture(t, backend)

	res, err := s.Submit(context.Background(), c, baseline, false)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.Empty(t, backend.calls)
}

func TestSubmitValidationNeverReachesBackend(t *testing.T) {
	backend := &fakeUpserter{}
	s, c, baseline := submitFixture(t, backend)
	require.NoError(t, c.SetPrice(0, decimal.NewFromInt(-3)))

	_, err := s.Submit(context.Background(), c, baseline, false)
	assert.Equal(t, KindValidation, Classify(err))
	assert.Empty(t, backend.calls)
}

func TestSubmitEditWithBookingsNeedsConfirmation(t *testing.T) {
	backend := &fakeUpserter{}
	s, c, baseline := submitFixture(t, backend)
	require.NoError(t, c.SetPrice(1, decimal.NewFromInt(8)))

	_, err := s.Submit(context.Background(), c, baseline, false)
	assert.ErrorIs(t, err, ErrEditWithBookingsNeedsConfirmation)
	assert.Empty(t, backend.calls)

	_, err = s.Submit(context.Background(), c, baseline, true)
	assert.NoError(t, err)
	assert.Len(t, backend.calls, 1)
}

func TestSubmitMapsRejectionOntoCollection(t *testing.T) {
	backend := &fakeUpserter{err: &RejectionError{
		Fields: FieldErrors{{Index: 0, Field: FieldPrice}: "price too high"},
		Global: []string{"offer url missing"},
	}}
	s, c, baseline := submitFixture(t, backend)
	_, err := c.AddEntry()
	require.NoError(t, err)
	require.NoError(t, c.SetLabel(2, "senior"))

	_, err = s.Submit(context.Background(), c, baseline, false)
	require.Equal(t, KindRejection, Classify(err))
	var re *RejectionError
	require.True(t, errors.As(err, &re))
	msg, ok := re.Fields.Get(2, FieldPrice)
	assert.True(t, ok)
	assert.Equal(t, "price too high", msg)
	assert.Equal(t, []string{"offer url missing"}, re.Global)
}

func TestSubmitTransportErrorKeepsState(t *testing.T) {
	backend := &fakeUpserter{err: errors.New("connection reset")}
	s, c, baseline := submitFixture(t, backend)
	require.NoError(t, c.SetPrice(0, decimal.NewFromInt(15)))
	before := c.Entries()

	_, err := s.Submit(context.Background(), c, baseline, false)
	assert.Equal(t, KindTransport, Classify(err))
	assert.Equal(t, before, c.Entries())
}
