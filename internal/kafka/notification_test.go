package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/domain"
)

type fakeNotifier struct {
	calls []application.NotifyCommand
}

func (f *fakeNotifier) Notify(ctx context.Context, cmd application.NotifyCommand) (bool, error) {
	f.calls = append(f.calls, cmd)
	if !cmd.Kind.Valid() {
		return false, domain.ErrInvalidArgument
	}
	return true, nil
}

func TestNotificationHandlerForwardsRecords(t *testing.T) {
	n := &fakeNotifier{}
	h := NewNotificationHandler(n)

	h.Handle(context.Background(), "favourite-events",
		[]byte(`{"user_id":"owner","kind":"new-favourite","payload":{"listing_id":"l1"}}`))

	require.Len(t, n.calls, 1)
	assert.Equal(t, "owner", n.calls[0].UserID)
	assert.Equal(t, domain.EventNewFavourite, n.calls[0].Kind)
	assert.JSONEq(t, `{"listing_id":"l1"}`, string(n.calls[0].Payload))
}

func TestNotificationHandlerInfersKindFromTopic(t *testing.T) {
	n := &fakeNotifier{}
	h := NewNotificationHandler(n)

	h.Handle(context.Background(), "payment-events", []byte(`{"user_id":"payer"}`))
	h.Handle(context.Background(), "favourite-events", []byte(`{"user_id":"owner"}`))

	require.Len(t, n.calls, 2)
	assert.Equal(t, domain.EventNewPayment, n.calls[0].Kind)
	assert.Equal(t, domain.EventNewFavourite, n.calls[1].Kind)
}

func TestNotificationHandlerSkipsBadRecords(t *testing.T) {
	n := &fakeNotifier{}
	h := NewNotificationHandler(n)

	h.Handle(context.Background(), "payment-events", []byte(`not json`))
	assert.Empty(t, n.calls)

	// Unknown kinds reach the notifier, which rejects them; the handler must not panic.
	h.Handle(context.Background(), "other", []byte(`{"user_id":"u","kind":"bogus"}`))
	assert.Len(t, n.calls, 1)
}

func TestRecordCarrier(t *testing.T) {
	c := kgoRecordCarrier{record: &kgo.Record{Headers: []kgo.RecordHeader{
		{Key: "traceparent", Value: []byte("00-abc-def-01")},
		{Key: "baggage", Value: []byte("k=v")},
	}}}

	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
}
