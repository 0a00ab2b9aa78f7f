package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New(nil)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish(PlaybackEvent{Action: PlaybackPlay{}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev1, skipped1, err1 := sub1.Recv(ctx)
	require.NoError(t, err1)
	assert.Equal(t, uint64(0), skipped1)
	assert.Equal(t, PlaybackEvent{Action: PlaybackPlay{}}, ev1)

	ev2, _, err2 := sub2.Recv(ctx)
	require.NoError(t, err2)
	assert.Equal(t, PlaybackEvent{Action: PlaybackPlay{}}, ev2)
}

func TestPublishIsNonBlockingAndNilSafe(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() {
		b.Publish(MusicEvent{Action: MusicStop{}})
	})
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestSubscriberLagIsReportedOnNextRecv(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < Capacity+5; i++ {
		b.Publish(MixerEvent{Action: MixerDuckSecondary{}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, skipped, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), skipped)
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
	assert.NotPanics(t, func() { b.Unsubscribe(sub) })

	b.Publish(PlaybackEvent{Action: PlaybackPause{}})

	_, _, ok := sub.TryRecv()
	assert.False(t, ok, "closed subscription channel should never yield an event")
}

func TestTryRecvNonBlockingWhenEmpty(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	_, _, ok := sub.TryRecv()
	assert.False(t, ok)
}
