package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
)

func recvAction(t *testing.T, sub *bus.Subscription) bus.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, _, err := sub.Recv(ctx)
	require.NoError(t, err)
	return ev
}

func TestDispatchListQueuePublishesPlaybackEvent(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	reply := Dispatch(context.Background(), b, zap.NewNop(), "!q", "alice")
	assert.Empty(t, reply)

	ev := recvAction(t, sub)
	pbEv, ok := ev.(bus.PlaybackEvent)
	require.True(t, ok)
	_, ok = pbEv.Action.(bus.PlaybackListQueue)
	assert.True(t, ok)
}

func TestDispatchTempoCarriesNick(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	Dispatch(context.Background(), b, zap.NewNop(), "!tempo", "alice")

	ev := recvAction(t, sub)
	slEv, ok := ev.(bus.SongleaderEvent)
	require.True(t, ok)
	action, ok := slEv.Action.(bus.SongleaderTempo)
	require.True(t, ok)
	assert.Equal(t, "alice", action.Nick)
}

func TestDispatchSpeakJoinsRemainingWords(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	Dispatch(context.Background(), b, zap.NewNop(), "!speak hello there world", "alice")

	ev := recvAction(t, sub)
	ttsEv, ok := ev.(bus.TextToSpeechEvent)
	require.True(t, ok)
	action, ok := ttsEv.Action.(bus.TextToSpeechSpeak)
	require.True(t, ok)
	assert.Equal(t, "hello there world", action.Text)
	assert.Equal(t, bus.PriorityLow, action.Prio)
}

func TestDispatchSpeakWithNoTextIsNoOp(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	Dispatch(context.Background(), b, zap.NewNop(), "!speak", "alice")

	_, _, ok := sub.TryRecv()
	assert.False(t, ok, "!speak with no words should publish nothing")
}

func TestDispatchRequestPublishesSongleaderRequestSongURL(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	Dispatch(context.Background(), b, zap.NewNop(), "!request https://sangbok.example/song-x", "bob")

	ev := recvAction(t, sub)
	slEv, ok := ev.(bus.SongleaderEvent)
	require.True(t, ok)
	action, ok := slEv.Action.(bus.SongleaderRequestSongURL)
	require.True(t, ok)
	assert.Equal(t, "https://sangbok.example/song-x", action.URL)
	assert.Equal(t, "bob", action.QueuedBy)
}

func TestDispatchSongAdminForceBingo(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	Dispatch(context.Background(), b, zap.NewNop(), "!song force-bingo-mode", "admin")

	ev := recvAction(t, sub)
	slEv, ok := ev.(bus.SongleaderEvent)
	require.True(t, ok)
	_, ok = slEv.Action.(bus.SongleaderForceBingo)
	assert.True(t, ok)
}

func TestDispatchMusicAdminNext(t *testing.T) {
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	Dispatch(context.Background(), b, zap.NewNop(), "!music next", "admin")

	ev := recvAction(t, sub)
	pbEv, ok := ev.(bus.PlaybackEvent)
	require.True(t, ok)
	_, ok = pbEv.Action.(bus.PlaybackNext)
	assert.True(t, ok)
}

func TestDispatchUnknownCommandIsIgnored(t *testing.T) {
	b := bus.New(zap.NewNop())
	reply := Dispatch(context.Background(), b, zap.NewNop(), "not a command", "alice")
	assert.Empty(t, reply)
}

func TestDispatchEmptyTextIsIgnored(t *testing.T) {
	b := bus.New(zap.NewNop())
	reply := Dispatch(context.Background(), b, zap.NewNop(), "", "alice")
	assert.Empty(t, reply)
}
