package playback

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/playbacktypes"
)

func newTestController(t *testing.T) (*Controller, *bus.Bus, *bus.Subscription) {
	t.Helper()
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	path := filepath.Join(t.TempDir(), "state.json")
	c := New(b, zap.NewNop(), path)
	return c, b, sub
}

func recvUntil[T any](t *testing.T, sub *bus.Subscription) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		ev, _, err := sub.Recv(ctx)
		require.NoError(t, err)
		if v, ok := ev.(T); ok {
			return v
		}
	}
}

func TestEnqueueIntoEmptyQueueStartsPlayback(t *testing.T) {
	c, _, sub := newTestController(t)

	song := playbacktypes.Song{URL: "https://youtu.be/abc", VideoID: "abc", Title: "Halvankaren", QueuedBy: "alice"}
	c.handle(bus.PlaybackEnqueue{Song: song})

	musicEv := recvUntil[bus.MusicEvent](t, sub)
	playURL, ok := musicEv.Action.(bus.MusicPlayURL)
	require.True(t, ok)
	assert.Equal(t, song.URL, playURL.URL)

	assert.True(t, c.state.IsPlaying)
	assert.Len(t, c.state.QueuedSongs, 1)
}

func TestEnqueueIntoNonEmptyQueueDoesNotInterruptPlayback(t *testing.T) {
	c, _, _ := newTestController(t)
	first := playbacktypes.Song{URL: "u1", VideoID: "1", QueuedBy: "a"}
	second := playbacktypes.Song{URL: "u2", VideoID: "2", QueuedBy: "b"}

	c.handle(bus.PlaybackEnqueue{Song: first})
	c.handle(bus.PlaybackEnqueue{Song: second})

	assert.Len(t, c.state.QueuedSongs, 2)
	assert.Equal(t, first.VideoID, c.state.QueuedSongs[0].VideoID)
}

func TestNextAdvancesQueueAndEndsWhenEmpty(t *testing.T) {
	c, _, sub := newTestController(t)
	song := playbacktypes.Song{URL: "u1", VideoID: "1", QueuedBy: "a"}
	c.handle(bus.PlaybackEnqueue{Song: song})
	recvUntil[bus.MusicEvent](t, sub) // drain the PlayURL from enqueue

	c.handle(bus.PlaybackNext{})

	musicEv := recvUntil[bus.MusicEvent](t, sub)
	_, isStop := musicEv.Action.(bus.MusicStop)
	assert.True(t, isStop, "queue should be empty after advancing past the only song")
	assert.Empty(t, c.state.QueuedSongs)
	assert.Len(t, c.state.PlayedSongs, 1)
}

func TestPrevRestoresLastPlayedSong(t *testing.T) {
	c, _, sub := newTestController(t)
	song := playbacktypes.Song{URL: "u1", VideoID: "1", QueuedBy: "a"}
	c.handle(bus.PlaybackEnqueue{Song: song})
	recvUntil[bus.MusicEvent](t, sub)

	c.handle(bus.PlaybackNext{})
	recvUntil[bus.MusicEvent](t, sub)

	c.handle(bus.PlaybackPrev{})
	musicEv := recvUntil[bus.MusicEvent](t, sub)
	playURL, ok := musicEv.Action.(bus.MusicPlayURL)
	require.True(t, ok)
	assert.Equal(t, song.URL, playURL.URL)
	assert.Empty(t, c.state.PlayedSongs)
	assert.Len(t, c.state.QueuedSongs, 1)
}

func TestRmByNickRemovesLastMatchingRequest(t *testing.T) {
	c, _, _ := newTestController(t)
	c.state.QueuedSongs = []playbacktypes.Song{
		{VideoID: "1", QueuedBy: "alice", Title: "A"},
		{VideoID: "2", QueuedBy: "bob", Title: "B"},
		{VideoID: "3", QueuedBy: "alice", Title: "C"},
	}

	c.handle(bus.PlaybackRmByNick{Nick: "alice"})

	require.Len(t, c.state.QueuedSongs, 2)
	assert.Equal(t, "1", c.state.QueuedSongs[0].VideoID)
	assert.Equal(t, "2", c.state.QueuedSongs[1].VideoID)
}

func TestRmByPosOutOfRangeLeavesQueueUntouched(t *testing.T) {
	c, _, _ := newTestController(t)
	c.state.QueuedSongs = []playbacktypes.Song{{VideoID: "1"}}

	c.handle(bus.PlaybackRmByPos{Pos: 5})

	assert.Len(t, c.state.QueuedSongs, 1)
}

func TestPersistedStateSurvivesReload(t *testing.T) {
	c, _, sub := newTestController(t)
	song := playbacktypes.Song{URL: "u1", VideoID: "1", QueuedBy: "a"}
	c.handle(bus.PlaybackEnqueue{Song: song})
	recvUntil[bus.MusicEvent](t, sub)

	reloaded := New(bus.New(zap.NewNop()), zap.NewNop(), c.path)
	require.Len(t, reloaded.state.QueuedSongs, 1)
	assert.Equal(t, song.VideoID, reloaded.state.QueuedSongs[0].VideoID)
}
