package songleader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/songbook"
	"sitzbot/backend/pkg/config"
)

func newTestSongleader(t *testing.T) (*Songleader, *bus.Bus, *bus.Subscription) {
	t.Helper()
	b := bus.New(zap.NewNop())
	sub := b.Subscribe()
	path := filepath.Join(t.TempDir(), "songleader_state.json")
	cfg := &config.Config{Songbook: config.SongbookConfig{SongbookURL: "https://sangbok.example"}}
	s := New(b, zap.NewNop(), cfg, path)
	return s, b, sub
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

func TestTempoRequiresThreeDistinctNicksToReachBingo(t *testing.T) {
	s, _, sub := newTestSongleader(t)
	s.state.Mode = tempoMode()
	s.state.Requests = []songbook.Song{{ID: "song-a", Title: "Song A"}}

	s.handleTempo("alice")
	s.handleTempo("alice")
	s.handleTempo("bob")

	assert.Equal(t, ModeTempo, s.state.Mode.Tag, "two distinct nicks should not yet trigger bingo")

	s.handleTempo("carol")

	assert.Equal(t, ModeBingo, s.state.Mode.Tag)

	_ = recvUntil[bus.PlaybackEvent](t, sub) // allowMusicPlayback(false) from enterBingoMode
}

func TestTempoIgnoredOutsideTempoMode(t *testing.T) {
	s, _, _ := newTestSongleader(t)
	s.state.Mode = inactiveMode()

	s.handleTempo("alice")

	assert.Equal(t, ModeInactive, s.state.Mode.Tag)
}

func TestBingoRequiresThreeDistinctNicksToReachSinging(t *testing.T) {
	s, _, _ := newTestSongleader(t)
	s.state.Mode = bingoMode(songbook.Song{ID: "song-a", Title: "Song A"})

	ctx := context.Background()
	s.handleBingo(ctx, "alice")
	s.handleBingo(ctx, "bob")
	assert.Equal(t, ModeBingo, s.state.Mode.Tag)

	s.handleBingo(ctx, "carol")
	assert.Equal(t, ModeSinging, s.state.Mode.Tag)
}

func TestSkalOnlyTransitionsFromSingingMode(t *testing.T) {
	s, _, _ := newTestSongleader(t)
	s.state.Mode = inactiveMode()
	s.handleSkal()
	assert.Equal(t, ModeInactive, s.state.Mode.Tag, "skål outside singing mode should be ignored")

	s.state.Mode = singingMode()
	s.handleSkal()
	assert.Equal(t, ModeTempo, s.state.Mode.Tag)
}

func TestAddRequestRejectsDuplicate(t *testing.T) {
	var state State
	state.Requests = []songbook.Song{{ID: "song-a"}}

	_, err := state.AddRequest(songbook.Song{ID: "song-a"})
	assert.Error(t, err)
}

func TestAddRequestPromotesFromBackup(t *testing.T) {
	var state State
	state.Backup = []songbook.Song{{ID: "song-a", Title: "backup song"}}

	song, err := state.AddRequest(songbook.Song{ID: "song-a", Title: "backup song"})
	require.NoError(t, err)
	assert.Equal(t, "song-a", song.ID)
	assert.Empty(t, state.Backup)
	assert.Len(t, state.Requests, 1)
}

func TestPopNextSongPrefersFirstSongsThenRequestsThenBackup(t *testing.T) {
	state := State{
		FirstSongs: []songbook.Song{{ID: "first"}},
		Requests:   []songbook.Song{{ID: "req"}},
		Backup:     []songbook.Song{{ID: "backup"}},
	}

	song, ok := state.PopNextSong()
	require.True(t, ok)
	assert.Equal(t, "first", song.ID)
	assert.Empty(t, state.FirstSongs)

	song, ok = state.PopNextSong()
	require.True(t, ok)
	assert.Equal(t, "req", song.ID)

	song, ok = state.PopNextSong()
	require.True(t, ok)
	assert.Equal(t, "backup", song.ID)

	_, ok = state.PopNextSong()
	assert.False(t, ok)
}

func TestRmSongByNickRemovesMostRecentMatch(t *testing.T) {
	state := State{Requests: []songbook.Song{
		{ID: "1", QueuedBy: "alice"},
		{ID: "2", QueuedBy: "bob"},
		{ID: "3", QueuedBy: "alice"},
	}}

	song, err := state.RmSongByNick("alice")
	require.NoError(t, err)
	assert.Equal(t, "3", song.ID)
	assert.Len(t, state.Requests, 2)
}

func TestTempoWatchdogFiresAfterDeadline(t *testing.T) {
	s, _, _ := newTestSongleader(t)
	s.state.Requests = []songbook.Song{{ID: "song-a"}}
	s.state.Mode = Mode{Tag: ModeTempo, TempoNicks: map[string]struct{}{}, TempoInitAt: time.Now().Add(-(TempoDeadline + time.Second))}

	s.checkTempoTimeout()

	assert.Equal(t, ModeBingo, s.state.Mode.Tag)
}

func TestTempoWatchdogReductionShortensDeadline(t *testing.T) {
	s, _, _ := newTestSongleader(t)
	s.state.Requests = []songbook.Song{{ID: "song-a"}}
	nicks := map[string]struct{}{"a": {}, "b": {}}
	elapsed := TempoDeadline - 2*TempoDeadlineReduction + time.Second
	s.state.Mode = Mode{Tag: ModeTempo, TempoNicks: nicks, TempoInitAt: time.Now().Add(-elapsed)}

	s.checkTempoTimeout()

	assert.Equal(t, ModeBingo, s.state.Mode.Tag, "two tempos should reduce the deadline enough to have elapsed")
}
