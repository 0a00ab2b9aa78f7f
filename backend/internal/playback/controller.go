package playback

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/playbacktypes"
	sitzerrors "sitzbot/backend/pkg/errors"
	"sitzbot/backend/internal/statefile"
)

// Controller owns the playback queue and reacts to PlaybackEvents by
// mutating state, persisting it, and driving the music source via
// MusicEvents. One event is processed at a time under mu, matching the
// source's single RwLock-guarded Playback actor.
type Controller struct {
	bus  *bus.Bus
	log  *zap.Logger
	path string

	mu    sync.Mutex
	state State
}

// New loads persisted state (or defaults) and returns a ready
// Controller. It does not start processing events; call Run for that.
func New(b *bus.Bus, log *zap.Logger, path string) *Controller {
	state := defaultState()
	statefile.LoadOrDefault(path, &state, log)

	log.Info("initial playback state",
		zap.Int("queued", len(state.QueuedSongs)),
		zap.Int("played", len(state.PlayedSongs)),
		zap.Bool("is_playing", state.IsPlaying))

	return &Controller{bus: b, log: log, path: path, state: state}
}

// Run subscribes to the bus and processes PlaybackEvents until ctx is
// cancelled. Each event is handled in its own goroutine, matching the
// source's per-event tokio::spawn, except serialized behind mu so state
// mutations never race.
func (c *Controller) Run(ctx context.Context) {
	sub := c.bus.Subscribe()
	defer c.bus.Unsubscribe(sub)

	for {
		ev, _, err := sub.Recv(ctx)
		if err != nil {
			return
		}

		playbackEv, ok := ev.(bus.PlaybackEvent)
		if !ok {
			continue
		}

		go c.handle(playbackEv.Action)
	}
}

func (c *Controller) handle(action bus.PlaybackAction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch a := action.(type) {
	case bus.PlaybackEnqueue:
		c.enqueue(a.Song)
	case bus.PlaybackListQueue:
		c.listQueue()
	case bus.PlaybackRmByPos:
		c.rmByPos(a.Pos)
	case bus.PlaybackRmByNick:
		c.rmByNick(a.Nick)
	case bus.PlaybackPlay:
		c.play()
	case bus.PlaybackPause:
		c.pause()
	case bus.PlaybackEndOfSong:
		c.state.IsPlaying = false
		c.state.SongLoaded = false
		c.next()
	case bus.PlaybackNext:
		c.next()
	case bus.PlaybackPrev:
		c.prev()
	}
}

func (c *Controller) say(text string) {
	c.bus.Publish(bus.ChatEvent{Action: bus.ChatSend{Text: text, Source: bus.PlatformBot}})
}

func (c *Controller) sayRich(text string, rich bus.RichContent) {
	c.bus.Publish(bus.ChatEvent{Action: bus.ChatSend{Text: text, Rich: rich, Source: bus.PlatformBot}})
}

func (c *Controller) persist() {
	if err := statefile.Save(c.path, &c.state); err != nil {
		c.log.Error("failed to persist playback state", zap.Error(err))
	}
}

func (c *Controller) enqueue(song playbacktypes.Song) {
	queueWasEmpty := len(c.state.QueuedSongs) == 0
	c.state.QueuedSongs = append(c.state.QueuedSongs, song)

	c.sayRich(fmt.Sprintf("Added %s to the queue.", song.Title),
		bus.RichSongEnqueued{Song: song, TimeUntilPlaybackMins: c.minsUntil(song)})

	if !c.state.IsPlaying && c.state.ShouldPlay && queueWasEmpty {
		c.playSong(song)
	}

	c.persist()
}

// minsUntil estimates minutes until song would start playing, summing
// the duration of every song queued ahead of it.
func (c *Controller) minsUntil(song playbacktypes.Song) uint64 {
	var total float64
	for _, s := range c.state.QueuedSongs {
		if s.VideoID == song.VideoID && s.QueuedBy == song.QueuedBy {
			break
		}
		total += s.Duration.Minutes()
	}
	return uint64(total)
}

func (c *Controller) listQueue() {
	var nowPlaying, nextUp *playbacktypes.Song
	if len(c.state.QueuedSongs) > 0 {
		nowPlaying = &c.state.QueuedSongs[0]
	}
	if len(c.state.QueuedSongs) > 1 {
		nextUp = &c.state.QueuedSongs[1]
	}

	var durationMins uint64
	for _, s := range c.state.QueuedSongs {
		durationMins += uint64(s.Duration.Minutes())
	}

	text := "Queue is empty!"
	if nowPlaying != nil {
		next := "(nothing)"
		if nextUp != nil {
			next = fmt.Sprintf("%s (queued by %s)", nextUp.URL, nextUp.QueuedBy)
		}
		text = fmt.Sprintf("Now playing: %s (queued by %s), next up: %s", nowPlaying.URL, nowPlaying.QueuedBy, next)
	}

	c.sayRich(text, bus.RichQueueStatus{
		NowPlaying:        nowPlaying,
		NextUp:            nextUp,
		QueueLength:       len(c.state.QueuedSongs),
		QueueDurationMins: durationMins,
		IsPlaying:         c.state.IsPlaying,
	})
}

func (c *Controller) rmByPos(pos int) {
	if pos < 0 || pos >= len(c.state.QueuedSongs) {
		c.say(sitzerrors.NewSongNotFound(fmt.Sprintf("no queued song at position %d", pos)).Error())
		return
	}
	song := c.state.QueuedSongs[pos]
	c.state.QueuedSongs = append(c.state.QueuedSongs[:pos], c.state.QueuedSongs[pos+1:]...)
	c.sayRich(fmt.Sprintf("Removed %s from the queue.", song.Title), bus.RichSongRemoved{Title: song.Title})
	c.persist()
}

func (c *Controller) rmByNick(nick string) {
	for i := len(c.state.QueuedSongs) - 1; i >= 0; i-- {
		if c.state.QueuedSongs[i].QueuedBy == nick {
			song := c.state.QueuedSongs[i]
			c.state.QueuedSongs = append(c.state.QueuedSongs[:i], c.state.QueuedSongs[i+1:]...)
			c.sayRich(fmt.Sprintf("Removed %s from the queue.", song.Title), bus.RichSongRemoved{Title: song.Title})
			c.persist()
			return
		}
	}
	c.say(sitzerrors.NewSongNotFound(fmt.Sprintf("no queued song requests found by %s", nick)).Error())
}

func (c *Controller) playSong(song playbacktypes.Song) {
	c.state.IsPlaying = true
	c.state.SongLoaded = true

	c.bus.Publish(bus.MusicEvent{Action: bus.MusicPlayURL{URL: song.URL}})

	c.listQueue()
	c.persist()
}

func (c *Controller) endOfQueue() {
	c.state.IsPlaying = false
	c.bus.Publish(bus.MusicEvent{Action: bus.MusicStop{}})
	c.say("Playback queue ended.")
	c.persist()
}

func (c *Controller) next() {
	if len(c.state.QueuedSongs) > 0 {
		song := c.state.QueuedSongs[0]
		c.state.QueuedSongs = c.state.QueuedSongs[1:]
		c.state.PlayedSongs = append(c.state.PlayedSongs, song)
	}

	if len(c.state.QueuedSongs) == 0 {
		c.endOfQueue()
	} else {
		c.playSong(c.state.QueuedSongs[0])
	}
	c.persist()
}

func (c *Controller) prev() {
	n := len(c.state.PlayedSongs)
	if n == 0 {
		c.endOfQueue()
		c.persist()
		return
	}

	song := c.state.PlayedSongs[n-1]
	c.state.PlayedSongs = c.state.PlayedSongs[:n-1]
	c.state.QueuedSongs = append([]playbacktypes.Song{song}, c.state.QueuedSongs...)
	c.playSong(song)
	c.persist()
}

func (c *Controller) play() {
	c.state.IsPlaying = true
	c.state.ShouldPlay = true

	if !c.state.SongLoaded {
		if len(c.state.QueuedSongs) > 0 {
			c.playSong(c.state.QueuedSongs[0])
		}
	} else {
		c.bus.Publish(bus.MusicEvent{Action: bus.MusicResume{}})
	}

	c.persist()
}

func (c *Controller) pause() {
	c.state.IsPlaying = false
	c.state.ShouldPlay = false
	c.bus.Publish(bus.MusicEvent{Action: bus.MusicPause{}})
	c.persist()
}
