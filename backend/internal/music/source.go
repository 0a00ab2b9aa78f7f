package music

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/bus"
)

// eofPollInterval is how often Run checks the buffer for a clean
// end-of-stream while a file is loaded, since the decoder signals EOF
// asynchronously via the buffer rather than through a bus event.
const eofPollInterval = 250 * time.Millisecond

// Source is the mixer-facing, bus-driven wrapper around a Decoder: it
// owns the buffer the decoder fills and the secondary-channel audio
// source the mixer pulls from, and publishes PlaybackEndOfSong once a
// decode finishes playing out.
type Source struct {
	buf     *audio.Buffer
	decoder *Decoder
	log     *zap.Logger
}

// NewSource creates a music source with its own buffer and decoder.
func NewSource(log *zap.Logger) *Source {
	buf := audio.NewBuffer()
	return &Source{
		buf:     buf,
		decoder: New(buf, log),
		log:     log,
	}
}

// NextSample satisfies audio.Source.
func (s *Source) NextSample() (audio.Sample, bool) {
	return s.buf.NextSample()
}

// Run subscribes to the bus and processes MusicEvents until ctx is
// cancelled. A background watchdog polls the buffer for end-of-stream
// so it can notify the playback controller to advance the queue, since
// the decoder signals EOF on the buffer rather than on the bus.
func (s *Source) Run(ctx context.Context, b *bus.Bus) {
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	loaded := make(chan bool, 1)
	go s.watchEOF(ctx, b, loaded)

	for {
		ev, _, err := sub.Recv(ctx)
		if err != nil {
			return
		}

		musicEv, ok := ev.(bus.MusicEvent)
		if !ok {
			continue
		}

		switch a := musicEv.Action.(type) {
		case bus.MusicPlayURL:
			s.decoder.Play(ctx, a.URL)
			loaded <- true
		case bus.MusicPlayFile:
			s.decoder.Play(ctx, a.Path)
			loaded <- true
		case bus.MusicStop:
			s.decoder.Stop()
			s.buf.Clear()
			loaded <- false
		case bus.MusicPause:
			s.buf.SetPaused(true)
		case bus.MusicResume:
			s.buf.SetPaused(false)
		}
	}
}

// watchEOF polls the buffer once a track is loaded and publishes
// PlaybackEndOfSong the moment it drains cleanly.
func (s *Source) watchEOF(ctx context.Context, b *bus.Bus, loaded <-chan bool) {
	ticker := time.NewTicker(eofPollInterval)
	defer ticker.Stop()

	isLoaded := false
	for {
		select {
		case <-ctx.Done():
			return
		case isLoaded = <-loaded:
		case <-ticker.C:
			if isLoaded && s.buf.IsEOF() {
				isLoaded = false
				b.Publish(bus.PlaybackEvent{Action: bus.PlaybackEndOfSong{}})
			}
		}
	}
}
