package audio

import (
	"context"
	"sync"
	"time"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/constants"
)

// targetChunkSize is the nominal number of frames generated per pump
// tick; the actual count is adjusted every tick to stay sample-accurate
// against wall-clock elapsed time rather than accumulating scheduler
// jitter the way a fixed-size sleep loop would.
const targetChunkSize = 128

const (
	primaryChannelVolume               = 1.25
	initSecondaryChannelVolumeTarget       = 0.75
	initSecondaryChannelVolumeTargetDucked = 0.2
	secondaryCorrectionRate                = 0.0001
	secondarySnapThreshold                 = 0.001
)

// Source is a single channel mixed into the output. The first source
// registered is the primary channel (played at a constant gain); every
// source after it is a secondary channel subject to ducking and fade.
type Source interface {
	NextSample() (Sample, bool)
}

// Mixer pulls frames from a fixed set of sources at a steady cadence
// and republishes the mixed stereo stream to every registered sink.
type Mixer struct {
	bus     *bus.Bus
	sources []Source

	mu        sync.Mutex
	listeners map[chan []Sample]struct{}
}

// New creates a mixer over sources, in primary-then-secondary order.
// The first element of sources is the primary (constant-gain) channel.
func New(b *bus.Bus, sources []Source) *Mixer {
	return &Mixer{
		bus:       b,
		sources:   sources,
		listeners: make(map[chan []Sample]struct{}),
	}
}

// Listen registers a new output listener. The returned channel receives
// one []Sample chunk per pump tick; the caller must call StopListening
// when done.
func (m *Mixer) Listen() chan []Sample {
	ch := make(chan []Sample, 4)
	m.mu.Lock()
	m.listeners[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// StopListening unregisters a listener previously returned by Listen.
func (m *Mixer) StopListening(ch chan []Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listeners[ch]; ok {
		delete(m.listeners, ch)
		close(ch)
	}
}

func (m *Mixer) broadcast(chunk []Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.listeners {
		select {
		case ch <- chunk:
		default:
			// Slow sink: drop this tick's chunk rather than block the pump.
		}
	}
}

// Run drives the pump loop until ctx is cancelled. It must run in its
// own goroutine; it blocks for the lifetime of the mixer.
func (m *Mixer) Run(ctx context.Context) {
	startTime := time.Now()
	var sampleSendCount uint64

	currentSecondaryVolume := float64(initSecondaryChannelVolumeTarget)
	duckSecondaryChannels := false
	adjustedSecondaryVolume := float64(initSecondaryChannelVolumeTarget)
	adjustedSecondaryVolumeDucked := float64(initSecondaryChannelVolumeTargetDucked)

	var sub *bus.Subscription
	if m.bus != nil {
		sub = m.bus.Subscribe()
		defer m.bus.Unsubscribe(sub)
	}

	sleepTime := time.Duration(float64(targetChunkSize) / float64(constants.SampleRate) * float64(time.Second))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if sub != nil {
			for {
				ev, _, ok := sub.TryRecv()
				if !ok {
					break
				}
				mixerEv, ok := ev.(bus.MixerEvent)
				if !ok {
					continue
				}
				switch a := mixerEv.Action.(type) {
				case bus.MixerDuckSecondary:
					duckSecondaryChannels = true
				case bus.MixerUnduckSecondary:
					duckSecondaryChannels = false
				case bus.MixerSetSecondaryVolume:
					adjustedSecondaryVolume = a.Volume
				case bus.MixerSetSecondaryDuckedVolume:
					adjustedSecondaryVolumeDucked = a.Volume
				}
			}
		}

		expectedSentSamples := uint64((time.Since(startTime) + sleepTime).Seconds() * float64(constants.SampleRate))

		var chunkSize uint64
		if expectedSentSamples > sampleSendCount {
			chunkSize = expectedSentSamples - sampleSendCount
		}

		targetSecondaryVolume := adjustedSecondaryVolume
		if duckSecondaryChannels {
			targetSecondaryVolume = adjustedSecondaryVolumeDucked
		}

		chunk := make([]Sample, 0, chunkSize)
		for i := uint64(0); i < chunkSize; i++ {
			delta := targetSecondaryVolume - currentSecondaryVolume
			switch {
			case absFloat(delta) < secondarySnapThreshold:
				currentSecondaryVolume = targetSecondaryVolume
			case delta > 0:
				currentSecondaryVolume += secondaryCorrectionRate
			default:
				currentSecondaryVolume -= secondaryCorrectionRate
			}

			var left, right int16
			for idx, src := range m.sources {
				sample, ok := src.NextSample()
				if !ok {
					sample = Sample{}
				}
				volume := currentSecondaryVolume
				if idx == 0 {
					volume = primaryChannelVolume
				}
				left = mixIn(left, sample.Left, volume)
				right = mixIn(right, sample.Right, volume)
			}
			chunk = append(chunk, Sample{Left: left, Right: right})
		}

		m.broadcast(chunk)
		sampleSendCount += chunkSize

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepTime):
		}
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
