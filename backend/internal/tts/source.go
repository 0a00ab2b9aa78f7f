package tts

import (
	"context"

	"go.uber.org/zap"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/constants"
)

// silencePadSamples is 100ms of silence at the mixer's output rate,
// added before and after every synthesized utterance.
const silencePadSamples = constants.SampleRate / 10

// Source owns the TTS playback buffer and the bus subscription that
// feeds it. It implements audio.Source directly so the mixer can treat
// it as one of its channels.
type Source struct {
	buf          *audio.Buffer
	log          *zap.Logger
	allowLowPrio bool
}

// NewSource creates a TTS source with an empty buffer.
func NewSource(log *zap.Logger) *Source {
	return &Source{
		buf:          audio.NewBuffer(),
		log:          log,
		allowLowPrio: true,
	}
}

// NextSample satisfies audio.Source.
func (s *Source) NextSample() (audio.Sample, bool) {
	return s.buf.NextSample()
}

// Run subscribes to the bus and processes TextToSpeech events until ctx
// is cancelled. Must run in its own goroutine.
func (s *Source) Run(ctx context.Context, b *bus.Bus) {
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for {
		ev, _, err := sub.Recv(ctx)
		if err != nil {
			return
		}

		ttsEv, ok := ev.(bus.TextToSpeechEvent)
		if !ok {
			continue
		}

		switch a := ttsEv.Action.(type) {
		case bus.TextToSpeechSpeak:
			if a.Prio == bus.PriorityLow && !s.allowLowPrio {
				continue
			}
			s.speak(ctx, a.Text, a.Prio == bus.PriorityHigh)
		case bus.TextToSpeechAllowLowPrio:
			s.allowLowPrio = true
		case bus.TextToSpeechDisallowLowPrio:
			s.allowLowPrio = false
		}
	}
}

func (s *Source) speak(ctx context.Context, text string, isHighPrio bool) {
	spoken, err := Synthesize(ctx, text)
	if err != nil {
		s.log.Error("espeak-ng synthesis failed", zap.Error(err))
		return
	}

	resampled := Resample(spoken, constants.EspeakSampleRate, constants.SampleRate)

	pad := make([]audio.Sample, silencePadSamples)

	if isHighPrio {
		s.buf.Clear()
	}

	s.buf.PushSamples(pad)
	s.buf.PushSamples(resampled)
	s.buf.PushSamples(pad)
}
