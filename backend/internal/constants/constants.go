package constants

import "time"

// Audio pipeline constants
const (
	// SampleRate is the mixer's and every downstream sink's output rate.
	SampleRate = 48000

	// BitDepth is the PCM sample width used throughout the audio pipeline.
	BitDepth = 16

	// Channels is the number of interleaved channels in a Sample.
	Channels = 2

	// EspeakSampleRate is the rate text-to-speech synthesis runs at before
	// resampling to SampleRate.
	EspeakSampleRate = 22050
)

// MaxSongDuration rejects queue requests for tracks longer than this.
const MaxSongDuration = 600 * time.Second

// Discord constants
const (
	// DiscordMaxMessageLength is the maximum character limit for Discord messages
	DiscordMaxMessageLength = 2000
)
