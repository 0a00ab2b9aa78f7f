package audio

import "sync"

// Buffer is a mutex-protected FIFO of stereo samples consumed one frame
// at a time by the mixer pump. Unlike a ring buffer it does not shift
// elements on every pop: it advances an index and only truncates the
// backing slice once fully drained, so a producer can keep pushing
// while the consumer is mid-buffer without reallocating on every frame.
type Buffer struct {
	mu       sync.Mutex
	samples  []Sample
	position int
	eof      bool
	paused   bool
}

// NewBuffer returns an empty, unpaused, non-eof buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Clear discards all buffered samples and resets eof, but leaves the
// paused flag untouched — pausing is a playback-controller decision
// independent of what happens to be buffered.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.position = 0
	b.samples = nil
	b.eof = false
}

// NextSample pops and returns the next sample, or false if the buffer
// is empty or paused. Matches the source's Option<Sample>-returning
// next_sample, generalized with a paused short-circuit.
func (b *Buffer) NextSample() (Sample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.paused {
		return Sample{}, false
	}
	if b.position >= len(b.samples) {
		return Sample{}, false
	}
	sample := b.samples[b.position]
	b.position++
	if b.position >= len(b.samples) {
		b.position = 0
		b.samples = b.samples[:0]
	}
	return sample, true
}

// PushSamples appends samples to the end of the buffer.
func (b *Buffer) PushSamples(samples []Sample) {
	if len(samples) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// IsEOF reports whether the source feeding this buffer has signaled
// clean end-of-stream and every buffered sample has been consumed.
func (b *Buffer) IsEOF() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eof && b.position >= len(b.samples)
}

// SetEOF marks (or clears) the end-of-stream flag.
func (b *Buffer) SetEOF(eof bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eof = eof
}

// Paused reports whether the buffer is currently withholding samples
// from NextSample.
func (b *Buffer) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// SetPaused pauses or resumes sample delivery without discarding
// buffered audio.
func (b *Buffer) SetPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = paused
}

// PositionSecs reports playback progress through the currently buffered
// material, in seconds, at the given sample rate. The position returns
// to zero whenever the buffer drains or is cleared.
func (b *Buffer) PositionSecs(sampleRate int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.position) / float64(sampleRate)
}

// Len reports the number of samples currently buffered and unconsumed.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples) - b.position
}
