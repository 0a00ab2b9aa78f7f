// Package music drives the subprocess pipeline that turns a YouTube URL
// into raw PCM samples: yt-dlp extracts the audio stream, ffmpeg
// transcodes it to signed 16-bit little-endian PCM at the mixer's
// sample rate, and the decoder reads that stream directly into a
// playback buffer.
package music

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/constants"
)

// Executable names of the two pipeline binaries. exec looks each one up
// on PATH when its subprocess is started; FindExecutable resolves a name
// to an absolute path for callers that want it ahead of time.
var (
	YtdlpExecutable  = "yt-dlp"
	FfmpegExecutable = "ffmpeg"
)

func FindExecutable(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// Decoder owns the one in-flight extraction pipeline at a time. A new
// Play call cancels whatever is currently decoding before starting the
// next one, mirroring the oneshot cancel-channel the original replaces
// on every new play command.
type Decoder struct {
	buf *audio.Buffer
	log *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a decoder that feeds buf.
func New(buf *audio.Buffer, log *zap.Logger) *Decoder {
	return &Decoder{buf: buf, log: log}
}

// Stop cancels any in-flight decode and pauses the buffer, matching the
// source's Stop action (set_paused(true) without clearing the buffer).
func (d *Decoder) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
	d.buf.SetPaused(true)
}

// Play cancels any prior in-flight decode, clears the buffer, and
// starts decoding url in the background. It returns immediately; the
// buffer's eof flag is set once decoding finishes or an error occurs.
func (d *Decoder) Play(parent context.Context, url string) {
	ctx, cancel := context.WithCancel(parent)

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	d.mu.Unlock()

	d.buf.Clear()
	d.buf.SetPaused(false)

	go d.run(ctx, url)
}

func (d *Decoder) run(ctx context.Context, url string) {
	err := decodeInto(ctx, url, d.buf, d.log)
	if ctx.Err() != nil {
		d.log.Info("cancelled decoding audio", zap.String("url", url))
		return
	}
	if err != nil {
		d.log.Error("failed decoding audio", zap.String("url", url), zap.Error(err))
		d.buf.SetEOF(true)
		return
	}
	d.buf.SetEOF(true)
	d.log.Info("finished decoding audio", zap.String("url", url))
}

// decodeInto runs the yt-dlp | ffmpeg pipeline and streams raw PCM
// frames into buf until the stream ends or ctx is cancelled.
func decodeInto(ctx context.Context, url string, buf *audio.Buffer, log *zap.Logger) error {
	ytArgs := []string{
		"-f", "bestaudio[ext=m4a]/bestaudio/best",
		"-o", "-",
		"--no-playlist",
		"--no-progress",
		url,
	}
	ytCmd := exec.CommandContext(ctx, YtdlpExecutable, ytArgs...)

	ytOut, err := ytCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("yt-dlp stdout pipe: %w", err)
	}
	ytErr, err := ytCmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("yt-dlp stderr pipe: %w", err)
	}

	ffArgs := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-i", "pipe:0",
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprint(constants.SampleRate),
		"-ac", fmt.Sprint(constants.Channels),
		"pipe:1",
	}
	ffCmd := exec.CommandContext(ctx, FfmpegExecutable, ffArgs...)
	ffCmd.Stdin = ytOut

	ffOut, err := ffCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	ffErr, err := ffCmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := ytCmd.Start(); err != nil {
		return fmt.Errorf("starting yt-dlp: %w", err)
	}
	if err := ffCmd.Start(); err != nil {
		ytCmd.Process.Kill()
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Both stderr streams must be drained concurrently with the pcm read
	// below, or a chatty subprocess fills its pipe buffer and deadlocks
	// the whole pipeline waiting for someone to read stdout.
	g.Go(func() error { drainStderr(ytErr, "yt-dlp", log); return nil })
	g.Go(func() error { drainStderr(ffErr, "ffmpeg", log); return nil })

	g.Go(func() error {
		return readPCM(gctx, ffOut, buf)
	})

	readErr := g.Wait()

	ytCmd.Wait()
	ffCmd.Wait()

	return readErr
}

func drainStderr(r io.Reader, label string, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Debug(label+" stderr", zap.String("line", scanner.Text()))
	}
}

// readPCM reads interleaved s16le stereo frames from r into buf until
// EOF, in chunk-sized batches to avoid locking buf per-sample.
func readPCM(ctx context.Context, r io.Reader, buf *audio.Buffer) error {
	const framesPerRead = 1024
	raw := make([]byte, framesPerRead*constants.Channels*2)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := io.ReadFull(r, raw)
		if n > 0 {
			buf.PushSamples(decodeFrames(raw[:n]))
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("reading pcm stream: %w", err)
		}
	}
}

func decodeFrames(raw []byte) []audio.Sample {
	frameSize := constants.Channels * 2
	n := len(raw) / frameSize
	samples := make([]audio.Sample, 0, n)
	for i := 0; i < n; i++ {
		off := i * frameSize
		left := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
		right := int16(binary.LittleEndian.Uint16(raw[off+2 : off+4]))
		samples = append(samples, audio.Sample{Left: left, Right: right})
	}
	return samples
}
