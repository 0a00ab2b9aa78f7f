package tts

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strings"
)

// Executable is the espeak-ng binary name; exec looks it up on PATH each
// time Synthesize starts it.
var Executable = "espeak-ng"

func FindExecutable(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// Voice is the espeak-ng voice identifier. The source picks "Finnish"
// for its singalong bot's narration voice; kept as the default here.
const Voice = "fi"

// Synthesize runs espeak-ng over text and returns mono 16-bit PCM at
// EspeakSampleRate. Null bytes are stripped first since they would
// otherwise terminate the subprocess's argument/stdin text early.
func Synthesize(ctx context.Context, text string) ([]int16, error) {
	filtered := strings.ReplaceAll(text, "\x00", "")

	cmd := exec.CommandContext(ctx, Executable, "-v", Voice, "--stdout")
	cmd.Stdin = strings.NewReader(filtered)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("espeak-ng synth failed: %w", err)
	}

	return parseWAV(out)
}

// parseWAV extracts the 16-bit PCM samples out of a canonical RIFF/WAVE
// byte stream, skipping straight to the "data" subchunk.
func parseWAV(wav []byte) ([]int16, error) {
	if len(wav) < 44 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		dataStart := pos + 8

		if chunkID == "data" {
			end := dataStart + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return bytesToInt16(wav[dataStart:end]), nil
		}

		pos = dataStart + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	return nil, fmt.Errorf("no data chunk found in wav stream")
}

func bytesToInt16(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return out
}

// silence returns n mono samples of silence.
func silence(n int) []int16 {
	return make([]int16, n)
}
