package tts

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWAV(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	buf := make([]byte, 0, 44+len(data))
	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, make([]byte, 4)...) // size, unused by parser
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	fmtChunk := make([]byte, 16)
	buf = append(buf, fmtChunk...)
	buf = append(buf, []byte("data")...)
	sizeField := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeField, uint32(len(data)))
	buf = append(buf, sizeField...)
	buf = append(buf, data...)

	// patch RIFF size field
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)-8))

	return buf
}

func TestParseWAVExtractsDataChunk(t *testing.T) {
	wav := buildWAV([]int16{1, -2, 32767, -32768})

	samples, err := parseWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -2, 32767, -32768}, samples)
}

func TestParseWAVRejectsNonRIFF(t *testing.T) {
	_, err := parseWAV([]byte("not a wav file at all"))
	assert.Error(t, err)
}

func TestResampleUpsamplesMonoToStereo(t *testing.T) {
	input := []int16{0, 100, 200, 300}
	out := Resample(input, 22050, 48000)

	assert.NotEmpty(t, out)
	for _, s := range out {
		assert.Equal(t, s.Left, s.Right, "mono source should produce identical stereo channels")
	}
}

func TestResampleEmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, Resample(nil, 22050, 48000))
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	input := []int16{5, 10, 15}
	out := Resample(input, 48000, 48000)
	require.Len(t, out, 3)
	assert.Equal(t, int16(5), out[0].Left)
	assert.Equal(t, int16(15), out[2].Left)
}
