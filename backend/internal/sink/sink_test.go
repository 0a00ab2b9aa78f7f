package sink

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitzbot/backend/internal/audio"
)

func TestStreamingHeaderHasRIFFWaveMagic(t *testing.T) {
	header := streamingHeader()
	require.Len(t, header, 44)
	assert.Equal(t, "RIFF", string(header[0:4]))
	assert.Equal(t, "WAVE", string(header[8:12]))
	assert.Equal(t, "fmt ", string(header[12:16]))
	assert.Equal(t, "data", string(header[36:40]))
}

func TestStreamingHeaderDescribesConfiguredFormat(t *testing.T) {
	header := streamingHeader()
	channels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitDepth := binary.LittleEndian.Uint16(header[34:36])

	assert.EqualValues(t, 2, channels)
	assert.EqualValues(t, 48000, sampleRate)
	assert.EqualValues(t, 16, bitDepth)
}

func TestStreamingHeaderUsesMaxSizeForUnboundedStream(t *testing.T) {
	header := streamingHeader()
	riffSize := binary.LittleEndian.Uint32(header[4:8])
	dataSize := binary.LittleEndian.Uint32(header[40:44])

	assert.EqualValues(t, streamingDataSize, riffSize)
	assert.EqualValues(t, streamingDataSize, dataSize)
}

func TestEncodePCMInterleavesLittleEndianStereo(t *testing.T) {
	samples := []audio.Sample{
		{Left: 1, Right: -1},
		{Left: 32767, Right: -32768},
	}

	got := encodePCM(samples)

	want := new(bytes.Buffer)
	binary.Write(want, binary.LittleEndian, int16(1))
	binary.Write(want, binary.LittleEndian, int16(-1))
	binary.Write(want, binary.LittleEndian, int16(32767))
	binary.Write(want, binary.LittleEndian, int16(-32768))

	assert.Equal(t, want.Bytes(), got)
}

func TestEncodePCMOfEmptySlice(t *testing.T) {
	assert.Empty(t, encodePCM(nil))
}
