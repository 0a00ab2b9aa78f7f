// Package sink exposes the mixer's live output as a raw WAV stream over
// TCP, so any media player that can open a network stream can listen in
// without going through Discord or IRC.
package sink

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/constants"
)

// Addr is the fixed listen address for the stream sink.
const Addr = "127.0.0.1:7878"

// streamingDataSize is written in the header's data-chunk-size field for
// a stream whose final length isn't known up front. A player reading a
// finite file would reject a size this large, but one consuming a live
// socket stream just keeps reading until the connection closes.
const streamingDataSize = 0xFFFFFFFF

// Run listens on Addr and, for every connection accepted, streams the
// mixer's output as raw PCM following a single WAV header until ctx is
// cancelled or the client disconnects.
func Run(ctx context.Context, mixer *audio.Mixer, log *zap.Logger) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", Addr, err)
	}
	log.Info("wav sink listening", zap.String("addr", Addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warn("failed to accept wav sink connection", zap.Error(err))
				continue
			}
		}
		connID := uuid.NewString()
		log.Info("accepted wav sink connection",
			zap.String("conn_id", connID),
			zap.String("remote", conn.RemoteAddr().String()))
		go serve(ctx, conn, mixer, log.With(zap.String("conn_id", connID)))
	}
}

func serve(ctx context.Context, conn net.Conn, mixer *audio.Mixer, log *zap.Logger) {
	defer conn.Close()
	defer log.Info("wav sink connection closed")

	if _, err := conn.Write(streamingHeader()); err != nil {
		log.Warn("failed to write wav header", zap.Error(err))
		return
	}

	chunks := mixer.Listen()
	defer mixer.StopListening(chunks)

	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-chunks:
			if !ok {
				return
			}
			if _, err := conn.Write(encodePCM(samples)); err != nil {
				return
			}
		}
	}
}

// streamingHeader builds a RIFF/WAVE header describing an unbounded PCM
// stream: the RIFF and data chunk sizes are set to the maximum uint32
// rather than a real byte count, since that count isn't known until the
// stream ends.
func streamingHeader() []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(streamingDataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(constants.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(constants.SampleRate))
	byteRate := constants.SampleRate * constants.Channels * (constants.BitDepth / 8)
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	blockAlign := constants.Channels * (constants.BitDepth / 8)
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(constants.BitDepth))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(streamingDataSize))

	return buf.Bytes()
}

// encodePCM interleaves samples into little-endian 16-bit stereo PCM.
func encodePCM(samples []audio.Sample) []byte {
	out := make([]byte, 0, len(samples)*4)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s.Left))
		out = binary.LittleEndian.AppendUint16(out, uint16(s.Right))
	}
	return out
}
