package discord

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/constants"
)

// FfmpegExecutable is the ffmpeg binary used to encode the mixer's raw
// PCM stream into Ogg/Opus for discordgo's VoiceConnection.OpusSend.
var FfmpegExecutable = "ffmpeg"

// streamToVoice pipes chunk into ffmpeg as raw s16le PCM and forwards
// the resulting Ogg/Opus packets to vc until ctx is cancelled or chunks
// is closed.
func streamToVoice(ctx context.Context, vc *discordgo.VoiceConnection, chunks <-chan []audio.Sample, log *zap.Logger) error {
	cmd := exec.CommandContext(ctx, FfmpegExecutable,
		"-hide_banner",
		"-loglevel", "warning",
		"-f", "s16le",
		"-ar", fmt.Sprint(constants.SampleRate),
		"-ac", fmt.Sprint(constants.Channels),
		"-i", "pipe:0",
		"-c:a", "libopus",
		"-b:a", "128k",
		"-application", "audio",
		"-frame_duration", "20",
		"-f", "ogg",
		"pipe:1")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	go feedPCM(chunks, stdin, log)

	if err := vc.Speaking(true); err != nil {
		log.Warn("failed to signal speaking", zap.Error(err))
	}
	defer vc.Speaking(false)

	return sendOggOpusPackets(ctx, stdout, vc, log)
}

func feedPCM(chunks <-chan []audio.Sample, stdin io.WriteCloser, log *zap.Logger) {
	defer stdin.Close()
	buf := make([]byte, 0, 4*1024)
	for chunk := range chunks {
		buf = buf[:0]
		for _, s := range chunk {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(s.Left))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(s.Right))
		}
		if _, err := stdin.Write(buf); err != nil {
			log.Debug("voice pcm feed stopped", zap.Error(err))
			return
		}
	}
}

// sendOggOpusPackets walks the Ogg container page by page, extracting
// each packet's payload and forwarding it to vc.OpusSend. Matches the
// source's manual Ogg page parser: a 27-byte header, a segment table,
// then segment data, with a packet ending on a segment shorter than 255
// bytes.
func sendOggOpusPackets(ctx context.Context, r io.Reader, vc *discordgo.VoiceConnection, log *zap.Logger) error {
	header := make([]byte, 27)
	packet := make([]byte, 0, 4000)

	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("reading ogg page header: %w", err)
		}
		if string(header[0:4]) != "OggS" {
			return fmt.Errorf("invalid ogg page header")
		}

		segCount := int(header[26])
		if segCount == 0 {
			continue
		}

		segTable := make([]byte, segCount)
		if _, err := io.ReadFull(r, segTable); err != nil {
			return fmt.Errorf("reading ogg segment table: %w", err)
		}

		for _, segLen := range segTable {
			if segLen > 0 {
				seg := make([]byte, segLen)
				if _, err := io.ReadFull(r, seg); err != nil {
					return fmt.Errorf("reading ogg segment: %w", err)
				}
				packet = append(packet, seg...)
			}
			if segLen < 255 && len(packet) > 0 {
				out := make([]byte, len(packet))
				copy(out, packet)
				select {
				case vc.OpusSend <- out:
				case <-ctx.Done():
					return nil
				}
				packet = packet[:0]
			}
		}
	}
}
