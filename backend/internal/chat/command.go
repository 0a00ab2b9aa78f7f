// Package chat holds the command grammar shared by the IRC and Discord
// adapters, plus their platform-specific implementations in the irc and
// discord subpackages.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/constants"
	"sitzbot/backend/internal/youtube"
)

// Reply is a plain-text response the caller should send back to the
// platform the command arrived on. A command that only publishes a bus
// event (letting some other component reply asynchronously) returns "".
type Reply string

// Dispatch parses one line of chat text as a "!"-prefixed command and
// performs its effect: publishing a bus event, resolving a YouTube URL,
// or both. It mirrors the source's message_to_action, generalized to run
// from either adapter.
func Dispatch(ctx context.Context, b *bus.Bus, log *zap.Logger, text, nick string) Reply {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "!p":
		if len(rest) == 0 {
			return "usage: !p <youtube url or search terms>"
		}
		return dispatchPlay(ctx, b, log, strings.Join(rest, " "), nick)

	case "!q":
		b.Publish(bus.PlaybackEvent{Action: bus.PlaybackListQueue{}})
		return ""

	case "!rm":
		b.Publish(bus.PlaybackEvent{Action: bus.PlaybackRmByNick{Nick: nick}})
		return ""

	case "!speak":
		if len(rest) == 0 {
			return ""
		}
		b.Publish(bus.TextToSpeechEvent{Action: bus.TextToSpeechSpeak{
			Text: strings.Join(rest, " "),
			Prio: bus.PriorityLow,
		}})
		return ""

	case "!request":
		if len(rest) == 0 {
			return "usage: !request <songbook url>"
		}
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderRequestSongURL{
			URL:      strings.Join(rest, " "),
			QueuedBy: nick,
		}})
		return ""

	case "!rmrequest":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderRmByNick{Nick: nick}})
		return ""

	case "!tempo":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderTempo{Nick: nick}})
		return ""

	case "!bingo":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderBingo{Nick: nick}})
		return ""

	case "!skål", "!skal":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderSkal{}})
		return ""

	case "!ls":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderListSongs{}})
		return ""

	case "!help":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderHelp{}})
		return ""

	case "!song":
		return dispatchSongAdmin(b, rest)

	case "!music":
		return dispatchMusicAdmin(b, rest)

	default:
		return ""
	}
}

func dispatchPlay(ctx context.Context, b *bus.Bus, log *zap.Logger, urlOrSearch, nick string) Reply {
	song, err := youtube.Resolve(ctx, urlOrSearch, nick, log)
	if err != nil {
		log.Info("failed to resolve song request", zap.String("query", urlOrSearch), zap.Error(err))
		return Reply(fmt.Sprintf("Error while getting song info: %v", err))
	}

	if song.Duration > constants.MaxSongDuration {
		return Reply(fmt.Sprintf("Requested song is too long! Max duration is %d seconds.",
			int(constants.MaxSongDuration.Seconds())))
	}

	b.Publish(bus.PlaybackEvent{Action: bus.PlaybackEnqueue{Song: song}})
	return ""
}

func dispatchSongAdmin(b *bus.Bus, rest []string) Reply {
	if len(rest) == 0 {
		return ""
	}
	switch rest[0] {
	case "force-tempo-mode", "resume":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderForceTempo{}})
	case "force-bingo-mode":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderForceBingo{}})
	case "force-singing-mode":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderForceSinging{}})
	case "pause":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderPause{}})
	case "end":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderEnd{}})
	case "begin":
		b.Publish(bus.SongleaderEvent{Action: bus.SongleaderBegin{}})
	}
	return ""
}

func dispatchMusicAdmin(b *bus.Bus, rest []string) Reply {
	if len(rest) == 0 {
		return ""
	}
	switch rest[0] {
	case "next":
		b.Publish(bus.PlaybackEvent{Action: bus.PlaybackNext{}})
	case "prev":
		b.Publish(bus.PlaybackEvent{Action: bus.PlaybackPrev{}})
	case "play":
		b.Publish(bus.PlaybackEvent{Action: bus.PlaybackPlay{}})
	case "pause":
		b.Publish(bus.PlaybackEvent{Action: bus.PlaybackPause{}})
	}
	return ""
}
