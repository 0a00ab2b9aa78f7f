package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"sitzbot/backend/internal/bus"
)

// Embed colors, one per kind of announcement the party makes.
const (
	colorSuccess = 0x2ecc71
	colorError   = 0xe74c3c
	colorInfo    = 0x3498db
	colorWarning = 0xf39c12
	colorParty   = 0x9b59b6
)

// buildEmbed renders rich into a Discord embed, or nil if text should be
// sent as a plain message instead (no rich content, or a variant this
// adapter doesn't render specially).
func buildEmbed(text string, rich bus.RichContent) *discordgo.MessageEmbed {
	switch r := rich.(type) {
	case bus.RichQueueStatus:
		return queueStatusEmbed(r)
	case bus.RichSongEnqueued:
		return songEnqueuedEmbed(r)
	case bus.RichBingoAnnouncement:
		return bingoAnnouncementEmbed(r, text)
	case bus.RichSongRequestList:
		return songRequestListEmbed(r)
	case bus.RichHelp:
		return helpEmbed(r)
	case bus.RichError:
		return errorEmbed(r.Message)
	case bus.RichCountdown:
		return countdownEmbed(r)
	case bus.RichSongRemoved:
		return songRemovedEmbed(r)
	case bus.RichSongRequestAdded:
		return songRequestAddedEmbed(r)
	default:
		return nil
	}
}

func queueStatusEmbed(r bus.RichQueueStatus) *discordgo.MessageEmbed {
	desc := "Nothing queued."
	if r.NowPlaying != nil {
		desc = fmt.Sprintf("**Now playing:** %s", r.NowPlaying.Title)
	}
	if r.NextUp != nil {
		desc += fmt.Sprintf("\n**Next up:** %s", r.NextUp.Title)
	}
	status := "paused"
	if r.IsPlaying {
		status = "playing"
	}
	return &discordgo.MessageEmbed{
		Title:       "🎵 Queue",
		Description: desc,
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Queued", Value: fmt.Sprintf("%d song(s), ~%d min", r.QueueLength, r.QueueDurationMins), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func songEnqueuedEmbed(r bus.RichSongEnqueued) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Added to queue",
		Description: fmt.Sprintf("**[%s](%s)**", r.Song.Title, r.Song.URL),
		Color:       colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Requested by", Value: r.Song.QueuedBy, Inline: true},
			{Name: "Starts in", Value: fmt.Sprintf("~%d min", r.TimeUntilPlaybackMins), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func bingoAnnouncementEmbed(r bus.RichBingoAnnouncement, fallback string) *discordgo.MessageEmbed {
	desc := r.Song.String()
	if r.Song.URL != "" {
		desc = fmt.Sprintf("[%s](%s)", r.Song.String(), r.Song.URL)
	}
	return &discordgo.MessageEmbed{
		Title:       "🔔 Next song",
		Description: desc + "\n\nType `!bingo` when you've found it!",
		Color:       colorParty,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func songRequestListEmbed(r bus.RichSongRequestList) *discordgo.MessageEmbed {
	if len(r.Songs) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "📋 Song requests",
			Description: "No requested songs found :(",
			Color:       colorWarning,
		}
	}
	var b strings.Builder
	for i, song := range r.Songs {
		fmt.Fprintf(&b, "**%d.** %s\n", i+1, song.String())
	}
	return &discordgo.MessageEmbed{
		Title:       "📋 Song requests",
		Description: b.String(),
		Color:       colorInfo,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func helpEmbed(r bus.RichHelp) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Useful commands",
		Description: strings.Join([]string{
			"`!p <youtube url>` — add music to the queue",
			"`!rm` — remove your most recently queued song",
			fmt.Sprintf("`!request <songbook url>` — request a song you want to sing (%s)", r.SongbookURL),
			"`!ls` — list current requests",
			"`!speak <text>` — make the bot say something",
			"`!tempo` — the most important one",
		}, "\n"),
		Color:     colorInfo,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: message,
		Color:       colorError,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func countdownEmbed(r bus.RichCountdown) *discordgo.MessageEmbed {
	labels := map[bus.CountdownValue]string{
		bus.CountdownThree: "3",
		bus.CountdownTwo:   "2",
		bus.CountdownOne:   "1",
		bus.CountdownNow:   "NOW!",
	}
	return &discordgo.MessageEmbed{
		Title: labels[r.Value],
		Color: colorParty,
	}
}

func songRemovedEmbed(r bus.RichSongRemoved) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🗑️ Removed",
		Description: r.Title,
		Color:       colorWarning,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func songRequestAddedEmbed(r bus.RichSongRequestAdded) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Song request added",
		Description: r.Song.String(),
		Color:       colorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}
