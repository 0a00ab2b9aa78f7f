// Package discord adapts the bus to a Discord text channel and, when
// configured, streams the mixer's audio into a voice channel.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/chat"
	"sitzbot/backend/pkg/config"
)

// Adapter bridges one Discord guild's text channel (commands + chat
// mirroring) and, optionally, a voice channel (mixer playback).
type Adapter struct {
	session *discordgo.Session
	bus     *bus.Bus
	log     *zap.Logger
	cfg     *config.DiscordConfig
	mixer   *audio.Mixer
}

// New creates a Discord session authenticated with token. Call Run to
// open the gateway connection and start processing.
func New(b *bus.Bus, log *zap.Logger, cfg *config.DiscordConfig, token string, mixer *audio.Mixer) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentGuildVoiceStates

	a := &Adapter{session: session, bus: b, log: log, cfg: cfg, mixer: mixer}
	session.AddHandler(a.onMessageCreate)
	return a, nil
}

// Run opens the gateway connection, joins voice if configured, and
// relays bus ChatEvents to the text channel until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	defer a.session.Close()

	if a.cfg.VoiceChannelID != "" {
		go a.runVoice(ctx)
	}

	sub := a.bus.Subscribe()
	defer a.bus.Unsubscribe(sub)

	for {
		ev, _, err := sub.Recv(ctx)
		if err != nil {
			return nil
		}
		chatEv, ok := ev.(bus.ChatEvent)
		if !ok {
			continue
		}
		a.handleChatAction(chatEv.Action)
	}
}

func (a *Adapter) handleChatAction(action bus.ChatAction) {
	switch act := action.(type) {
	case bus.ChatSend:
		if act.Source == bus.PlatformDiscord {
			return
		}
		a.send(act.Text, act.Rich)
	case bus.ChatMirror:
		if act.Source == bus.PlatformDiscord {
			return
		}
		a.send(fmt.Sprintf("**%s**: %s", act.User, act.Text), nil)
	}
}

func (a *Adapter) send(text string, rich bus.RichContent) {
	embed := buildEmbed(text, rich)
	if embed != nil {
		if _, err := a.session.ChannelMessageSendEmbed(a.cfg.ChannelID, embed); err != nil {
			a.log.Warn("failed to send discord embed", zap.Error(err))
		}
		return
	}
	if text == "" {
		return
	}
	if _, err := a.session.ChannelMessageSend(a.cfg.ChannelID, text); err != nil {
		a.log.Warn("failed to send discord message", zap.Error(err))
	}
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.ChannelID != a.cfg.ChannelID {
		return
	}

	a.bus.Publish(bus.ChatEvent{Action: bus.ChatMirror{
		User:   m.Author.Username,
		Text:   m.Content,
		Source: bus.PlatformDiscord,
	}})

	reply := chat.Dispatch(context.Background(), a.bus, a.log, m.Content, m.Author.Username)
	if reply != "" {
		a.send(string(reply), nil)
	}
}

func (a *Adapter) runVoice(ctx context.Context) {
	vc, err := a.session.ChannelVoiceJoin(a.cfg.GuildID, a.cfg.VoiceChannelID, false, true)
	if err != nil {
		a.log.Error("failed to join discord voice channel", zap.Error(err))
		return
	}
	defer vc.Disconnect()

	chunks := a.mixer.Listen()
	defer a.mixer.StopListening(chunks)

	if err := streamToVoice(ctx, vc, chunks, a.log); err != nil {
		a.log.Error("discord voice stream ended with error", zap.Error(err))
	}
}
