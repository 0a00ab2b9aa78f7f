// Package irc adapts the bus to a single IRC channel using girc,
// mirroring the command grammar shared with the Discord adapter.
package irc

import (
	"context"
	"fmt"

	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/chat"
	"sitzbot/backend/pkg/config"
)

// Adapter bridges one IRC channel: incoming PRIVMSGs become bus commands,
// and ChatEvents published to the bus become outgoing PRIVMSGs.
type Adapter struct {
	client  *girc.Client
	bus     *bus.Bus
	log     *zap.Logger
	channel string
}

// New configures (but does not connect) a girc client for cfg.
func New(b *bus.Bus, log *zap.Logger, cfg *config.IrcConfig, password string) *Adapter {
	client := girc.New(girc.Config{
		Server:     cfg.Server,
		Port:       cfg.Port,
		Nick:       cfg.Nickname,
		User:       cfg.Nickname,
		Name:       "sitzbot",
		SSL:        cfg.UseTLS,
		ServerPass: password,
	})

	a := &Adapter{client: client, bus: b, log: log, channel: cfg.Channel}

	client.Handlers.AddBg(girc.CONNECTED, func(c *girc.Client, e girc.Event) {
		c.Cmd.Join(a.channel)
	})
	client.Handlers.AddBg(girc.PRIVMSG, a.onPrivmsg)

	return a
}

// Run connects and blocks, relaying bus ChatEvents to the channel, until
// ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	connErr := make(chan error, 1)
	go func() { connErr <- a.client.Connect() }()

	go a.pumpBus(ctx)

	select {
	case <-ctx.Done():
		a.client.Close()
		return nil
	case err := <-connErr:
		if err != nil {
			return fmt.Errorf("irc connection closed: %w", err)
		}
		return nil
	}
}

func (a *Adapter) pumpBus(ctx context.Context) {
	sub := a.bus.Subscribe()
	defer a.bus.Unsubscribe(sub)

	for {
		ev, _, err := sub.Recv(ctx)
		if err != nil {
			return
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
		if act.Source == bus.PlatformIrc || act.Text == "" {
			return
		}
		a.client.Cmd.Message(a.channel, act.Text)
	case bus.ChatMirror:
		if act.Source == bus.PlatformIrc {
			return
		}
		a.client.Cmd.Message(a.channel, fmt.Sprintf("<%s> %s", act.User, act.Text))
	}
}

func (a *Adapter) onPrivmsg(c *girc.Client, e girc.Event) {
	if len(e.Params) == 0 || e.Params[0] != a.channel {
		return
	}
	if e.Source == nil || e.Source.Name == c.GetNick() {
		return
	}

	nick := e.Source.Name
	text := e.Last()

	a.bus.Publish(bus.ChatEvent{Action: bus.ChatMirror{
		User:   nick,
		Text:   text,
		Source: bus.PlatformIrc,
	}})

	reply := chat.Dispatch(context.Background(), a.bus, a.log, text, nick)
	if reply != "" {
		a.client.Cmd.Message(a.channel, string(reply))
	}
}
