package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sitzbot/backend/internal/audio"
	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/chat/discord"
	"sitzbot/backend/internal/chat/irc"
	"sitzbot/backend/internal/music"
	"sitzbot/backend/internal/playback"
	"sitzbot/backend/internal/sink"
	"sitzbot/backend/internal/songleader"
	"sitzbot/backend/internal/tts"
	"sitzbot/backend/pkg/config"
	"sitzbot/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "Config.toml", "path to the TOML config file")
	flag.Parse()

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("starting sitzbot", zap.String("env", env))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bus.New(log)

	ttsSource := tts.NewSource(log)
	musicSource := music.NewSource(log)
	go ttsSource.Run(ctx, b)
	go musicSource.Run(ctx, b)

	mixer := audio.New(b, []audio.Source{ttsSource, musicSource})
	go mixer.Run(ctx)

	playbackCtrl := playback.New(b, log, playback.StateFile)
	go playbackCtrl.Run(ctx)

	leader := songleader.New(b, log, cfg, songleader.StateFile)
	go leader.Run(ctx)
	go leader.RunTempoWatchdog(ctx)

	if cfg.Irc != nil {
		ircAdapter := irc.New(b, log, cfg.Irc, cfg.IrcPassword)
		go func() {
			if err := ircAdapter.Run(ctx); err != nil {
				log.Error("irc adapter stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Discord != nil {
		discordAdapter, err := discord.New(b, log, cfg.Discord, cfg.DiscordBotToken, mixer)
		if err != nil {
			log.Fatal("failed to create discord adapter", zap.Error(err))
		}
		go func() {
			if err := discordAdapter.Run(ctx); err != nil {
				log.Error("discord adapter stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := sink.Run(ctx, mixer, log); err != nil {
			log.Error("wav sink stopped", zap.Error(err))
		}
	}()

	log.Info("sitzbot is running, press ctrl-c to exit")

	<-ctx.Done()
	log.Info("shutting down sitzbot")
}
