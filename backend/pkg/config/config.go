// Package config loads the bot's TOML configuration file and merges in
// secrets from the environment.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// IrcConfig configures the optional IRC adapter.
type IrcConfig struct {
	Nickname string `toml:"nickname"`
	Server   string `toml:"server"`
	Port     int    `toml:"port"`
	Channel  string `toml:"channel"`
	UseTLS   bool   `toml:"use_tls"`
}

// DiscordConfig configures the optional Discord adapter.
type DiscordConfig struct {
	GuildID        string `toml:"guild_id"`
	ChannelID      string `toml:"channel_id"`
	VoiceChannelID string `toml:"voice_channel_id"`
}

// SongbookConfig points at the external songbook site and the regex used
// to pull an id out of a pasted URL. The regex is decoded as plain text
// and compiled separately, since Go's regexp has no serde-style
// deserialize hook to do it inline the way the source's serde_regex does.
type SongbookConfig struct {
	SongbookURL string         `toml:"songbook_url"`
	SongbookReS string         `toml:"songbook_re"`
	SongbookRe  *regexp.Regexp `toml:"-"`
}

// Config is the top-level, file-loaded configuration.
type Config struct {
	Songbook SongbookConfig `toml:",inline"`
	Irc      *IrcConfig     `toml:"irc"`
	Discord  *DiscordConfig `toml:"discord"`

	// Env selects logging verbosity ("development" or "production");
	// not part of the config file, read from the ENV variable.
	Env string `toml:"-"`

	// DiscordBotToken and IrcPassword are secrets, never stored in the
	// committed TOML file; loaded from the environment (optionally via a
	// .env file) instead.
	DiscordBotToken string `toml:"-"`
	IrcPassword     string `toml:"-"`
}

// Load reads and parses the TOML config file at path, compiles the
// songbook regex, and merges in environment-sourced secrets.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	re, err := regexp.Compile(cfg.Songbook.SongbookReS)
	if err != nil {
		return nil, fmt.Errorf("compiling songbook_re: %w", err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("songbook_re must have at least 2 capture groups, got %d", re.NumSubexp())
	}
	cfg.Songbook.SongbookRe = re

	cfg.Env = getEnv("ENV", "development")
	cfg.DiscordBotToken = getEnv("DISCORD_BOT_TOKEN", "")
	cfg.IrcPassword = getEnv("IRC_PASSWORD", "")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values required for the system to start at all.
// When the optional sections are present it also requires irc.nickname
// (defaulting irc.port to 6697) and a Discord bot token.
func (c *Config) Validate() error {
	if c.Songbook.SongbookURL == "" {
		return fmt.Errorf("songbook_url is required")
	}
	if c.Irc != nil {
		if c.Irc.Nickname == "" {
			return fmt.Errorf("irc.nickname is required when [irc] is present")
		}
		if c.Irc.Port == 0 {
			c.Irc.Port = 6697
		}
	}
	if c.Discord != nil && c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required when [discord] is present")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
