// Package config provides the configuration schema and loader for the
// botchat engine daemon.
package config

import "time"

// Config is the root configuration structure for botchatd.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Gating   GatingConfig   `yaml:"gating"`
	Chat     ChatConfig     `yaml:"chat"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	ChatLog  ChatLogConfig  `yaml:"chat_log"`
}

// ServerConfig holds network and logging settings for the botchatd process.
type ServerConfig struct {
	// ListenAddr is the TCP address the /healthz, /readyz, and /metrics
	// endpoints listen on (e.g., ":8080"). Empty disables the HTTP server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// GatingConfig is the Go-native replacement for the external LibVarValue
// store spec.md §6 names ("fastchat", "nochat", "maxclients"): instead of
// string-keyed variable lookups, these are typed fields consulted by
// [chatengine.State.EventAllowed] on every gated call.
type GatingConfig struct {
	// NoChat, when true, denies every chat event unconditionally.
	NoChat bool `yaml:"nochat"`

	// FastChat, when true, bypasses the 25-second per-client cooldown
	// interval (sets it to zero) to speed up interactive testing.
	FastChat bool `yaml:"fastchat"`

	// MaxClients bounds the accepted client index (exclusive upper bound).
	// Zero means unbounded; a negative value fails validation. Default: 4.
	MaxClients int `yaml:"maxclients"`
}

// DefaultGatingConfig returns the gating defaults matching the original
// engine's LibVar defaults ("fastchat" "0", "nochat" "0", "maxclients" "4").
func DefaultGatingConfig() GatingConfig {
	return GatingConfig{
		NoChat:     false,
		FastChat:   false,
		MaxClients: 4,
	}
}

// ChatConfig names the chat asset file to load and the per-context cooldowns
// to arm immediately after loading.
type ChatConfig struct {
	// AssetPath is the path to the chat-script asset file (the grammar in
	// spec.md §6).
	AssetPath string `yaml:"asset_path"`

	// Name is the short chat name passed to BotLoadChatFile as chatname
	// (≤63 chars; truncated on load).
	Name string `yaml:"name"`

	// ContextCooldowns maps a numeric context id to the cooldown duration
	// armed for it via SetContextCooldown after a successful load.
	ContextCooldowns map[uint32]time.Duration `yaml:"context_cooldowns"`
}

// DispatchConfig selects and configures the external client-command sink.
type DispatchConfig struct {
	// Kind selects the sink implementation: "console" (stdout, default) or
	// "discord".
	Kind string `yaml:"kind"`

	// DiscordToken is the bot token used when Kind is "discord".
	DiscordToken string `yaml:"discord_token"`

	// DiscordGuildChannel is the channel id "say" messages are posted to.
	DiscordGuildChannel string `yaml:"discord_guild_channel"`

	// DiscordTeamChannel is the channel id "say_team" messages are posted to.
	DiscordTeamChannel string `yaml:"discord_team_channel"`
}

// ChatLogConfig configures the optional Postgres audit sink.
type ChatLogConfig struct {
	// PostgresDSN is the PostgreSQL connection string. Empty disables
	// audit logging entirely.
	PostgresDSN string `yaml:"postgres_dsn"`
}
