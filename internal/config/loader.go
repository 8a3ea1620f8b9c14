package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// validLogLevels lists the accepted server.log_level values.
var validLogLevels = map[string]struct{}{
	"":      {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// validDispatchKinds lists the accepted dispatch.kind values.
var validDispatchKinds = map[string]struct{}{
	"":        {},
	"console": {},
	"discord": {},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
// Gating defaults ([DefaultGatingConfig]) are filled in before decoding, so a
// gating field the YAML omits keeps its default, while one set explicitly
// (even to zero or false) keeps the decoded value.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{Gating: DefaultGatingConfig()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if _, ok := validLogLevels[cfg.Server.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Gating.MaxClients < 0 {
		errs = append(errs, fmt.Errorf("gating.maxclients must be ≥ 0, got %d", cfg.Gating.MaxClients))
	}

	if cfg.Chat.AssetPath == "" {
		errs = append(errs, errors.New("chat.asset_path is required"))
	}
	for ctx, d := range cfg.Chat.ContextCooldowns {
		if d < 0 {
			errs = append(errs, fmt.Errorf("chat.context_cooldowns[%d] must be ≥ 0, got %s", ctx, d))
		}
	}

	if _, ok := validDispatchKinds[cfg.Dispatch.Kind]; !ok {
		errs = append(errs, fmt.Errorf("dispatch.kind %q is invalid; valid values: console, discord", cfg.Dispatch.Kind))
	}
	if cfg.Dispatch.Kind == "discord" && cfg.Dispatch.DiscordToken == "" {
		errs = append(errs, errors.New("dispatch.discord_token is required when dispatch.kind is \"discord\""))
	}

	if cfg.ChatLog.PostgresDSN == "" {
		slog.Debug("chat_log.postgres_dsn is empty; dispatched messages will not be audited")
	}

	return errors.Join(errs...)
}
