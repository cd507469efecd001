package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/MC-Whitelist-bot/internal/domain"
)

type AppConfig struct {
	ChatBaseURL string
	ChatWSURL   string

	BotPrefix string

	GuildID       uint64
	LinkChannelID uint64

	RedisURL    string
	DatabaseURL string

	MojangBaseURL string

	WhitelistServers []domain.ServerTarget

	RetryAttempts int
	RetryDelay    time.Duration
	RconTimeout   time.Duration

	CommandGuardTTL time.Duration

	MessageOverrideDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		BotPrefix:       "!",
		RetryAttempts:   10,
		RetryDelay:      2 * time.Second,
		RconTimeout:     5 * time.Second,
		CommandGuardTTL: 2 * time.Minute,
	}

	cfg.ChatBaseURL = strings.TrimSpace(os.Getenv("CHAT_BASE_URL"))
	cfg.ChatWSURL = strings.TrimSpace(os.Getenv("CHAT_WS_URL"))
	if v := strings.TrimSpace(os.Getenv("BOT_PREFIX")); v != "" {
		cfg.BotPrefix = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MojangBaseURL = strings.TrimSpace(os.Getenv("MOJANG_BASE_URL"))
	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("MESSAGE_OVERRIDE_DIR"))

	if v := strings.TrimSpace(os.Getenv("GUILD_ID")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("GUILD_ID: %w", err)
		}
		cfg.GuildID = id
	}
	if v := strings.TrimSpace(os.Getenv("LINK_CHANNEL_ID")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("LINK_CHANNEL_ID: %w", err)
		}
		cfg.LinkChannelID = id
	}

	servers, err := ParseServerList(os.Getenv("WHITELIST_SERVERS"))
	if err != nil {
		return nil, err
	}
	cfg.WhitelistServers = servers

	if v := strings.TrimSpace(os.Getenv("WHITELIST_RETRY_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetryAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("WHITELIST_RETRY_DELAY")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.RetryDelay = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("RCON_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RconTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("COMMAND_GUARD_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CommandGuardTTL = d
		}
	}

	if cfg.ChatBaseURL == "" {
		return nil, errors.New("CHAT_BASE_URL is required")
	}
	if cfg.ChatWSURL == "" {
		return nil, errors.New("CHAT_WS_URL is required")
	}
	if cfg.LinkChannelID == 0 {
		return nil, errors.New("LINK_CHANNEL_ID is required")
	}
	if len(cfg.WhitelistServers) == 0 {
		return nil, errors.New("WHITELIST_SERVERS is required")
	}

	return cfg, nil
}

// ParseServerList reads the fleet from a comma-separated list of
// host:port:secret entries. Order matters: the fan-out walks servers in
// this order and fails fast on the first unreachable one.
func ParseServerList(raw string) ([]domain.ServerTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var targets []domain.ServerTarget
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[2]) == "" {
			return nil, fmt.Errorf("WHITELIST_SERVERS entry %q: want host:port:secret", entry)
		}
		if _, err := strconv.ParseUint(parts[1], 10, 16); err != nil {
			return nil, fmt.Errorf("WHITELIST_SERVERS entry %q: bad port: %w", entry, err)
		}
		targets = append(targets, domain.ServerTarget{
			Addr:     parts[0] + ":" + parts[1],
			Password: parts[2],
		})
	}
	return targets, nil
}
