package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cs2-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	RosterDriverJSON   = "json"
	RosterDriverSQLite = "sqlite"
)

type Config struct {
	DiscordToken     string
	DiscordGuildID   string
	FaceitAPIKey     string
	FaceitBaseURL    string
	FaceitTimeout    time.Duration
	ProbeTimeout     time.Duration
	RosterDriver     string
	ServersFile      string
	RosterDBPath     string
	ServerPort       string
	LogLevel         string
	FeaturedNickname string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DiscordToken:     GetEnv("DISCORD_TOKEN", ""),
		DiscordGuildID:   GetEnv("DISCORD_GUILD_ID", ""),
		FaceitAPIKey:     GetEnv("FACEIT_API_KEY", ""),
		FaceitBaseURL:    strings.TrimRight(GetEnv("FACEIT_BASE_URL", "https://open.faceit.com/data/v4"), "/"),
		RosterDriver:     strings.ToLower(GetEnv("ROSTER_DRIVER", RosterDriverJSON)),
		ServersFile:      GetEnv("SERVERS_FILE", "servers.json"),
		RosterDBPath:     GetEnv("ROSTER_DB_PATH", "roster.db"),
		ServerPort:       GetEnv("SERVER_PORT", "8080"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		FeaturedNickname: GetEnv("FEATURED_NICKNAME", ""),
	}

	var err error
	if cfg.FaceitTimeout, err = getDuration("FACEIT_TIMEOUT", constants.ExternalAPITimeout); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = getDuration("PROBE_TIMEOUT", constants.ProbeTimeout); err != nil {
		return nil, err
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.RosterDriver != RosterDriverJSON && cfg.RosterDriver != RosterDriverSQLite {
		return nil, fmt.Errorf("ROSTER_DRIVER must be %q or %q, got %q", RosterDriverJSON, RosterDriverSQLite, cfg.RosterDriver)
	}
	if cfg.FaceitAPIKey == "" {
		logger.Warn().Msg("FACEIT_API_KEY not set, stats commands will be unavailable")
	}

	logger.Info().
		Str("roster_driver", cfg.RosterDriver).
		Str("servers_file", cfg.ServersFile).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("faceit_timeout", cfg.FaceitTimeout).
		Dur("probe_timeout", cfg.ProbeTimeout).
		Msg("configuration loaded")

	return cfg, nil
}

// RequestTimeout bounds one bot command or API request. Each FACEIT call in a
// lookup gets the full FaceitTimeout, so the bound grows with it.
func (c *Config) RequestTimeout() time.Duration {
	d := constants.LookupCalls*c.FaceitTimeout + constants.RequestTimeoutMargin
	if probe := c.ProbeTimeout + constants.RequestTimeoutMargin; probe > d {
		d = probe
	}
	return d
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}
