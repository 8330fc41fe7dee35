package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

// Config drives the sptd issuer daemon. Values come from SPTD_-prefixed
// environment variables (a .env file is honored), with "__" separating
// nested keys, e.g. SPTD_SERVER__PORT=8001.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Issuer IssuerConfig `koanf:"issuer"`
	Logger LoggerConfig `koanf:"logger"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type IssuerConfig struct {
	// Bearer credential facilitators must present. Empty disables auth.
	FacilitatorKey string `koanf:"facilitator_key"`
	// Shared secret for canonical-JSON request signatures. Empty disables
	// signature verification.
	SigningSecret string `koanf:"signing_secret"`
	// Reject unsigned lookup/consume requests. Requires a signing secret.
	RequireSigned bool `koanf:"require_signed"`
	// Mark issued tokens as live credentials.
	Livemode bool `koanf:"livemode"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// NewLogger builds the daemon's slog logger at the configured level.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

var defaults = map[string]any{
	"server.port":          "8001",
	"server.read_timeout":  "10s",
	"server.write_timeout": "10s",
	"server.idle_timeout":  "60s",
	"logger.level":         "info",
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		logger.Error("failed to load default configuration", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider("SPTD_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "SPTD_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
