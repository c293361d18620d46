package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	DefaultCanteenAPIURL   = "https://api.studentenwerk-dresden.de/openmensa/v2"
	DefaultAvailabilityURL = "https://bildungsportal.sachsen.de/opal/"
)

type Config struct {
	TelegramBotToken      string `koanf:"telegram_bot_token"`
	TelegramAPIURL        string `koanf:"telegram_api_url" validate:"required,url"`
	CanteenAPIURL         string `koanf:"canteen_api_url" validate:"required,url"`
	AvailabilityURL       string `koanf:"availability_url" validate:"required,url"`
	AvailabilityInterval  int    `koanf:"availability_interval" validate:"gt=0"`
	RequestTimeout        int    `koanf:"request_timeout" validate:"gt=0"`
	MaxConcurrentRequests int    `koanf:"max_concurrent_requests" validate:"gt=0"`
	HTTPPort              string `koanf:"http_port" validate:"required,numeric"`
	LogLevel              string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFile               string `koanf:"log_file"`
	AppEnv                AppEnv `koanf:"app_env"`
}

// AvailabilityCheckInterval is the period between two reachability checks of one subscription.
func (c *Config) AvailabilityCheckInterval() time.Duration {
	return time.Duration(c.AvailabilityInterval) * time.Second
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	defaults := map[string]any{
		"telegram_api_url":        "https://api.telegram.org",
		"canteen_api_url":         DefaultCanteenAPIURL,
		"availability_url":        DefaultAvailabilityURL,
		"availability_interval":   120,
		"request_timeout":         10,
		"max_concurrent_requests": 8,
		"http_port":               "8080",
		"log_level":               "info",
		"app_env":                 "production",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if env, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = env
	} else {
		cfg.AppEnv = AppEnvProduction
	}
	cfg.CanteenAPIURL = strings.TrimRight(cfg.CanteenAPIURL, "/")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	// Validate required fields
	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, oops.With("context", "validating config").Wrap(err)
	}

	return &cfg, nil
}
