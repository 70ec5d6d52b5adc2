// Package config loads and validates application configuration from
// defaults, an optional config file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional stagehand.yaml and from
// STAGEHAND_* environment variables; environment variables take precedence.
// Returns a populated Config or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("stagehand")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/stagehand")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine; defaults plus environment carry the day.
	}

	v.SetEnvPrefix("STAGEHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_ttl_minutes", 1440)
	v.SetDefault("render.base_url", "http://127.0.0.1:7860")
	v.SetDefault("render.generate_timeout_seconds", 300)
	v.SetDefault("render.preview_timeout_seconds", 60)
	v.SetDefault("tracker.queue_size", 256)
	v.SetDefault("tracker.poll_interval_millis", 500)
	v.SetDefault("tracker.result_ttl_minutes", 10)
	v.SetDefault("playback.default_volume", 1.0)
	v.SetDefault("playback.ffmpeg_binary", "ffmpeg")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
}
