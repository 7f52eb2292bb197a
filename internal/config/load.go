package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// AGRO_SERVER_PORT or AGRO_LLM_MODEL_NAME.
const EnvPrefix = "AGRO"

// legacyEnv lists the unprefixed variable names also accepted for some keys.
// The prefixed name wins when both are set.
var legacyEnv = map[string]string{
	"server.port":         "PORT",
	"server.log_level":    "LOG_LEVEL",
	"database.url":        "DATABASE_URL",
	"llm.gemini_api_key":  "GEMINI_API_KEY",
	"llm.model_name":      "MODEL",
	"llm.mock_mode":       "MOCK_MODE",
	"llm.max_input_chars": "MAX_INPUT_CHARS",
	"llm.timeout_seconds": "TIMEOUT_S",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 60)

	v.SetDefault("database.url", "")
	v.SetDefault("database.history_workers", 2)
	v.SetDefault("database.history_queue_size", 100)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-1.5-pro-latest")
	v.SetDefault("llm.mock_mode", true)
	v.SetDefault("llm.max_input_chars", 12000)
	v.SetDefault("llm.timeout_seconds", 30)
	v.SetDefault("llm.prompt_path", "prompts/agriculture_system_prompt.md")
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", legacy, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Server.LogLevel))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
