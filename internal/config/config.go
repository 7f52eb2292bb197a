package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// CORSAllowedOrigins lists the origins allowed to call the API.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"dive,required"`

	// RateLimitPerMinute caps POST requests per client IP. Zero disables
	// rate limiting.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// History is only recorded when URL is set.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`

	// HistoryWorkers is the number of background history writers. Zero
	// writes history on the request path.
	HistoryWorkers   int `mapstructure:"history_workers" validate:"gte=0,lte=64"`
	HistoryQueueSize int `mapstructure:"history_queue_size" validate:"gte=0"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// GeminiAPIKey may be empty; the service then answers in demo mode.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	MockMode     bool   `mapstructure:"mock_mode"`

	// MaxInputChars is the longest question accepted, in characters.
	MaxInputChars int `mapstructure:"max_input_chars" validate:"required,gt=0"`

	// TimeoutSeconds bounds each advisory request end to end.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`

	// PromptPath points at the system instruction file. A missing or empty
	// file falls back to the built-in instruction.
	PromptPath string `mapstructure:"prompt_path"`
}
