package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Render   RenderConfig   `mapstructure:"render"   validate:"required"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Playback PlaybackConfig `mapstructure:"playback"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// AuthConfig contains API authentication settings. Auth is enabled when a
// secret is configured.
type AuthConfig struct {
	// JWTSecret signs operator tokens. Empty disables authentication.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`

	// TokenTTLMinutes bounds minted token lifetimes.
	TokenTTLMinutes int `mapstructure:"token_ttl_minutes" validate:"gte=0"`
}

// Enabled reports whether API authentication is on.
func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// DatabaseConfig contains the optional task audit database settings. An
// empty URL disables auditing.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// RenderConfig contains the generation endpoint settings.
type RenderConfig struct {
	// BaseURL is the root of the Stable Diffusion WebUI compatible API.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// GenerateTimeoutSeconds bounds a full generation call.
	GenerateTimeoutSeconds int `mapstructure:"generate_timeout_seconds" validate:"gt=0"`

	// PreviewTimeoutSeconds bounds a single live-preview fetch.
	PreviewTimeoutSeconds int `mapstructure:"preview_timeout_seconds" validate:"gt=0"`
}

// TrackerConfig contains the task tracker cadence settings.
type TrackerConfig struct {
	QueueSize          int `mapstructure:"queue_size"           validate:"gt=0"`
	PollIntervalMillis int `mapstructure:"poll_interval_millis" validate:"gt=0"`

	// ResultTTLMinutes is the safety-net eviction age for unpurged
	// results. Zero disables eviction.
	ResultTTLMinutes int `mapstructure:"result_ttl_minutes" validate:"gte=0"`
}

// PlaybackConfig contains playback session settings.
type PlaybackConfig struct {
	DefaultVolume float64 `mapstructure:"default_volume" validate:"gte=0,lte=2"`
	FFmpegBinary  string  `mapstructure:"ffmpeg_binary"`

	// OutputDir receives one raw PCM stream file per session, for a
	// downstream consumer to pick up. Empty discards decoded audio while
	// still pacing playback in real time.
	OutputDir string `mapstructure:"output_dir"`
}

// LLMConfig contains the optional announcement composer settings. An empty
// API key selects the static composer.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
}
