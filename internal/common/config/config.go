package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Session  SessionConfig  `mapstructure:"session"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig holds backend connection settings. The analyze call is
// long-running server-side and carries its own timeout, distinct from the
// short metadata calls.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	AnalyzeTimeout int    `mapstructure:"analyze_timeout"` // milliseconds
}

type UploadConfig struct {
	MaxFileSize       int64    `mapstructure:"max_file_size"` // bytes
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// FallbackPolicy selects what happens when the analyze call fails or
// returns no matches. The source product always showed something; here the
// behavior is an explicit, toggleable choice.
type FallbackPolicy string

const (
	// FallbackNone surfaces the empty result as an error.
	FallbackNone FallbackPolicy = "none"
	// FallbackExisting re-fetches stored candidates and synthesizes
	// placeholder results from them.
	FallbackExisting FallbackPolicy = "existing"
	// FallbackSynthesized derives placeholder results directly from the
	// uploaded file list.
	FallbackSynthesized FallbackPolicy = "synthesized"
)

type AnalysisConfig struct {
	ParallelUploads int            `mapstructure:"parallel_uploads"`
	FallbackPolicy  FallbackPolicy `mapstructure:"fallback_policy"`
	DoneDelay       int            `mapstructure:"done_delay"` // milliseconds
}

// SessionConfig controls snapshot persistence of the durable store slices.
// Transient upload/analysis state is never persisted.
type SessionConfig struct {
	Persist   bool        `mapstructure:"persist"`
	KeyPrefix string      `mapstructure:"key_prefix"`
	TTL       int         `mapstructure:"ttl"` // seconds, 0 = no expiry
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
