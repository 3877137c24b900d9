package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the orchestrator configuration, loaded from CONFIG_PATH or
// /app/config/orchestrator.yaml with environment overrides for secrets.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Search   SearchConfig   `mapstructure:"search"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Video    VideoConfig    `mapstructure:"video"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

type ServerConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SearchConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
	TranscriptBase string        `mapstructure:"transcript_base_url"`
}

type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKeys []string      `mapstructure:"api_keys"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DispatchConfig selects the dispatch strategy and its knobs.
type DispatchConfig struct {
	Mode         string        `mapstructure:"mode"` // "inline" or "queued"
	Workers      int           `mapstructure:"workers"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type VideoConfig struct {
	TopVideos int `mapstructure:"top_videos"`
	TopShorts int `mapstructure:"top_shorts"`
}

type DebugConfig struct {
	EnableFileDumps bool   `mapstructure:"enable_file_dumps"`
	DumpDir         string `mapstructure:"dump_dir"`
}

const (
	DispatchModeInline = "inline"
	DispatchModeQueued = "queued"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 2112)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "advista")
	v.SetDefault("postgres.database", "advista")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("search.base_url", "https://serpapi.com")
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.rate_per_second", 2.0)
	v.SetDefault("search.rate_burst", 5)
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("dispatch.mode", DispatchModeInline)
	v.SetDefault("dispatch.workers", 5)
	v.SetDefault("dispatch.max_wait", 60*time.Second)
	v.SetDefault("dispatch.poll_interval", 2*time.Second)
	v.SetDefault("video.top_videos", 3)
	v.SetDefault("video.top_shorts", 5)
	v.SetDefault("debug.enable_file_dumps", false)
	v.SetDefault("debug.dump_dir", ".")
}

// Load reads the config file from CONFIG_PATH (or the default location)
// and applies environment overrides for credentials.
func Load() (*Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "/app/config/orchestrator.yaml"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		// Missing file is tolerated: defaults plus env cover local runs.
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	// Numbered keys feed the synthesis rotation pool.
	for _, name := range []string{"GROQ_API_KEY", "GROQ_API_KEY2", "GROQ_API_KEY3", "GROQ_API_KEY4", "GROQ_API_KEY5"} {
		if v := os.Getenv(name); v != "" {
			cfg.LLM.APIKeys = append(cfg.LLM.APIKeys, v)
		}
	}
	if v := os.Getenv("DISPATCH_MODE"); v != "" {
		cfg.Dispatch.Mode = v
	}
	if v := os.Getenv("ENABLE_DEBUG_FILES"); v == "true" || v == "1" {
		cfg.Debug.EnableFileDumps = true
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Dispatch.Mode != DispatchModeInline && c.Dispatch.Mode != DispatchModeQueued {
		return fmt.Errorf("dispatch.mode must be %q or %q, got %q",
			DispatchModeInline, DispatchModeQueued, c.Dispatch.Mode)
	}
	if c.Dispatch.Workers <= 0 {
		return fmt.Errorf("dispatch.workers must be positive, got %d", c.Dispatch.Workers)
	}
	if c.Dispatch.PollInterval <= 0 || c.Dispatch.MaxWait <= 0 {
		return fmt.Errorf("dispatch poll_interval and max_wait must be positive")
	}
	return nil
}
