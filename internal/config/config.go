package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	GeminiAPIKey    string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel     string        `mapstructure:"GEMINI_MODEL"`
	RxNormBaseURL   string        `mapstructure:"RXNORM_BASE_URL"`
	OpenFDABaseURL  string        `mapstructure:"OPENFDA_BASE_URL"`
	RegistryTimeout time.Duration `mapstructure:"REGISTRY_TIMEOUT"`
	SectionTimeout  time.Duration `mapstructure:"SECTION_TIMEOUT"`
	QueryTimeout    time.Duration `mapstructure:"QUERY_TIMEOUT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ResolutionTTL   time.Duration `mapstructure:"RESOLUTION_TTL"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("RXNORM_BASE_URL", "https://rxnav.nlm.nih.gov/REST")
	v.SetDefault("OPENFDA_BASE_URL", "https://api.fda.gov")
	v.SetDefault("REGISTRY_TIMEOUT", "10s")
	v.SetDefault("SECTION_TIMEOUT", "8s")
	v.SetDefault("QUERY_TIMEOUT", "8s")
	v.SetDefault("REQUEST_TIMEOUT", "90s")
	v.SetDefault("RESOLUTION_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("GEMINI_MODEL")
	v.BindEnv("RXNORM_BASE_URL")
	v.BindEnv("OPENFDA_BASE_URL")
	v.BindEnv("REGISTRY_TIMEOUT")
	v.BindEnv("SECTION_TIMEOUT")
	v.BindEnv("QUERY_TIMEOUT")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("RESOLUTION_TTL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuditEnabled reports whether an audit store is configured. An unconfigured
// store is a per-request skip, never a startup failure.
func (c *Config) AuditEnabled() bool {
	return c.DatabaseURL != ""
}

// CacheEnabled reports whether a resolution cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// Validate checks that the configuration is safe to run. The external
// registries have public defaults; the generative service has none, so a
// missing API key is refused at startup rather than failing on the first
// analysis request.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required: the translator, reconciler and summarizer cannot run without it")
	}
	if c.RxNormBaseURL == "" {
		return fmt.Errorf("RXNORM_BASE_URL must not be empty")
	}
	if c.OpenFDABaseURL == "" {
		return fmt.Errorf("OPENFDA_BASE_URL must not be empty")
	}
	if c.RegistryTimeout <= 0 {
		return fmt.Errorf("REGISTRY_TIMEOUT must be positive, got %s", c.RegistryTimeout)
	}
	if c.SectionTimeout <= 0 {
		return fmt.Errorf("SECTION_TIMEOUT must be positive, got %s", c.SectionTimeout)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive, got %s", c.QueryTimeout)
	}
	return nil
}
