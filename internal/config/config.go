package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "A11Y"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Security  SecurityConfig  `mapstructure:"security"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Debug     bool            `mapstructure:"debug"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	Version         string        `mapstructure:"version"`
}

// DatabaseConfig selects the storage backend. Type is "memory" or "mongo".
type DatabaseConfig struct {
	Type           string        `mapstructure:"type"`
	URI            string        `mapstructure:"uri"`
	Name           string        `mapstructure:"name"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	Issuer          string        `mapstructure:"issuer"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type SecurityConfig struct {
	BcryptCost           int           `mapstructure:"bcrypt_cost"`
	MaxLoginAttempts     int           `mapstructure:"max_login_attempts"`
	LockoutDuration      time.Duration `mapstructure:"lockout_duration"`
	VerificationTokenTTL time.Duration `mapstructure:"verification_token_ttl"`
	ResetTokenTTL        time.Duration `mapstructure:"reset_token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateRule is a request budget per window for one named endpoint group.
type RateRule struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Accessibility users get MaxRequests*RequestBonus per Window*WindowBonus.
	RequestBonus  float64             `mapstructure:"request_bonus"`
	WindowBonus   float64             `mapstructure:"window_bonus"`
	SweepInterval time.Duration       `mapstructure:"sweep_interval"`
	Rules         map[string]RateRule `mapstructure:"rules"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Rule names used by the router.
const (
	RuleLogin               = "login"
	RuleRegister            = "register"
	RulePasswordReset       = "password_reset"
	RuleAPIGeneral          = "api_general"
	RuleAccessibilityUpdate = "accessibility_update"
)

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	// Assistive clients are slow readers; keep the write side generous.
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.version", "1.0.0")

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.name", "accessible_app")
	v.SetDefault("database.connect_timeout", 10*time.Second)

	v.SetDefault("jwt.issuer", "accessible-backend")
	v.SetDefault("jwt.access_token_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lockout_duration", 15*time.Minute)
	v.SetDefault("security.verification_token_ttl", 24*time.Hour)
	v.SetDefault("security.reset_token_ttl", time.Hour)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Requested-With"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.request_bonus", 1.5)
	v.SetDefault("rate_limit.window_bonus", 1.2)
	v.SetDefault("rate_limit.sweep_interval", time.Minute)
	v.SetDefault("rate_limit.rules", map[string]any{
		RuleLogin:               map[string]any{"max_requests": 10, "window": "1m"},
		RuleRegister:            map[string]any{"max_requests": 5, "window": "1m"},
		RulePasswordReset:       map[string]any{"max_requests": 3, "window": "60m"},
		RuleAPIGeneral:          map[string]any{"max_requests": 1000, "window": "60m"},
		RuleAccessibilityUpdate: map[string]any{"max_requests": 50, "window": "1m"},
	})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("debug", false)
}

// Load reads configuration from defaults, an optional YAML file at
// configPath, a .env file in the working directory, and A11Y_* environment
// variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{"jwt.secret", "database.uri"} {
		_ = v.BindEnv(key)
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if origins := os.Getenv(envPrefix + "_CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORS.AllowedOrigins = strings.Split(origins, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg = c
	return c, nil
}

// Validate checks settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Database.Type {
	case "memory":
	case "mongo":
		if c.Database.URI == "" {
			errs = append(errs, errors.New("database.uri is required when database.type is mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database.type %q", c.Database.Type))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	} else if len(c.JWT.Secret) < 32 && !c.Debug {
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes"))
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("jwt token ttls must be positive"))
	}

	if c.Security.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("security.max_login_attempts must be positive"))
	}
	if c.Security.VerificationTokenTTL <= 0 || c.Security.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("security token ttls must be positive"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestBonus < 1 || c.RateLimit.WindowBonus < 1 {
			errs = append(errs, errors.New("rate_limit bonuses must be >= 1"))
		}
		for name, rule := range c.RateLimit.Rules {
			if rule.MaxRequests <= 0 || rule.Window <= 0 {
				errs = append(errs, fmt.Errorf("rate_limit.rules.%s must have positive max_requests and window", name))
			}
		}
	}

	return errors.Join(errs...)
}

func Get() *Config {
	return cfg
}
