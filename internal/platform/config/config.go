// Package config carga la configuración del servicio vía viper:
// precedencia env > archivo yaml > defaults. Prefijo de env DOGREG_,
// p.ej. DOGREG_HTTP_ADDR o DOGREG_DATABASE_DSN.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Pedigree  PedigreeConfig  `mapstructure:"pedigree"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	// DSN vacío = repos in-memory (modo dev/handoff).
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	// URL vacía = rate limiter in-memory.
	URL string `mapstructure:"url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	// JWTSigningKey vacío = modo dev (headers X-Debug-User-ID/X-Debug-Role).
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	Issuer        string `mapstructure:"issuer"`
}

type PedigreeConfig struct {
	// MaxGenerations acota el query param ?generations (el traversal
	// es O(2^G) sin memoización).
	MaxGenerations int `mapstructure:"max_generations"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// Load lee config de un yaml opcional (DOGREG_CONFIG o ./dog-registry.yaml)
// con overrides por env.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DOGREG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	path := os.Getenv("DOGREG_CONFIG")
	if path == "" {
		if _, err := os.Stat("dog-registry.yaml"); err == nil {
			path = "dog-registry.yaml"
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)

	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("auth.jwt_signing_key", "")
	v.SetDefault("auth.issuer", "dog-registry")

	v.SetDefault("pedigree.max_generations", 10)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 120)
	v.SetDefault("rate_limit.window", time.Minute)
}
