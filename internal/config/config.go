// Package config loads service settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTP        HTTP     `yaml:"http"`
	DatabaseURL string   `yaml:"database_url"`
	RedisURL    string   `yaml:"redis_url"`
	Log         Log      `yaml:"log"`
	Engine      Engine   `yaml:"engine"`
	Routing     Routing  `yaml:"routing"`
	Webhooks    Webhooks `yaml:"webhooks"`
}

type HTTP struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	RateRPS           float64       `yaml:"rate_rps"`
	RateBurst         int           `yaml:"rate_burst"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Engine struct {
	SpeedKmh             float64 `yaml:"speed_kmh"`
	DefaultDwellMinutes  int     `yaml:"default_dwell_minutes"`
	MaxIterations        int     `yaml:"max_iterations"`
	MaxIterationsCeiling int     `yaml:"max_iterations_ceiling"`
	MaxCouriers          int     `yaml:"max_couriers"`
	Temperature          float64 `yaml:"temperature"`
	CoolingRate          float64 `yaml:"cooling_rate"`
	Textbook             bool    `yaml:"textbook"`
}

// Routing configures the external road routing service. An empty APIKey
// disables it.
type Routing struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Profile     string        `yaml:"profile"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RPS         float64       `yaml:"rps"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type Webhooks struct {
	Secret      string        `yaml:"secret"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			RateRPS:           20,
			RateBurst:         40,
		},
		Log: Log{Level: "info", Format: "json"},
		Engine: Engine{
			SpeedKmh:             40,
			DefaultDwellMinutes:  5,
			MaxIterations:        1000,
			MaxIterationsCeiling: 100000,
			MaxCouriers:          100,
			Temperature:          100,
			CoolingRate:          0.995,
		},
		Routing: Routing{
			BaseURL:     "https://api.openrouteservice.org",
			Profile:     "driving-car",
			Timeout:     10 * time.Second,
			MaxAttempts: 4,
			RPS:         5,
			CacheTTL:    24 * time.Hour,
		},
		Webhooks: Webhooks{MaxAttempts: 5, Timeout: 5 * time.Second},
	}
}

// Load reads path (optional) over Default, then applies .env and
// environment overrides, then validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w: %v", path, ErrInvalidConfig, err)
		}
	}
	// a missing .env is fine
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, set func(string) error) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			if err := set(strings.TrimSpace(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	float := func(dst *float64) func(string) error {
		return func(s string) error {
			f, err := strconv.ParseFloat(s, 64)
			if err == nil {
				*dst = f
			}
			return err
		}
	}
	integer := func(dst *int) func(string) error {
		return func(s string) error {
			n, err := strconv.Atoi(s)
			if err == nil {
				*dst = n
			}
			return err
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("ORS_API_KEY", &c.Routing.APIKey)
	str("ORS_BASE_URL", &c.Routing.BaseURL)
	str("WEBHOOK_SECRET", &c.Webhooks.Secret)
	num("RATE_RPS", float(&c.HTTP.RateRPS))
	num("RATE_BURST", integer(&c.HTTP.RateBurst))
	num("ENGINE_SPEED_KMH", float(&c.Engine.SpeedKmh))
	num("ENGINE_MAX_ITERATIONS", integer(&c.Engine.MaxIterations))
	num("ENGINE_MAX_COURIERS", integer(&c.Engine.MaxCouriers))
	num("WEBHOOK_MAX_ATTEMPTS", integer(&c.Webhooks.MaxAttempts))
	num("ENGINE_TEXTBOOK", func(s string) error {
		b, err := strconv.ParseBool(s)
		if err == nil {
			c.Engine.Textbook = b
		}
		return err
	})
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.HTTP.Addr == "":
		return bad("http.addr is empty")
	case c.HTTP.RateRPS < 0 || c.HTTP.RateBurst < 0:
		return bad("http rate limits must be >= 0")
	case c.Engine.SpeedKmh <= 0:
		return bad("engine.speed_kmh must be > 0")
	case c.Engine.DefaultDwellMinutes < 0:
		return bad("engine.default_dwell_minutes must be >= 0")
	case c.Engine.MaxIterations < 0:
		return bad("engine.max_iterations must be >= 0")
	case c.Engine.MaxIterationsCeiling < 0:
		return bad("engine.max_iterations_ceiling must be >= 0")
	case c.Engine.MaxCouriers < 1:
		return bad("engine.max_couriers must be >= 1")
	case c.Engine.Temperature <= 0:
		return bad("engine.temperature must be > 0")
	case c.Engine.CoolingRate <= 0 || c.Engine.CoolingRate >= 1:
		return bad("engine.cooling_rate must be in (0,1), got %v", c.Engine.CoolingRate)
	case c.Routing.MaxAttempts < 1:
		return bad("routing.max_attempts must be >= 1")
	case c.Webhooks.MaxAttempts < 1:
		return bad("webhooks.max_attempts must be >= 1")
	}
	return nil
}
