// Package config loads and validates the service configuration from a
// YAML file and ISS_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ConfigurationError reports a rejected configuration. The service must
// not start with one.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ObserverConfig is the fixed ground location passes are predicted for.
type ObserverConfig struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	AltitudeM float64 `validate:"gte=-500,lte=9000"`
}

// PassConfig tunes the pass predictor.
type PassConfig struct {
	MinElevationDeg float64        `validate:"gt=0,lt=90"`
	HorizonHours    int            `validate:"gt=0,lte=240"`
	MaxPasses       int            `validate:"gte=0,lte=100"`
	CoarseStepSec   int            `validate:"gt=0,lte=300"`
	Timezone        string         `validate:"required"`
	DisplayLocation *time.Location
}

// TLEConfig controls element-set ingestion.
type TLEConfig struct {
	URL      string `validate:"required,url"`
	TTLHours int    `validate:"gt=0,lte=168"`
	CacheDir string `validate:"required"`
}

// CrewConfig controls the people-in-space feed and its enrichment.
type CrewConfig struct {
	URL          string `validate:"required,url"`
	TTLMinutes   int    `validate:"gt=0"`
	GraceMinutes int    `validate:"gte=0"`
	WikiLang     string `validate:"required,len=2"`
}

// PositionConfig points at the live subpoint feed.
type PositionConfig struct {
	URL string `validate:"required,url"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr               string `validate:"required"`
	UpstreamTimeoutSec int    `validate:"gt=0,lte=120"`
}

// AuthConfig enables the optional bearer-token check.
type AuthConfig struct {
	Enabled bool
	Token   string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

// Config is the full service configuration.
type Config struct {
	Observer ObserverConfig
	Passes   PassConfig
	TLE      TLEConfig
	Crew     CrewConfig
	Position PositionConfig
	Server   ServerConfig
	Auth     AuthConfig
	Log      LogConfig
}

// Load reads configuration from an optional YAML file (path from
// ISS_CONFIG_PATH, else config.yaml in /etc/iss-position-checker or the
// working directory), then applies ISS_-prefixed environment overrides,
// then validates. A missing file is fine; a broken one is not.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("observer.latitude", 52.158026399080114)
	v.SetDefault("observer.longitude", 21.55857732726421)
	v.SetDefault("observer.altitude_m", 0.0)

	v.SetDefault("passes.min_elevation_deg", 10.0)
	v.SetDefault("passes.horizon_hours", 48)
	v.SetDefault("passes.max", 10)
	v.SetDefault("passes.coarse_step_seconds", 30)
	v.SetDefault("passes.timezone", "Europe/Warsaw")

	v.SetDefault("tle.url", "https://api.wheretheiss.at/v1/satellites/25544/tles")
	v.SetDefault("tle.ttl_hours", 6)
	v.SetDefault("tle.cache_dir", "tle_cache")

	v.SetDefault("crew.url", "https://corquaid.github.io/international-space-station-APIs/JSON/people-in-space.json")
	v.SetDefault("crew.ttl_minutes", 60)
	v.SetDefault("crew.grace_minutes", 30)
	v.SetDefault("crew.wiki_lang", "pl")

	v.SetDefault("position.url", "http://api.open-notify.org/iss-now.json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.upstream_timeout_seconds", 12)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/iss-position-checker")
	v.AddConfigPath(".")
	if path := os.Getenv("ISS_CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigurationError{Err: fmt.Errorf("reading config file: %w", err)}
		}
	}

	v.SetEnvPrefix("ISS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Observer: ObserverConfig{
			Latitude:  v.GetFloat64("observer.latitude"),
			Longitude: v.GetFloat64("observer.longitude"),
			AltitudeM: v.GetFloat64("observer.altitude_m"),
		},
		Passes: PassConfig{
			MinElevationDeg: v.GetFloat64("passes.min_elevation_deg"),
			HorizonHours:    v.GetInt("passes.horizon_hours"),
			MaxPasses:       v.GetInt("passes.max"),
			CoarseStepSec:   v.GetInt("passes.coarse_step_seconds"),
			Timezone:        v.GetString("passes.timezone"),
		},
		TLE: TLEConfig{
			URL:      v.GetString("tle.url"),
			TTLHours: v.GetInt("tle.ttl_hours"),
			CacheDir: v.GetString("tle.cache_dir"),
		},
		Crew: CrewConfig{
			URL:          v.GetString("crew.url"),
			TTLMinutes:   v.GetInt("crew.ttl_minutes"),
			GraceMinutes: v.GetInt("crew.grace_minutes"),
			WikiLang:     v.GetString("crew.wiki_lang"),
		},
		Position: PositionConfig{
			URL: v.GetString("position.url"),
		},
		Server: ServerConfig{
			Addr:               v.GetString("server.addr"),
			UpstreamTimeoutSec: v.GetInt("server.upstream_timeout_seconds"),
		},
		Auth: AuthConfig{
			Enabled: v.GetBool("auth.enabled"),
			Token:   v.GetString("auth.token"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigurationError{Err: describeViolations(err)}
	}

	loc, err := time.LoadLocation(cfg.Passes.Timezone)
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("passes.timezone: %w", err)}
	}
	cfg.Passes.DisplayLocation = loc

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return nil, &ConfigurationError{Err: fmt.Errorf("auth.enabled requires auth.token")}
	}

	return cfg, nil
}

var validate = validator.New()

// describeViolations flattens validator output into one readable error.
func describeViolations(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

// Derived accessors keep duration math out of the call sites.

func (c *Config) TLETTL() time.Duration { return time.Duration(c.TLE.TTLHours) * time.Hour }

func (c *Config) CrewTTL() time.Duration { return time.Duration(c.Crew.TTLMinutes) * time.Minute }

func (c *Config) CrewGrace() time.Duration { return time.Duration(c.Crew.GraceMinutes) * time.Minute }

func (c *Config) PassHorizon() time.Duration { return time.Duration(c.Passes.HorizonHours) * time.Hour }

func (c *Config) CoarseStep() time.Duration { return time.Duration(c.Passes.CoarseStepSec) * time.Second }

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Server.UpstreamTimeoutSec) * time.Second
}
