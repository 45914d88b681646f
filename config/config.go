// Package config reads the service configuration from the environment, with
// an optional .env file layered underneath.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PolicyTimed    = "timed"
	PolicyGeofence = "geofence"
)

type Config struct {
	Port          string
	PublicBaseURL string

	CatalogPath string
	AudioDir    string
	ImageDir    string

	TriggerPolicy    string
	TickInterval     time.Duration
	AdDelay          time.Duration
	BroadcastTimeout time.Duration
	AdIDPrefix       string
	AdTriggerType    bool

	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	MongoURI      string
	MongoDatabase string

	RedisAddr    string
	RedisDB      int
	RedisChannel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3001")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3001")
	v.SetDefault("CATALOG_PATH", "data/catalog.json")
	v.SetDefault("AUDIO_DIR", "audio")
	v.SetDefault("IMAGE_DIR", "images")
	v.SetDefault("TRIGGER_POLICY", PolicyTimed)
	v.SetDefault("TICK_INTERVAL", "20s")
	v.SetDefault("AD_DELAY", "10s")
	v.SetDefault("BROADCAST_TIMEOUT", "2s")
	v.SetDefault("AD_ID_PREFIX", "ad-")
	v.SetDefault("AD_TRIGGER_TYPE", false)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "tour_db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", "tour:events")
}

// Load reads .env files (if any) into the process environment and builds a
// validated Config from it.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		PublicBaseURL:    strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		CatalogPath:      v.GetString("CATALOG_PATH"),
		AudioDir:         v.GetString("AUDIO_DIR"),
		ImageDir:         v.GetString("IMAGE_DIR"),
		TriggerPolicy:    strings.ToLower(v.GetString("TRIGGER_POLICY")),
		TickInterval:     v.GetDuration("TICK_INTERVAL"),
		AdDelay:          v.GetDuration("AD_DELAY"),
		BroadcastTimeout: v.GetDuration("BROADCAST_TIMEOUT"),
		AdIDPrefix:       v.GetString("AD_ID_PREFIX"),
		AdTriggerType:    v.GetBool("AD_TRIGGER_TYPE"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		MongoURI:         v.GetString("MONGODB_URI"),
		MongoDatabase:    v.GetString("MONGODB_DATABASE"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisDB:          v.GetInt("REDIS_DB"),
		RedisChannel:     v.GetString("REDIS_CHANNEL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.TriggerPolicy {
	case PolicyTimed, PolicyGeofence:
	default:
		return fmt.Errorf("invalid TRIGGER_POLICY %q: want %q or %q", c.TriggerPolicy, PolicyTimed, PolicyGeofence)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.AdDelay <= 0 {
		return fmt.Errorf("AD_DELAY must be positive, got %s", c.AdDelay)
	}
	if c.BroadcastTimeout <= 0 {
		return fmt.Errorf("BROADCAST_TIMEOUT must be positive, got %s", c.BroadcastTimeout)
	}
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is not set")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
