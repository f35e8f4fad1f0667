// Package config loads runtime settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	Store    string // mongo or memory
	MongoURL string
	MongoDB  string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	EmailHost string
	EmailPort int
	EmailUser string
	EmailPass string

	CloudinaryURL string
	UploadDir     string

	CORSOrigins   []string
	AuthRateLimit int
}

const devSessionSecret = "glammate-dev-session-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE", "mongo")
	v.SetDefault("MONGO_URL", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGO_DB", "glammate")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("GOOGLE_CALLBACK_URL", "http://localhost:3000/auth/google/callback")
	v.SetDefault("EMAIL_HOST", "smtp.gmail.com")
	v.SetDefault("EMAIL_PORT", 587)
	v.SetDefault("UPLOAD_DIR", "public/uploads")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("AUTH_RATE_LIMIT", 10)
}

// Load reads .env when present and then the environment. Environment values
// win over .env values because godotenv never overrides existing variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:               v.GetString("PORT"),
		GinMode:            v.GetString("GIN_MODE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Store:              strings.ToLower(v.GetString("STORE")),
		MongoURL:           v.GetString("MONGO_URL"),
		MongoDB:            v.GetString("MONGO_DB"),
		SessionSecret:      v.GetString("SESSION_SECRET"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  v.GetString("GOOGLE_CALLBACK_URL"),
		EmailHost:          v.GetString("EMAIL_HOST"),
		EmailPort:          v.GetInt("EMAIL_PORT"),
		EmailUser:          v.GetString("EMAIL_USER"),
		EmailPass:          v.GetString("EMAIL_PASS"),
		CloudinaryURL:      v.GetString("CLOUDINARY_URL"),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		AuthRateLimit:      v.GetInt("AUTH_RATE_LIMIT"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Store != "mongo" && c.Store != "memory" {
		return errors.New("STORE must be mongo or memory")
	}
	if c.SessionSecret == "" {
		if c.IsRelease() {
			return errors.New("SESSION_SECRET must be set in release mode")
		}
		c.SessionSecret = devSessionSecret
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return errors.New("AUTH_RATE_LIMIT must be positive")
	}
	return nil
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) MailEnabled() bool {
	return c.EmailUser != "" && c.EmailPass != ""
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
