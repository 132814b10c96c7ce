package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		Color bool   `yaml:"color"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		MaxQuestions int    `yaml:"max_questions"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
		AdminCode string `yaml:"admin_code"`
	} `yaml:"auth"`
	Mail struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"mail"`
	Generator struct {
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"generator"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Color = true
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.MaxQuestions = 20
	cfg.Auth.TokenTTL = "12h"
	cfg.Mail.Host = "smtp.gmail.com"
	cfg.Mail.Port = 465
	cfg.Generator.Model = "gemini-1.5-flash"
	cfg.Generator.Temperature = 0.6
	return cfg
}

// Load reads YAML config from path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using defaults", "path", path)
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("APP_BASE_URL", &cfg.Server.BaseURL)
	set("LOG_LEVEL", &cfg.Log.Level)
	set("REDIS_ADDR", &cfg.Redis.Addr)
	set("REDIS_PASSWORD", &cfg.Redis.Password)
	set("DATABASE_URL", &cfg.Postgres.URL)
	set("JWT_SECRET", &cfg.Auth.JWTSecret)
	set("ADMIN_CODE", &cfg.Auth.AdminCode)
	set("SENDER_EMAIL", &cfg.Mail.Username)
	set("SENDER_PASSWORD", &cfg.Mail.Password)
	set("SMTP_HOST", &cfg.Mail.Host)
	set("GOOGLE_API_KEY", &cfg.Generator.APIKey)

	if v, ok := lookup("SMTP_PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && port > 0 {
			cfg.Mail.Port = port
		}
	}
}

// MailEnabled reports whether SMTP credentials are configured.
func (c Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.Username != "" && c.Mail.Password != ""
}

// LogLevel maps the configured level name to a slog level.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
