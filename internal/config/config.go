package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      App      `yaml:"app"`
	Server   Server   `yaml:"server"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Quiz     Quiz     `yaml:"quiz"`
}

type App struct {
	Name     string `yaml:"name" env:"APP_NAME"`
	Env      string `yaml:"env" env:"APP_ENV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

type Server struct {
	Port    string `yaml:"port" env:"PORT"`
	Refresh string `yaml:"refresh" env:"LEADERBOARD_REFRESH"`
	TopN    int    `yaml:"top_n" env:"LEADERBOARD_TOP_N"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type Quiz struct {
	RoundSeconds int    `yaml:"round_seconds" env:"QUIZ_ROUND_SECONDS"`
	SaveTimeout  string `yaml:"save_timeout" env:"QUIZ_SAVE_TIMEOUT"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		App:    App{Name: "quiz-round", Env: "development", LogLevel: "info"},
		Server: Server{Port: "8080", Refresh: "5s", TopN: 20},
		Redis:  Redis{TTL: "1m", Prefix: "quiz"},
		Quiz:   Quiz{RoundSeconds: 60, SaveTimeout: "5s"},
	}
}

// Load reads YAML config from path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Quiz.RoundSeconds <= 0 {
		return cfg, fmt.Errorf("quiz.round_seconds must be positive, got %d", cfg.Quiz.RoundSeconds)
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
