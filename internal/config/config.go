package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Quiz     Quiz     `yaml:"quiz"`
	Lobby    Lobby    `yaml:"lobby"`
	Auth     Auth     `yaml:"auth"`
	Client   Client   `yaml:"client"`
}

type Server struct {
	Port           string   `yaml:"port" env:"QUIZROOM_PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"QUIZROOM_ALLOWED_ORIGINS"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"QUIZROOM_REDIS_ADDR"`
	Password string `yaml:"password" env:"QUIZROOM_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

type Postgres struct {
	URL string `yaml:"url" env:"QUIZROOM_POSTGRES_URL"`
}

type Quiz struct {
	TTL              string `yaml:"ttl"`
	DefaultTimeLimit string `yaml:"default_time_limit"`
}

type Lobby struct {
	MaxParticipants int    `yaml:"max_participants"`
	TTL             string `yaml:"ttl"`
}

type Auth struct {
	TokenSecret string `yaml:"token_secret" env:"QUIZROOM_TOKEN_SECRET"`
	TokenTTL    string `yaml:"token_ttl"`
}

type Client struct {
	APIURL      string `yaml:"api_url" env:"QUIZROOM_API_URL"`
	WSURL       string `yaml:"ws_url" env:"QUIZROOM_WS_URL"`
	SessionFile string `yaml:"session_file" env:"QUIZROOM_SESSION_FILE"`
}

// DefaultTokenSecret is the placeholder shipped in the sample config.
const DefaultTokenSecret = "change-me"

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{Port: "8080"},
		Redis:  Redis{TTL: "2h"},
		Quiz:   Quiz{TTL: "10m", DefaultTimeLimit: "5m"},
		Lobby:  Lobby{MaxParticipants: 10, TTL: "2h"},
		Auth:   Auth{TokenSecret: DefaultTokenSecret, TokenTTL: "24h"},
		Client: Client{
			APIURL:      "http://localhost:8080/api",
			WSURL:       "ws://localhost:8080/ws",
			SessionFile: "quizroom-session.yaml",
		},
	}
}

// Load reads YAML config from path over the defaults, then applies
// QUIZROOM_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
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
