package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Presentation state backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendValkey = "valkey"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Addr             string        `env:"RELAY_ADDR"         envDefault:":8080"`
	AllowedOrigin    string        `env:"ALLOWED_ORIGIN"     envDefault:"*"`
	ContentDir       string        `env:"CONTENT_DIR"        envDefault:"./content"`
	StateBackend     string        `env:"STATE_BACKEND"`
	StatePath        string        `env:"STATE_PATH"         envDefault:"./data/presentation-state.json"`
	SQLitePath       string        `env:"SQLITE_PATH"        envDefault:"./data/worship-sync.db"`
	ValkeyAddr       string        `env:"VALKEY_ADDR"`
	ValkeyStateKey   string        `env:"VALKEY_STATE_KEY"   envDefault:"worship-sync:state"`
	PresenterRoom    string        `env:"PRESENTER_ROOM"`
	RelayURL         string        `env:"RELAY_URL"`
	RoomIdleTTL      time.Duration `env:"ROOM_IDLE_TTL"      envDefault:"30m"`
	ClientSendBuffer int           `env:"CLIENT_SEND_BUFFER" envDefault:"256"`
}

// Load reads envFile into the environment when it exists, then parses the
// environment. Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		} else {
			log.Printf("[Config] Loaded %s", envFile)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ClientSendBuffer <= 0 {
		return Config{}, fmt.Errorf("CLIENT_SEND_BUFFER must be positive, got %d", cfg.ClientSendBuffer)
	}
	switch cfg.StateBackend {
	case "":
		cfg.StateBackend = BackendFile
		if cfg.ValkeyAddr != "" {
			cfg.StateBackend = BackendValkey
		}
	case BackendFile, BackendMemory, BackendSQLite:
	case BackendValkey:
		if cfg.ValkeyAddr == "" {
			return Config{}, fmt.Errorf("STATE_BACKEND=valkey requires VALKEY_ADDR")
		}
	default:
		return Config{}, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}
	if cfg.RoomIdleTTL < 0 {
		return Config{}, fmt.Errorf("ROOM_IDLE_TTL must not be negative, got %s", cfg.RoomIdleTTL)
	}
	return cfg, nil
}

// HostsPresenter reports whether this process runs a presenter session.
func (c Config) HostsPresenter() bool { return c.PresenterRoom != "" }
