// Package config builds one immutable Config from three layers (highest
// precedence last):
//
//  1. built-in defaults (Default),
//  2. an optional YAML file,
//  3. environment variables prefixed FRONTDESK_, where "__" separates
//     sections (FRONTDESK_MEMBERS__LOOKUP_TIMEOUT -> members.lookup_timeout).
//
// A .env file in the working directory, if present, is loaded into the
// environment first.  The merged tree is validated before it is returned;
// the binaries refuse to start on a bad config.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

const EnvPrefix = "FRONTDESK_"

type HTTP struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

// GRPC serves the health service.  An empty Addr disables it.
type GRPC struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

type DB struct {
	Path string `koanf:"path" validate:"required"`
}

// Members selects the member database.  "sqlite" reads the members table
// of the local database; "mysql" reads an external one through DSN.
type Members struct {
	Driver        string        `koanf:"driver" validate:"oneof=sqlite mysql"`
	DSN           string        `koanf:"dsn" validate:"required_if=Driver mysql"`
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
}

type Audit struct {
	// FallbackCapacity bounds the in-process log; 0 means unbounded.
	FallbackCapacity int `koanf:"fallback_capacity" validate:"gte=0"`
	// FlushInterval is how often fallback records are replayed; 0 disables.
	FlushInterval time.Duration `koanf:"flush_interval"`
}

type Stations struct {
	Known []string `koanf:"known"`
}

type Log struct {
	Dir   string `koanf:"dir"`
	Tee   bool   `koanf:"tee"`
	Debug bool   `koanf:"debug"`
}

// Kiosk configures cmd/frontdesk-kiosk.
type Kiosk struct {
	ServerURL         string        `koanf:"server_url" validate:"required,url"`
	StationID         string        `koanf:"station_id" validate:"required"`
	ResetThreshold    time.Duration `koanf:"reset_threshold"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	Camera            string        `koanf:"camera"`
	Profile           string        `koanf:"profile" validate:"omitempty,oneof=fast balanced accurate"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

type Config struct {
	Env      string   `koanf:"env" validate:"oneof=dev prod"`
	HTTP     HTTP     `koanf:"http"`
	GRPC     GRPC     `koanf:"grpc"`
	DB       DB       `koanf:"db"`
	Members  Members  `koanf:"members"`
	Audit    Audit    `koanf:"audit"`
	Stations Stations `koanf:"stations"`
	Log      Log      `koanf:"log"`
	Kiosk    Kiosk    `koanf:"kiosk"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Env:  "dev",
		HTTP: HTTP{Addr: ":8080"},
		GRPC: GRPC{Addr: ":9090"},
		DB:   DB{Path: "./data/frontdesk.db"},
		Members: Members{
			Driver:        "sqlite",
			LookupTimeout: 3 * time.Second,
		},
		Audit: Audit{
			FallbackCapacity: 10000,
			FlushInterval:    30 * time.Second,
		},
		Log: Log{Dir: "./logs"},
		Kiosk: Kiosk{
			ServerURL:         "http://127.0.0.1:8080",
			StationID:         "desk-1",
			ResetThreshold:    2 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			Profile:           "fast",
			RequestTimeout:    5 * time.Second,
		},
	}
}

var validate = validator.New()

// Load merges defaults, the YAML file at path (skipped when path is
// empty) and the environment, then validates the result.
func Load(path string) (Config, error) {
	// Optional; a missing .env is not an error.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.Stations.Known = trimList(cfg.Stations.Known)

	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid: %w", err)
	}
	return cfg, nil
}

// envKey maps FRONTDESK_AUDIT__FLUSH_INTERVAL to audit.flush_interval.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Path returns the config file named by FRONTDESK_CONFIG, if any.
func Path() string {
	return os.Getenv(EnvPrefix + "CONFIG")
}
