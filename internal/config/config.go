// Package config loads the goadmin and goadmin-server configuration file.
//
// YAML (.yaml, .yml) and JSON with comments (.json, .jsonc) are accepted.
// JSONC is reduced to plain JSON and then decoded with the YAML decoder, so
// both formats share the same snake_case keys and duration strings ("1s").
// GOADMIN_* environment variables override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/internal/logging"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// File is the on-disk layout.
type File struct {
	Client goAdmin.Config `yaml:"client"`
	Server ServerConfig   `yaml:"server"`
	Log    logging.Config `yaml:"log"`
}

// ServerConfig drives cmd/goadmin-server.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	// IdleTabTTL closes browser tabs that have not been used for this long.
	IdleTabTTL   time.Duration `yaml:"idle_tab_ttl"`
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// Default returns the built-in client, server and log settings.
func Default() File {
	return File{
		Client: goAdmin.DefaultConfig(),
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			IdleTabTTL:        30 * time.Minute,
			CookieName:        "goadmin_browser",
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path yields the defaults with overrides.
func Load(path string, lookup func(string) (string, bool)) (File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Decode(path, data, &cfg); err != nil {
			return cfg, err
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data into cfg, choosing the format from the file extension.
func Decode(path string, data []byte, cfg *File) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *File, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("GOADMIN_BACKEND_URL", &cfg.Client.Backend.BaseURL)
	str("GOADMIN_API_KEY", &cfg.Client.Backend.APIKey)
	str("GOADMIN_STORAGE_DRIVER", &cfg.Client.Storage.Driver)
	str("GOADMIN_STORAGE_FILE", &cfg.Client.Storage.FilePath)
	str("GOADMIN_REDIS_ADDR", &cfg.Client.Storage.RedisAddr)
	str("GOADMIN_REDIS_PASSWORD", &cfg.Client.Storage.RedisPassword)
	str("GOADMIN_LOG_LEVEL", &cfg.Log.Level)
	str("GOADMIN_LOG_FILE", &cfg.Log.Filename)
	str("GOADMIN_ADDR", &cfg.Server.Addr)

	if v, ok := lookup("GOADMIN_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOADMIN_REDIS_DB: %w", err)
		}
		cfg.Client.Storage.RedisDB = db
	}
	if v, ok := lookup("GOADMIN_BACKEND_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOADMIN_BACKEND_TIMEOUT: %w", err)
		}
		cfg.Client.Backend.Timeout = d
	}
	if v, ok := lookup("GOADMIN_LOGIN_TYPES"); ok && v != "" {
		var types []goAdmin.LoginType
		for _, part := range strings.Split(v, ",") {
			t, err := goAdmin.ParseLoginType(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("GOADMIN_LOGIN_TYPES: %w", err)
			}
			types = append(types, t)
		}
		cfg.Client.LoginTypes = types
	}
	return nil
}

// Validate checks the client and server sections.
func (f *File) Validate() error {
	if err := f.Client.Validate(); err != nil {
		return err
	}
	if f.Server.Addr == "" {
		return errors.New("server addr must be set")
	}
	if f.Server.IdleTabTTL <= 0 {
		return errors.New("server idle_tab_ttl must be > 0")
	}
	return nil
}
