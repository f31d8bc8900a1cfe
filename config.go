package goAdmin

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/backend"
)

// Config is the complete client configuration. Start from [DefaultConfig]
// and override what differs.
type Config struct {
	Backend    backend.Config `yaml:"backend"`
	Storage    StorageConfig  `yaml:"storage"`
	Routes     RoutesConfig   `yaml:"routes"`
	Lockout    LockoutConfig  `yaml:"lockout"`
	OTP        OTPConfig      `yaml:"otp"`
	LoginTypes []LoginType    `yaml:"login_types"`
	Audit      AuditConfig    `yaml:"audit"`
	Metrics    MetricsConfig  `yaml:"metrics"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// StorageConfig selects where identity and failure state persist.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	FilePath      string `yaml:"file_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the login and dashboard routes.
type RoutesConfig struct {
	Login     string `yaml:"login"`
	Dashboard string `yaml:"dashboard"`
	// Public routes skip the session check entirely.
	Public []string `yaml:"public"`
}

// IsPublic reports whether route is the login route or listed in Public.
func (r RoutesConfig) IsPublic(route string) bool {
	return route == r.Login || slices.Contains(r.Public, route)
}

/*
====================================
LOCKOUT / OTP CONFIG
====================================
*/

// LockoutConfig tunes the lockout countdown.
type LockoutConfig struct {
	// TickInterval is how often a running countdown re-evaluates the lockout.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// OTPConfig tunes the OTP step.
type OTPConfig struct {
	CodeLength int `yaml:"code_length"`
	// RedirectDelay separates a successful verification from the navigation
	// to the dashboard so the success notice can render.
	RedirectDelay time.Duration `yaml:"redirect_delay"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig toggles counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns a config for a backend on localhost with both login
// types enabled and in-memory storage.
func DefaultConfig() Config {
	return Config{
		Backend: backend.DefaultConfig(),
		Storage: StorageConfig{
			Driver:      StorageMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "goadmin",
		},
		Routes: RoutesConfig{
			Login:     "/login",
			Dashboard: "/dashboard",
		},
		Lockout: LockoutConfig{TickInterval: time.Second},
		OTP: OTPConfig{
			CodeLength:    6,
			RedirectDelay: time.Second,
		},
		LoginTypes: []LoginType{LoginTypeAdmin, LoginTypeEditor},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.LoginTypes = slices.Clone(cfg.LoginTypes)
	out.Routes.Public = slices.Clone(cfg.Routes.Public)
	if cfg.Backend.MTLS != nil {
		paths := *cfg.Backend.MTLS
		out.Backend.MTLS = &paths
	}
	return out
}

// LoginTypeEnabled reports whether t may be selected.
func (c *Config) LoginTypeEnabled(t LoginType) bool {
	return slices.Contains(c.LoginTypes, t)
}

// Validate checks the configuration for values the client cannot run with.
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile:
		if c.Storage.FilePath == "" {
			return errors.New("Storage FilePath required for file driver")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("Storage RedisAddr required for redis driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if !strings.HasPrefix(c.Routes.Login, "/") || !strings.HasPrefix(c.Routes.Dashboard, "/") {
		return errors.New("Routes Login and Dashboard must be absolute paths")
	}
	if c.Routes.Login == c.Routes.Dashboard {
		return errors.New("Routes Login and Dashboard must differ")
	}
	if slices.Contains(c.Routes.Public, c.Routes.Dashboard) {
		return errors.New("Routes Dashboard cannot be public")
	}

	if c.Lockout.TickInterval <= 0 {
		return errors.New("Lockout TickInterval must be > 0")
	}
	if c.OTP.CodeLength <= 0 {
		return errors.New("OTP CodeLength must be > 0")
	}
	if c.OTP.RedirectDelay < 0 {
		return errors.New("OTP RedirectDelay must be >= 0")
	}

	if len(c.LoginTypes) == 0 {
		return errors.New("at least one login type must be enabled")
	}
	for _, t := range c.LoginTypes {
		if _, err := ParseLoginType(string(t)); err != nil {
			return err
		}
	}
	if slices.Contains(c.LoginTypes, LoginTypeEditor) &&
		(c.Backend.Endpoints.EditorLogin == "" || c.Backend.Endpoints.EditorVerifyOTP == "") {
		return errors.New("editor login enabled without editor endpoints")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	return nil
}
