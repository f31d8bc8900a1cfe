package backend

import (
	"errors"
	"net/url"
	"time"
)

// Config describes where the backend lives and how to reach it.
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	Timeout   time.Duration     `yaml:"timeout"`
	APIKey    string            `yaml:"api_key"`
	Endpoints Endpoints         `yaml:"endpoints"`
	MTLS      *CertificatePaths `yaml:"mtls"`
}

// Endpoints holds the request paths relative to BaseURL.
type Endpoints struct {
	AdminLogin      string `yaml:"admin_login"`
	EditorLogin     string `yaml:"editor_login"`
	AdminVerifyOTP  string `yaml:"admin_verify_otp"`
	EditorVerifyOTP string `yaml:"editor_verify_otp"`
	Probe           string `yaml:"probe"`
	// Sections is the prefix for section listings; the section name is appended.
	Sections string `yaml:"sections"`
}

// CertificatePaths locates the PEM files for mutual TLS.
type CertificatePaths struct {
	CertPath   string `yaml:"cert"`
	KeyPath    string `yaml:"key"`
	CACertPath string `yaml:"ca"`
}

// DefaultConfig targets a backend on localhost:8000 with the stock endpoint paths.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 10 * time.Second,
		Endpoints: Endpoints{
			AdminLogin:      "/api/admin/login",
			EditorLogin:     "/api/editor/login",
			AdminVerifyOTP:  "/api/admin/verify-otp",
			EditorVerifyOTP: "/api/editor/verify-otp",
			Probe:           "/api/auth/me",
			Sections:        "/api/",
		},
	}
}

// Validate checks the base URL, endpoints and timeout.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("backend: base url must not be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("backend: base url must be absolute")
	}
	if c.Timeout <= 0 {
		return errors.New("backend: timeout must be > 0")
	}
	e := c.Endpoints
	if e.AdminLogin == "" || e.AdminVerifyOTP == "" {
		return errors.New("backend: admin endpoints must be set")
	}
	if e.Probe == "" {
		return errors.New("backend: probe endpoint must be set")
	}
	if c.MTLS != nil && (c.MTLS.CertPath == "" || c.MTLS.KeyPath == "") {
		return errors.New("backend: mtls requires cert and key")
	}
	return nil
}
