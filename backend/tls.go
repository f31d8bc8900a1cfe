package backend

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"os"
)

// LoadTLSConfig builds a client TLS config presenting the certificate at
// paths. When CACertPath is set it replaces the system roots.
func LoadTLSConfig(paths CertificatePaths) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(paths.CertPath, paths.KeyPath)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if paths.CACertPath == "" {
		return cfg, nil
	}
	caCert, err := os.ReadFile(paths.CACertPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("backend: no certificates found in ca file")
	}
	cfg.RootCAs = pool
	return cfg, nil
}

func transportFor(paths *CertificatePaths) (http.RoundTripper, error) {
	if paths == nil {
		return nil, nil
	}
	tlsConfig, err := LoadTLSConfig(*paths)
	if err != nil {
		return nil, err
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = tlsConfig
	return t, nil
}
