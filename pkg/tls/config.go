// Package tls builds the HTTPS configuration for the server from a
// certificate pair on disk or a generated self-signed certificate.
package tls

import (
	"crypto/tls"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNoCertificate is returned when TLS is enabled without a certificate
// pair and generation is off.
var ErrNoCertificate = errors.New("tls enabled but no certificate configured")

// Config is the tls section of the server configuration.
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	CertFile     string        `yaml:"cert_file"`
	KeyFile      string        `yaml:"key_file"`
	AutoGenerate bool          `yaml:"auto_generate"`
	Hosts        []string      `yaml:"hosts"`
	ValidFor     time.Duration `yaml:"valid_for"`
}

// DefaultConfig returns TLS disabled with generation set up for localhost.
func DefaultConfig() Config {
	return Config{
		AutoGenerate: true,
		Hosts:        []string{"localhost", "127.0.0.1"},
		ValidFor:     365 * 24 * time.Hour,
	}
}

// ServerConfig returns the server side *tls.Config, or nil when disabled.
// A configured pair wins over generation.
func ServerConfig(cfg Config) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case cfg.CertFile != "" && cfg.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load certificate pair")
		}
	case cfg.AutoGenerate:
		cert, err = GenerateSelfSigned(cfg.Hosts, cfg.ValidFor)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoCertificate
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: SecureCipherSuites(),
	}, nil
}

// SecureCipherSuites lists the TLS 1.2 suites offered. TLS 1.3 suites are
// not configurable.
func SecureCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	}
}
