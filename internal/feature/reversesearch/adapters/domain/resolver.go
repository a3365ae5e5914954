// Package domain resolves URLs to their registered domain and the names on
// the certificate their host serves.
package domain

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"phish_backend/internal/feature/reversesearch/domain/entity"
	"phish_backend/internal/feature/reversesearch/usecase"
)

// ErrNoRegisteredDomain is returned for hosts without an eTLD+1, such as IP
// addresses and bare public suffixes.
var ErrNoRegisteredDomain = errors.New("host has no registered domain")

// Config controls certificate lookups.
type Config struct {
	// DialTimeout bounds the TLS handshake. Defaults to 5s.
	DialTimeout time.Duration
	// Port is used when the URL carries none. Defaults to 443.
	Port string
	// RootCAs overrides the system roots.
	RootCAs *x509.CertPool
	// SkipCertificates disables the TLS lookup entirely.
	SkipCertificates bool
}

// Resolver implements usecase.DomainResolver.
type Resolver struct {
	cfg    Config
	logger *slog.Logger
}

var _ usecase.DomainResolver = (*Resolver)(nil)

// NewResolver creates a Resolver.
func NewResolver(cfg Config, logger *slog.Logger) *Resolver {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Port == "" {
		cfg.Port = "443"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// RegisteredDomain returns the eTLD+1 of host.
func (r *Resolver) RegisteredDomain(host string) (string, error) {
	h := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if h == "" {
		return "", fmt.Errorf("%w: empty host", ErrNoRegisteredDomain)
	}
	if net.ParseIP(h) != nil {
		return "", fmt.Errorf("%w: %s is an IP address", ErrNoRegisteredDomain, h)
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoRegisteredDomain, err)
	}
	return d, nil
}

// Resolve parses rawURL and looks up its registered domain and certificate
// names. A failed handshake leaves SANs empty rather than failing.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*entity.DomainInfo, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}

	info := &entity.DomainInfo{Hostname: host}
	if d, err := r.RegisteredDomain(host); err == nil {
		info.RegisteredDomain = d
	}

	if !r.cfg.SkipCertificates {
		port := u.Port()
		if port == "" {
			port = r.cfg.Port
		}
		sans, err := r.certificateNames(ctx, host, port)
		if err != nil {
			r.logger.Debug("certificate lookup failed", "host", host, "error", err)
		}
		info.SANs = sans
	}
	return info, nil
}

func (r *Resolver) certificateNames(ctx context.Context, host, port string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.DialTimeout)
	defer cancel()

	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: r.cfg.DialTimeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    r.cfg.RootCAs,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			r.logger.Debug("failed to close tls connection", "host", host, "error", err)
		}
	}()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no peer certificate from %s", host)
	}
	names := make([]string, 0, len(state.PeerCertificates[0].DNSNames))
	for _, n := range state.PeerCertificates[0].DNSNames {
		names = append(names, strings.ToLower(n))
	}
	return names, nil
}
