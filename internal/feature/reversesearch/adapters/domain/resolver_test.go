package domain

import (
	"context"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_RegisteredDomain(t *testing.T) {
	r := NewResolver(Config{SkipCertificates: true}, nil)

	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{"www.example.com", "example.com", false},
		{"Login.Bank.Example.CO.UK", "example.co.uk", false},
		{"example.com.", "example.com", false},
		{"foo.github.io", "foo.github.io", false},
		{"co.uk", "", true},
		{"192.168.0.1", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := r.RegisteredDomain(tt.host)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoRegisteredDomain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ResolveWithoutCertificates(t *testing.T) {
	r := NewResolver(Config{SkipCertificates: true}, nil)

	info, err := r.Resolve(context.Background(), "https://Shop.Example.org/cart?id=1")

	require.NoError(t, err)
	assert.Equal(t, "shop.example.org", info.Hostname)
	assert.Equal(t, "example.org", info.RegisteredDomain)
	assert.Empty(t, info.SANs)
}

func TestResolver_ResolveInvalid(t *testing.T) {
	r := NewResolver(Config{SkipCertificates: true}, nil)

	for _, raw := range []string{"::not a url", "/relative/path"} {
		_, err := r.Resolve(context.Background(), raw)
		assert.Error(t, err, raw)
	}
}

func TestResolver_ResolveReadsCertificateNames(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	r := NewResolver(Config{RootCAs: pool}, nil)
	info, err := r.Resolve(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", info.Hostname)
	assert.Empty(t, info.RegisteredDomain)
	assert.Equal(t, []string{"example.com"}, info.SANs)
}

func TestResolver_UntrustedCertificateLeavesSANsEmpty(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	r := NewResolver(Config{Port: u.Port()}, nil)
	info, err := r.Resolve(context.Background(), "http://"+u.Hostname()+"/")

	require.NoError(t, err)
	assert.Empty(t, info.SANs)
}
