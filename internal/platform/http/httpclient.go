// Package http builds the outbound HTTP client shared by the search engine adapters.
package http

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// MaxRedirects bounds how many redirects a single request follows.
const MaxRedirects = 5

// ErrTooManyRedirects is returned when a request exceeds MaxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// NewHTTPClient creates the client used for outbound calls to search
// engines. timeout bounds the whole request, including reading the body.
// http.DefaultClient has no timeout and must not be used for these calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: t,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}
