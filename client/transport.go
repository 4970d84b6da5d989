package client

import (
	"net"
	"net/http"
	"time"
)

// TransportConfig holds the connection-level timeouts of the submission
// client. There is no per-call override: a submission runs until the
// transport gives up or the caller's context ends.
type TransportConfig struct {
	// Timeout bounds the whole request. Default: 30 seconds.
	Timeout time.Duration

	// DialTimeout is the maximum time to establish a connection. Default: 10 seconds.
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time for the TLS handshake. Default: 10 seconds.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the maximum wait for response headers. Default: 10 seconds.
	ResponseHeaderTimeout time.Duration

	// IdleConnTimeout is how long an idle connection stays open. Default: 90 seconds.
	IdleConnTimeout time.Duration
}

// DefaultTransportConfig returns the transport defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:               30 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}
}

// NewHTTPClient builds an *http.Client from cfg, filling zero fields with
// defaults.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	def := DefaultTransportConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.TLSHandshakeTimeout <= 0 {
		cfg.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if cfg.ResponseHeaderTimeout <= 0 {
		cfg.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}
