// server/tls.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dalemusser/inquiry/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// certWarmup bounds how long startup waits for the first Let's Encrypt
// certificate before binding :443 anyway.
const certWarmup = 60 * time.Second

// errKeyPermissions marks a key file readable by group or others.
var errKeyPermissions = errors.New("overly permissive permissions")

// newCertManager builds the http-01 autocert manager for the configured
// domain. ACMEDirectoryURL switches to another directory such as the Let's
// Encrypt staging endpoint.
func newCertManager(t config.TLSConfig) *autocert.Manager {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(t.Domain),
		Cache:      autocert.DirCache(t.LetsEncryptCacheDir),
		Email:      t.LetsEncryptEmail,
	}
	if t.ACMEDirectoryURL != "" {
		m.Client = &acme.Client{DirectoryURL: t.ACMEDirectoryURL}
	}
	return m
}

// waitForCert polls autocert until it holds a certificate for host, ctx is
// done, or timeout passes, whichever is first.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w", host, errors.Join(ctx.Err(), err))
		case <-tick.C:
		}
	}
}

// checkKeyPair validates the manual TLS files. Loose key permissions are a
// hard error in prod and a warning elsewhere.
func checkKeyPair(cfg *config.CoreConfig, logger *zap.Logger) error {
	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, errKeyPermissions):
		return err
	case cfg.Env == "prod":
		return fmt.Errorf("production security: %w", err)
	}
	logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
	return nil
}

// validateTLSFiles checks both files exist and are regular files, and that
// the key is not group/other accessible on Unix.
func validateTLSFiles(certFile, keyFile string) error {
	if _, err := statFile("certificate", certFile); err != nil {
		return err
	}
	keyInfo, err := statFile("key", keyFile)
	if err != nil {
		return err
	}
	if runtime.GOOS != "windows" && keyInfo.Mode().Perm()&0o077 != 0 {
		return fmt.Errorf("TLS key file %s has %w %o (recommended: 0600)",
			keyFile, errKeyPermissions, keyInfo.Mode().Perm())
	}
	return nil
}

func statFile(kind, path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS %s file does not exist: %s", kind, path)
		}
		return nil, fmt.Errorf("cannot access TLS %s file %s: %w", kind, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("TLS %s path is a directory, not a file: %s", kind, path)
	}
	return info, nil
}
