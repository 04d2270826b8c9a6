package main

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/radiolabme/hamlog"
	"github.com/radiolabme/hamlog/hamcert"
	"github.com/radiolabme/hamlog/tqsl"
)

// loadCredentials reads the certificate and private key named by cfg.
func loadCredentials(cfg config) (*x509.Certificate, crypto.PrivateKey, error) {
	if cfg.Certificate == "" {
		return nil, nil, errors.New("no certificate configured")
	}
	certData, err := os.ReadFile(cfg.Certificate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	switch strings.ToLower(filepath.Ext(cfg.Certificate)) {
	case ".p12", ".pfx":
		return hamlog.LoadPKCS12(certData, os.Getenv(cfg.PasswordEnv))
	}

	if cfg.KeyFile == "" {
		return nil, nil, errors.New("no key file configured for PEM certificate")
	}
	keyData, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if !bytes.HasPrefix(bytes.TrimSpace(keyData), []byte("-----BEGIN")) {
		callsign := cfg.Callsign
		if callsign == "" {
			cert, err := hamlog.LoadCertificatePEM(certData)
			if err != nil {
				return nil, nil, err
			}
			info, err := hamcert.ParseStationInfo(cert)
			if err != nil {
				return nil, nil, fmt.Errorf("no callsign configured: %w", err)
			}
			callsign = info.Callsign
		}
		keyData, err = tqsl.ReadKeyFile(string(keyData), callsign)
		if err != nil {
			return nil, nil, err
		}
	}
	return hamlog.LoadPEM(certData, keyData)
}

// newSigner builds a Signer from cfg and, when a CA bundle is configured,
// verifies the certificate chain.
func newSigner(cfg config) (*hamlog.Signer, error) {
	cert, key, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	opts := &hamlog.VerifyOptions{Expiry: cfg.ExpiryPolicy}
	if cfg.CABundle != "" {
		data, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		certs, err := hamlog.LoadTQ6(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load CA bundle: %w", err)
		}
		opts.Roots, opts.Intermediates = hamlog.CertPools(certs)
	}

	signer, err := hamlog.NewSigner(cert, key, opts)
	if err != nil {
		return nil, err
	}
	if opts.Roots != nil {
		if err := signer.VerifyChain(); err != nil {
			return nil, err
		}
	} else if cfg.ExpiryPolicy != hamlog.ExpiryPolicyIgnoreAll && hamlog.IsExpired(cert) {
		return nil, errors.New("certificate has expired")
	}
	return signer, nil
}
