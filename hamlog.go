// Package hamlog signs amateur radio contacts decoded from ADIF logs.
//
// Contacts are read with the contact package, signed with a callsign
// certificate, and written out as GABBI records:
//
//	// Load certificate and key from PKCS#12 file
//	cert, key, err := hamlog.LoadPKCS12(data, "password")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signer, err := hamlog.NewSigner(cert, key, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	contacts, err := (&contact.Loader{}).Load(string(logData))
//	...
//	rec, err := signer.SignContact(contacts[0])
package hamlog

import (
	"bytes"
	"compress/gzip"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

// ExpiryPolicy controls how certificate expiration is handled during verification.
type ExpiryPolicy int

const (
	// ExpiryPolicyStrict fails verification if any certificate in the chain has expired.
	ExpiryPolicyStrict ExpiryPolicy = iota

	// ExpiryPolicyIgnoreCA ignores expiration on root and intermediate
	// certificates but enforces it on the user certificate.
	ExpiryPolicyIgnoreCA

	// ExpiryPolicyIgnoreAll ignores expiration on all certificates in the chain.
	ExpiryPolicyIgnoreAll
)

// ParseExpiryPolicy parses "strict", "ignore-ca" or "ignore-all".
func ParseExpiryPolicy(s string) (ExpiryPolicy, error) {
	switch s {
	case "strict":
		return ExpiryPolicyStrict, nil
	case "ignore-ca", "":
		return ExpiryPolicyIgnoreCA, nil
	case "ignore-all":
		return ExpiryPolicyIgnoreAll, nil
	}
	return 0, fmt.Errorf("unknown expiry policy %q", s)
}

// VerifyOptions controls certificate chain verification.
type VerifyOptions struct {
	// Roots is the set of trusted root certificates. VerifyChain fails
	// when it is nil.
	Roots *x509.CertPool

	// Intermediates is the set of intermediate certificates.
	Intermediates *x509.CertPool

	// Expiry controls how certificate expiration is handled.
	Expiry ExpiryPolicy
}

// ErrNoRoots is returned by VerifyChain when no trusted roots are configured.
var ErrNoRoots = errors.New("no trusted root certificates configured")

// Signer signs contacts using a callsign certificate and its private key.
type Signer struct {
	cert          *x509.Certificate
	key           crypto.PrivateKey
	roots         *x509.CertPool
	intermediates *x509.CertPool
	expiryPolicy  ExpiryPolicy
}

// NewSigner creates a Signer with the given user certificate and private key.
// If opts is nil, ExpiryPolicyIgnoreCA is used and VerifyChain is unavailable.
func NewSigner(cert *x509.Certificate, key crypto.PrivateKey, opts *VerifyOptions) (*Signer, error) {
	if cert == nil {
		return nil, errors.New("certificate is nil")
	}
	if key == nil {
		return nil, errors.New("private key is nil")
	}

	s := &Signer{
		cert:         cert,
		key:          key,
		expiryPolicy: ExpiryPolicyIgnoreCA,
	}
	if opts != nil {
		s.roots = opts.Roots
		s.intermediates = opts.Intermediates
		s.expiryPolicy = opts.Expiry
	}
	return s, nil
}

// Sign signs the given data and returns the signature.
// Uses SHA-1 with RSA for compatibility with existing systems.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	rsaKey, ok := s.key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}

	hash := sha1.Sum(data)
	return rsa.SignPKCS1v15(rand.Reader, rsaKey, crypto.SHA1, hash[:])
}

// Verify verifies a signature against the given data using the certificate's public key.
func (s *Signer) Verify(data, signature []byte) error {
	return verify(s.cert, data, signature)
}

func verify(cert *x509.Certificate, data, signature []byte) error {
	rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("certificate public key is not RSA")
	}

	hash := sha1.Sum(data)
	return rsa.VerifyPKCS1v15(rsaKey, crypto.SHA1, hash[:], signature)
}

// Certificate returns the signer's certificate.
func (s *Signer) Certificate() *x509.Certificate {
	return s.cert
}

// VerifyChain verifies the certificate chain according to the configured options.
func (s *Signer) VerifyChain() error {
	if s.roots == nil {
		return ErrNoRoots
	}
	opts := x509.VerifyOptions{
		Roots:         s.roots,
		Intermediates: s.intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	switch s.expiryPolicy {
	case ExpiryPolicyIgnoreCA, ExpiryPolicyIgnoreAll:
		// Verify as of a moment inside the user certificate's validity,
		// which takes CA expiry out of chain building.
		opts.CurrentTime = s.cert.NotBefore.Add(time.Hour)
	}

	if _, err := s.cert.Verify(opts); err != nil {
		return fmt.Errorf("certificate chain verification failed: %w", err)
	}

	if s.expiryPolicy != ExpiryPolicyIgnoreAll && IsExpired(s.cert) {
		return errors.New("user certificate has expired")
	}
	return nil
}

// LoadPKCS12 loads a certificate and private key from PKCS#12 data.
// If the PKCS#12 file contains CA certificates, they are ignored.
func LoadPKCS12(data []byte, password string) (*x509.Certificate, crypto.PrivateKey, error) {
	key, cert, _, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode PKCS#12: %w", err)
	}
	return cert, key, nil
}

// LoadPEM loads a certificate and private key from PEM-encoded data.
func LoadPEM(certPEM, keyPEM []byte) (*x509.Certificate, crypto.PrivateKey, error) {
	cert, err := LoadCertificatePEM(certPEM)
	if err != nil {
		return nil, nil, err
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, nil, errors.New("failed to decode private key PEM")
	}

	var key crypto.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, nil, fmt.Errorf("unsupported private key type: %s", block.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return cert, key, nil
}

// LoadCertificatePEM loads a single PEM-encoded certificate.
func LoadCertificatePEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, errors.New("failed to decode certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

// LoadTQ6 loads the certificates of a TQ6 file, such as a CA bundle.
// TQ6 files may be gzip-compressed XML containing PEM certificates,
// or concatenated PEM certificates directly.
func LoadTQ6(data []byte) ([]*x509.Certificate, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer func() { _ = gr.Close() }()

		data, err = io.ReadAll(gr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress TQ6: %w", err)
		}
	}

	var certs []*x509.Certificate
	remaining := data
	for {
		idx := bytes.Index(remaining, []byte("-----BEGIN CERTIFICATE-----"))
		if idx == -1 {
			break
		}
		block, rest := pem.Decode(remaining[idx:])
		if block == nil {
			break
		}
		remaining = rest

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, errors.New("no certificates found in TQ6 data")
	}
	return certs, nil
}

// CertPools splits certificates into self-signed roots and intermediates.
func CertPools(certs []*x509.Certificate) (roots, intermediates *x509.CertPool) {
	roots = x509.NewCertPool()
	intermediates = x509.NewCertPool()
	for _, cert := range certs {
		if bytes.Equal(cert.RawIssuer, cert.RawSubject) && cert.CheckSignatureFrom(cert) == nil {
			roots.AddCert(cert)
		} else {
			intermediates.AddCert(cert)
		}
	}
	return roots, intermediates
}

// ExportPKCS12 exports a certificate and private key to PKCS#12 format.
// Uses legacy encoding for compatibility with TQSL and other existing tools.
func ExportPKCS12(cert *x509.Certificate, key crypto.PrivateKey, password string) ([]byte, error) {
	return pkcs12.Legacy.Encode(key, cert, nil, password)
}

// IsExpired checks if a certificate has expired.
func IsExpired(cert *x509.Certificate) bool {
	return time.Now().After(cert.NotAfter)
}
