package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/radiolabme/hamlog"
	"github.com/radiolabme/hamlog/tqsl"
)

const n1mmFixture = "testdata/n1mm.adi"

func testRunContext(cfg config) (*runContext, *bytes.Buffer) {
	var out bytes.Buffer
	return &runContext{cfg: cfg, logger: newLogger(io.Discard, slog.LevelDebug), out: &out}, &out
}

// writeStation writes a W1AW certificate and a TQSL key file holding its
// key, and returns a config pointing at them.
func writeStation(t *testing.T) config {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ext := func(n int, value string) pkix.Extension {
		data, err := asn1.Marshal(value)
		require.NoError(t, err)
		return pkix.Extension{Id: asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 12348, 1, n}, Value: data}
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "Test Operator"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtraExtensions: []pkix.Extension{
			ext(1, "W1AW"),
			ext(2, "2020-01-01"),
			ext(3, "2030-12-31"),
		},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "user.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))

	keyPEM := strings.TrimSpace(string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})))
	keyFile := fmt.Sprintf("<CALLSIGN:4>W1AW\n<PRIVATE_KEY:%d>%s\n<eor>\n", len(keyPEM), keyPEM)
	keyPath := filepath.Join(dir, "W1AW")
	require.NoError(t, os.WriteFile(keyPath, []byte(keyFile), 0o600))

	cfg := defaultConfig()
	cfg.Certificate = certPath
	cfg.KeyFile = keyPath
	return cfg
}

func TestDumpCmd(t *testing.T) {
	rc, out := testRunContext(defaultConfig())
	require.NoError(t, (&DumpCmd{File: n1mmFixture}).Run(rc))

	got := out.String()
	require.True(t, strings.HasPrefix(got, "header\n  adif_ver = \"3.1.4\"\n"))
	require.Contains(t, got, "  programid = \"N1MM+\"\n")
	require.Contains(t, got, "record 1\n  call = \"K1ABC\"\n")
	require.Contains(t, got, "record 2\n  call = \"VE3XYZ\"\n")
	require.NotContains(t, got, "record 3")
}

func TestContactsCmd(t *testing.T) {
	rc, out := testRunContext(defaultConfig())
	require.NoError(t, (&ContactsCmd{File: n1mmFixture}).Run(rc))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "ID"))
	require.Contains(t, lines[1], "2024-01-15T14:30:00Z")
	require.Contains(t, lines[1], "14025500")
	require.Contains(t, lines[2], "VE3XYZ")
	require.Contains(t, lines[2], "40M")
}

func TestSignAndVerifyCmd(t *testing.T) {
	cfg := writeStation(t)
	signed := filepath.Join(t.TempDir(), "signed.tq8")

	rc, _ := testRunContext(cfg)
	require.NoError(t, (&SignCmd{File: n1mmFixture, Output: signed}).Run(rc))

	data, err := os.ReadFile(signed)
	require.NoError(t, err)
	require.Contains(t, string(data), "<SIGN_LOTW_V2.0:")
	require.Equal(t, 2, strings.Count(string(data), "<eor>"))

	rc, out := testRunContext(cfg)
	require.NoError(t, (&VerifyCmd{File: signed}).Run(rc))
	require.Equal(t, "OK   1 K1ABC\nOK   2 VE3XYZ\n", out.String())

	tampered := strings.Replace(string(data), "<CALL:5>K1ABC", "<CALL:5>K1ABD", 1)
	require.NoError(t, os.WriteFile(signed, []byte(tampered), 0o600))

	rc, out = testRunContext(cfg)
	err = (&VerifyCmd{File: signed}).Run(rc)
	require.ErrorIs(t, err, errVerifyFailed)
	require.Contains(t, out.String(), "FAIL 1 K1ABD")
	require.Contains(t, out.String(), "OK   2 VE3XYZ")
}

func TestSignCmd_NoKeyForCallsign(t *testing.T) {
	cfg := writeStation(t)
	cfg.Callsign = "K2XYZ"

	rc, out := testRunContext(cfg)
	err := (&SignCmd{File: n1mmFixture}).Run(rc)
	require.ErrorIs(t, err, tqsl.ErrKeyNotFound)
	require.Zero(t, out.Len())
}

func TestNewSigner_Credentials(t *testing.T) {
	t.Run("no certificate", func(t *testing.T) {
		_, err := newSigner(defaultConfig())
		require.Error(t, err)
	})

	t.Run("callsign from certificate", func(t *testing.T) {
		signer, err := newSigner(writeStation(t))
		require.NoError(t, err)
		require.Equal(t, "Test Operator", signer.Certificate().Subject.CommonName)
	})

	t.Run("pkcs12", func(t *testing.T) {
		station := writeStation(t)
		cert, key, err := loadCredentials(station)
		require.NoError(t, err)
		p12, err := hamlog.ExportPKCS12(cert, key, "secret")
		require.NoError(t, err)

		cfg := defaultConfig()
		cfg.Certificate = filepath.Join(t.TempDir(), "w1aw.p12")
		require.NoError(t, os.WriteFile(cfg.Certificate, p12, 0o600))
		t.Setenv(cfg.PasswordEnv, "secret")

		signer, err := newSigner(cfg)
		require.NoError(t, err)
		require.True(t, signer.Certificate().Equal(cert))
	})

	t.Run("untrusted CA bundle", func(t *testing.T) {
		cfg := writeStation(t)
		other := writeStation(t)
		cfg.CABundle = other.Certificate
		_, err := newSigner(cfg)
		require.Error(t, err)
	})
}
