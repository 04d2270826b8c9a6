// Package hamcert reads the amateur radio extensions of callsign
// certificates and checks which contacts a certificate may sign.
package hamcert

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OID base: 1.3.6.1.4.1.12348.1
// This is the private enterprise number assigned for amateur radio QSL signing.
var (
	oidBase = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 12348, 1}

	oidCallsign     = append(oidBase[:len(oidBase):len(oidBase)], 1)
	oidQSONotBefore = append(oidBase[:len(oidBase):len(oidBase)], 2)
	oidQSONotAfter  = append(oidBase[:len(oidBase):len(oidBase)], 3)
	oidDXCCEntity   = append(oidBase[:len(oidBase):len(oidBase)], 4)
	oidCRQEmail     = append(oidBase[:len(oidBase):len(oidBase)], 8)
)

// StationInfo is what a certificate says about the station it was issued to.
type StationInfo struct {
	Callsign     string
	OperatorName string
	Email        string
	DXCC         int
	// Zero values mean the window is open on that side.
	QSONotBefore time.Time
	QSONotAfter  time.Time
}

var (
	// ErrExtensionNotFound is returned when a required extension is not present.
	ErrExtensionNotFound = errors.New("extension not found")

	// ErrCallsignMismatch is returned when a contact was made by a
	// different station than the certificate's.
	ErrCallsignMismatch = errors.New("station callsign does not match certificate")

	// ErrOutsideQSOWindow is returned when a contact falls outside the
	// certificate's QSO date range.
	ErrOutsideQSOWindow = errors.New("contact date outside certificate QSO range")
)

// ParseStationInfo extracts amateur radio extensions from an X.509 certificate.
func ParseStationInfo(cert *x509.Certificate) (*StationInfo, error) {
	if cert == nil {
		return nil, errors.New("certificate is nil")
	}

	// Older certificates carry the callsign in the subject instead of an
	// extension.
	callsign, err := extensionString(cert, oidCallsign)
	if err != nil {
		callsign = subjectAttribute(cert, oidCallsign)
	}
	if callsign == "" {
		return nil, fmt.Errorf("callsign: %w", ErrExtensionNotFound)
	}

	info := &StationInfo{
		Callsign:     callsign,
		OperatorName: cert.Subject.CommonName,
	}
	if email, err := extensionString(cert, oidCRQEmail); err == nil {
		info.Email = email
	} else if len(cert.EmailAddresses) > 0 {
		info.Email = cert.EmailAddresses[0]
	}
	if dxcc, err := extensionInt(cert, oidDXCCEntity); err == nil {
		info.DXCC = dxcc
	}
	if t, err := extensionDate(cert, oidQSONotBefore); err == nil {
		info.QSONotBefore = t
	}
	if t, err := extensionDate(cert, oidQSONotAfter); err == nil {
		info.QSONotAfter = t
	}
	return info, nil
}

// Covers reports whether the station may sign a contact made as callsign
// at qsoTime. Callsigns compare case-insensitively. The QSO range is
// inclusive of whole days.
func (s *StationInfo) Covers(callsign string, qsoTime time.Time) error {
	if !strings.EqualFold(strings.TrimSpace(callsign), s.Callsign) {
		return fmt.Errorf("%w: %q, certificate is for %q", ErrCallsignMismatch, callsign, s.Callsign)
	}
	if !s.QSONotBefore.IsZero() && qsoTime.Before(s.QSONotBefore) {
		return fmt.Errorf("%w: %s is before %s", ErrOutsideQSOWindow,
			qsoTime.Format(time.DateOnly), s.QSONotBefore.Format(time.DateOnly))
	}
	if !s.QSONotAfter.IsZero() && !qsoTime.Before(s.QSONotAfter.AddDate(0, 0, 1)) {
		return fmt.Errorf("%w: %s is after %s", ErrOutsideQSOWindow,
			qsoTime.Format(time.DateOnly), s.QSONotAfter.Format(time.DateOnly))
	}
	return nil
}

func subjectAttribute(cert *x509.Certificate, oid asn1.ObjectIdentifier) string {
	for _, name := range cert.Subject.Names {
		if name.Type.Equal(oid) {
			if s, ok := name.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

func extensionValue(cert *x509.Certificate, oid asn1.ObjectIdentifier) ([]byte, bool) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return ext.Value, true
		}
	}
	return nil, false
}

// extensionString decodes a string extension. Depending on the issuing
// software the value is an ASN.1 string, some other ASN.1 primitive, or
// bare ASCII.
func extensionString(cert *x509.Certificate, oid asn1.ObjectIdentifier) (string, error) {
	value, ok := extensionValue(cert, oid)
	if !ok {
		return "", ErrExtensionNotFound
	}

	var str string
	if _, err := asn1.Unmarshal(value, &str); err == nil {
		return str, nil
	}
	var raw asn1.RawValue
	if _, err := asn1.Unmarshal(value, &raw); err == nil && len(raw.Bytes) > 0 {
		return string(raw.Bytes), nil
	}
	if len(value) > 0 && isPrintableASCII(value) {
		return string(value), nil
	}
	return "", errors.New("unable to decode extension as string")
}

func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}

func extensionInt(cert *x509.Certificate, oid asn1.ObjectIdentifier) (int, error) {
	value, ok := extensionValue(cert, oid)
	if !ok {
		return 0, ErrExtensionNotFound
	}

	var n int
	if _, err := asn1.Unmarshal(value, &n); err == nil {
		return n, nil
	}
	if str, err := extensionString(cert, oid); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("unable to decode extension as integer")
}

// extensionDate decodes a YYYYMMDD (or ISO 8601) date extension.
func extensionDate(cert *x509.Certificate, oid asn1.ObjectIdentifier) (time.Time, error) {
	str, err := extensionString(cert, oid)
	if err != nil {
		return time.Time{}, err
	}
	str = strings.TrimSpace(str)
	for _, layout := range []string{"20060102", time.DateOnly} {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", str)
}
