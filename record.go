package hamlog

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/radiolabme/hamlog/contact"
	"github.com/radiolabme/hamlog/gabbi"
	"github.com/radiolabme/hamlog/hamcert"
)

// ErrSignDataMismatch is returned when a record's SIGNDATA field does not
// match its contact fields.
var ErrSignDataMismatch = errors.New("sign data does not match record fields")

// SignContact signs c and returns the signed GABBI contact record.
//
// The contact must have been made by the certificate's station, within the
// certificate's QSO date range.
func (s *Signer) SignContact(c contact.Contact) (gabbi.Record, error) {
	info, err := hamcert.ParseStationInfo(s.cert)
	if err != nil {
		return gabbi.Record{}, fmt.Errorf("failed to read certificate station info: %w", err)
	}
	if err := info.Covers(c.SentCallsign, c.Timestamp); err != nil {
		return gabbi.Record{}, fmt.Errorf("contact %s: %w", c.ID, err)
	}

	rec := gabbi.ContactRecord(c)
	data := gabbi.SignData(rec)
	sig, err := s.Sign([]byte(data))
	if err != nil {
		return gabbi.Record{}, fmt.Errorf("failed to sign contact %s: %w", c.ID, err)
	}
	rec.SetTyped(gabbi.FieldSignature, gabbi.SignatureType, base64.StdEncoding.EncodeToString(sig))
	rec.Set(gabbi.FieldSignData, data)
	return rec, nil
}

// VerifyRecord checks the signature of a signed contact record against the
// signer's certificate.
func (s *Signer) VerifyRecord(rec gabbi.Record) error {
	return VerifyRecord(s.cert, rec)
}

// VerifyRecord checks the signature of a signed contact record against
// cert. The signature must cover the record's current contact fields.
func VerifyRecord(cert *x509.Certificate, rec gabbi.Record) error {
	if rt := rec.RecType(); rt != gabbi.RecTypeContact {
		return fmt.Errorf("record type %q is not %s", rt, gabbi.RecTypeContact)
	}
	encoded, ok := rec.Get(gabbi.FieldSignature)
	if !ok {
		return errors.New("record is not signed")
	}
	sig, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	data := gabbi.SignData(rec)
	if recorded, ok := rec.Get(gabbi.FieldSignData); ok && recorded != data {
		return ErrSignDataMismatch
	}
	if err := verify(cert, []byte(data), sig); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
