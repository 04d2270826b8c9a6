// Package tqsl reads the files TrustedQSL keeps next to its certificates.
package tqsl

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/radiolabme/hamlog/adif"
)

// ErrKeyNotFound is returned when a key file has no usable key for a callsign.
var ErrKeyNotFound = errors.New("no private key found")

// keyRecord is one entry of a key file. Entries carry many more fields
// (request details, public key, password type), which are skipped.
type keyRecord struct {
	Callsign   string `adif:"callsign,required"`
	PrivateKey string `adif:"private_key"`
	Deleted    bool   `adif:"deleted"`
}

// ReadKeyFile returns the PEM private key for callsign from a TQSL key
// file. Deleted entries are ignored and the first live entry wins.
// Callsigns compare case-insensitively.
func ReadKeyFile(data string, callsign string) ([]byte, error) {
	r, err := adif.NewReader(strings.TrimLeftFunc(data, unicode.IsSpace))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	n := 0
	for rec, err := range adif.Deserialize[keyRecord](r).All() {
		n++
		if err != nil {
			return nil, fmt.Errorf("key record %d: %w", n, err)
		}
		if rec.Deleted || !strings.EqualFold(strings.TrimSpace(rec.Callsign), callsign) {
			continue
		}
		key := strings.TrimSpace(rec.PrivateKey)
		if key == "" {
			continue
		}
		return []byte(key), nil
	}
	return nil, fmt.Errorf("%w for callsign %s", ErrKeyNotFound, callsign)
}
