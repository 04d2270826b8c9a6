package contact

import (
	"fmt"
	"strings"

	"github.com/radiolabme/hamlog/adif"
)

// SLogger abstracts the [*slog.Logger] behavior.
//
// Debug is used for per-record events, Info for per-log events.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type discardSLogger struct{}

func (discardSLogger) Debug(msg string, args ...any) {}

func (discardSLogger) Info(msg string, args ...any) {}

// Loader reads N1MM+ ADIF exports.
type Loader struct {
	// Logger receives progress messages. When nil, nothing is logged.
	Logger SLogger
}

// Load decodes every record of input and converts it to a Contact. It
// stops at the first record that fails, returning the contacts decoded so
// far along with the error.
func (l *Loader) Load(input string) ([]Contact, error) {
	logger := l.Logger
	if logger == nil {
		logger = discardSLogger{}
	}

	r, err := adif.NewReader(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read ADIF: %w", err)
	}
	if header, ok := r.Header(); ok {
		logger.Debug("adif header", "header", strings.TrimSpace(header))
	}

	var contacts []Contact
	for rec, err := range adif.Deserialize[N1MMRecord](r).All() {
		if err != nil {
			return contacts, fmt.Errorf("record %d: %w", len(contacts)+1, err)
		}
		c, err := FromN1MM(rec)
		if err != nil {
			return contacts, fmt.Errorf("record %d: %w", len(contacts)+1, err)
		}
		logger.Debug("decoded contact",
			"id", c.ID,
			"call", c.RecvCallsign,
			"band", c.Band,
			"mode", c.Mode,
			"timestamp", c.Timestamp,
		)
		contacts = append(contacts, c)
	}

	logger.Info("loaded contacts", "count", len(contacts))
	return contacts, nil
}
