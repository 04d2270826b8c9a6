// Package contact maps ADIF exports from the N1MM+ contest logger to
// contact values.
package contact

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/radiolabme/hamlog/adif"
)

// N1MMRecord is one record of an N1MM+ ADIF export. String fields are
// substrings of the decoded input.
type N1MMRecord struct {
	Call    string    `adif:"call,required"`
	QSODate adif.Date `adif:"qso_date,required"`
	TimeOn  adif.Time `adif:"time_on,required"`
	TimeOff adif.Time `adif:"time_off,required"`

	FreqTX float64 `adif:"freq,required"` // MHz
	FreqRX float64 `adif:"freq_rx,required"`

	Section         *string `adif:"section"`
	Band            string  `adif:"band,required"`
	StationCallsign string  `adif:"station_callsign,required"`
	ContestID       *string `adif:"contest_id"`
	Mode            string  `adif:"mode,required"`

	// Signal reports are kept verbatim.
	RSTSent string `adif:"rst_sent,required"`
	RSTRcvd string `adif:"rst_rcvd,required"`

	CQZone   uint8   `adif:"cqz,required"`
	Prefix   *string `adif:"pfx"`
	SerialTX uint32  `adif:"stx,required"`
	Operator *string `adif:"operator"`

	IsRunQSO     bool    `adif:"app_n1mm_isrunqso,required"`
	IsClaimedQSO bool    `adif:"app_n1mm_claimedqso,required"`
	Points       int32   `adif:"app_n1mm_points,required"`
	IsMult1      bool    `adif:"app_n1mm_mult1,required"`
	IsMult2      bool    `adif:"app_n1mm_mult2,required"`
	IsMult3      bool    `adif:"app_n1mm_mult3,required"`
	Exchange1    *string `adif:"app_n1mm_exchange1"`
	MiscText     *string `adif:"app_n1mm_misctext"`
	Continent    string  `adif:"app_n1mm_continent,required"`
	RadioNumber  int32   `adif:"app_n1mm_radio_nr,required"`
	NetBIOSName  string  `adif:"app_n1mm_netbiosname,required"`
	ID           string  `adif:"app_n1mm_id"`
}

// Contact is a logged contact. Unlike N1MMRecord it owns its strings.
type Contact struct {
	ID string

	RecvCallsign string
	SentCallsign string

	RecvSignalReport string
	SentSignalReport string

	Timestamp time.Time

	Mode string
	Band string
	// Frequencies in Hz.
	FreqRX int64
	FreqTX int64

	Exchange1 *string
	Section   *string
	PrefixWPX *string
	CQZone    int16

	Operator    *string
	ContestName *string

	IsMult1 bool
	IsMult2 bool
	IsMult3 bool

	IsRunQSO     bool
	IsClaimedQSO bool
	Points       int32
}

// ErrTimeMismatch is returned for records whose start and end times differ.
// N1MM+ logs contacts as instants.
var ErrTimeMismatch = errors.New("time_on differs from time_off")

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/radiolabme/hamlog/contact"))

// FromN1MM converts an N1MM+ record into a Contact. Records without an
// N1MM+ ID get a stable name-based UUID derived from the contact itself.
func FromN1MM(rec N1MMRecord) (Contact, error) {
	if !rec.TimeOn.Equal(rec.TimeOff.Time) {
		return Contact{}, fmt.Errorf("contact with %s: %w", rec.Call, ErrTimeMismatch)
	}

	c := Contact{
		RecvCallsign:     strings.Clone(rec.Call),
		SentCallsign:     strings.Clone(rec.StationCallsign),
		RecvSignalReport: strings.Clone(rec.RSTRcvd),
		SentSignalReport: strings.Clone(rec.RSTSent),
		Timestamp:        rec.QSODate.At(rec.TimeOn),
		Mode:             strings.Clone(rec.Mode),
		Band:             strings.Clone(rec.Band),
		FreqRX:           megahertzToHertz(rec.FreqRX),
		FreqTX:           megahertzToHertz(rec.FreqTX),
		Exchange1:        cloneOptional(rec.Exchange1),
		Section:          cloneOptional(rec.Section),
		PrefixWPX:        cloneOptional(rec.Prefix),
		CQZone:           int16(rec.CQZone),
		Operator:         cloneOptional(rec.Operator),
		ContestName:      cloneOptional(rec.ContestID),
		IsMult1:          rec.IsMult1,
		IsMult2:          rec.IsMult2,
		IsMult3:          rec.IsMult3,
		IsRunQSO:         rec.IsRunQSO,
		IsClaimedQSO:     rec.IsClaimedQSO,
		Points:           rec.Points,
	}

	if rec.ID != "" {
		c.ID = strings.Clone(rec.ID)
	} else {
		c.ID = c.derivedID()
	}
	return c, nil
}

// derivedID names the contact by who, when and where.
func (c *Contact) derivedID() string {
	name := strings.Join([]string{
		c.SentCallsign,
		c.RecvCallsign,
		c.Timestamp.UTC().Format(time.RFC3339),
		strconv.FormatInt(c.FreqTX, 10),
		c.Mode,
	}, "|")
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

func megahertzToHertz(mhz float64) int64 {
	return int64(math.Round(mhz * 1e6))
}

func cloneOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.Clone(*s)
	return &v
}
