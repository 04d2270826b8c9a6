package contact

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/radiolabme/hamlog/adif"
	"github.com/stretchr/testify/require"
)

func field(name, value string) string {
	return fmt.Sprintf("<%s:%d>%s ", name, len(value), value)
}

// n1mmRecord builds an N1MM+ record, replacing or removing (empty value)
// the given fields.
func n1mmRecord(overrides map[string]string) string {
	fields := [][2]string{
		{"CALL", "K1ABC"},
		{"QSO_DATE", "20240115"},
		{"TIME_ON", "143000"},
		{"TIME_OFF", "143000"},
		{"FREQ", "14.0255"},
		{"FREQ_RX", "14.0255"},
		{"BAND", "20M"},
		{"STATION_CALLSIGN", "W1AW"},
		{"CONTEST_ID", "CQ-WPX-CW"},
		{"MODE", "CW"},
		{"RST_SENT", "599"},
		{"RST_RCVD", "579"},
		{"CQZ", "5"},
		{"PFX", "K1"},
		{"STX", "42"},
		{"OPERATOR", "W1AW"},
		{"APP_N1MM_ISRUNQSO", "1"},
		{"APP_N1MM_CLAIMEDQSO", "1"},
		{"APP_N1MM_POINTS", "3"},
		{"APP_N1MM_MULT1", "1"},
		{"APP_N1MM_MULT2", "0"},
		{"APP_N1MM_MULT3", "0"},
		{"APP_N1MM_EXCHANGE1", "001"},
		{"APP_N1MM_CONTINENT", "NA"},
		{"APP_N1MM_RADIO_NR", "1"},
		{"APP_N1MM_NETBIOSNAME", "SHACK-PC"},
		{"APP_N1MM_ID", "6d5a1e0c8f6b4c7e9b1f2a3c4d5e6f70"},
	}
	var b strings.Builder
	for _, f := range fields {
		value := f[1]
		if v, ok := overrides[f[0]]; ok {
			if v == "" {
				continue
			}
			value = v
		}
		b.WriteString(field(f[0], value))
	}
	b.WriteString("<EOR>\n")
	return b.String()
}

func decodeN1MM(t *testing.T, record string) N1MMRecord {
	t.Helper()
	var rec N1MMRecord
	require.NoError(t, adif.Unmarshal(record, &rec))
	return rec
}

func TestFromN1MM(t *testing.T) {
	c, err := FromN1MM(decodeN1MM(t, n1mmRecord(nil)))
	require.NoError(t, err)

	require.Equal(t, "6d5a1e0c8f6b4c7e9b1f2a3c4d5e6f70", c.ID)
	require.Equal(t, "K1ABC", c.RecvCallsign)
	require.Equal(t, "W1AW", c.SentCallsign)
	require.Equal(t, "579", c.RecvSignalReport)
	require.Equal(t, "599", c.SentSignalReport)
	require.Equal(t, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), c.Timestamp)
	require.Equal(t, int64(14025500), c.FreqTX)
	require.Equal(t, int64(14025500), c.FreqRX)
	require.Equal(t, "CW", c.Mode)
	require.Equal(t, "20M", c.Band)
	require.Equal(t, int16(5), c.CQZone)
	require.Equal(t, "CQ-WPX-CW", *c.ContestName)
	require.Equal(t, "001", *c.Exchange1)
	require.Nil(t, c.Section)
	require.True(t, c.IsRunQSO)
	require.True(t, c.IsMult1)
	require.False(t, c.IsMult2)
	require.Equal(t, int32(3), c.Points)
}

func TestFromN1MM_TimeMismatch(t *testing.T) {
	rec := decodeN1MM(t, n1mmRecord(map[string]string{"TIME_OFF": "143100"}))
	_, err := FromN1MM(rec)
	require.ErrorIs(t, err, ErrTimeMismatch)
}

func TestFromN1MM_DerivedID(t *testing.T) {
	rec := decodeN1MM(t, n1mmRecord(map[string]string{"APP_N1MM_ID": ""}))

	a, err := FromN1MM(rec)
	require.NoError(t, err)
	b, err := FromN1MM(rec)
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)

	id, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(5), id.Version())

	other := decodeN1MM(t, n1mmRecord(map[string]string{"APP_N1MM_ID": "", "CALL": "K1XYZ"}))
	c, err := FromN1MM(other)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, c.ID)
}

func TestFromN1MM_OwnsStrings(t *testing.T) {
	rec := decodeN1MM(t, n1mmRecord(nil))
	c, err := FromN1MM(rec)
	require.NoError(t, err)
	require.Equal(t, rec.Call, c.RecvCallsign)
	require.False(t, unsafe.StringData(rec.Call) == unsafe.StringData(c.RecvCallsign))
}

func TestN1MMRecord_MissingRequiredField(t *testing.T) {
	var rec N1MMRecord
	err := adif.Unmarshal(n1mmRecord(map[string]string{"BAND": ""}), &rec)
	var custom *adif.CustomError
	require.ErrorAs(t, err, &custom)
	require.Contains(t, custom.Msg, "band")
}
