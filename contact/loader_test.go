package contact

import (
	"fmt"
	"testing"

	"github.com/radiolabme/hamlog/adif"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.messages = append(l.messages, "DEBUG "+msg)
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.messages = append(l.messages, fmt.Sprintf("INFO %s %v", msg, args))
}

func TestLoader_Load(t *testing.T) {
	input := "N1MM+ export\n<ADIF_VER:5>3.1.0\n<EOH>\n" +
		n1mmRecord(nil) +
		n1mmRecord(map[string]string{"CALL": "DL1XYZ", "APP_N1MM_ID": ""})

	logger := &recordingLogger{}
	loader := &Loader{Logger: logger}
	contacts, err := loader.Load(input)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	require.Equal(t, "K1ABC", contacts[0].RecvCallsign)
	require.Equal(t, "DL1XYZ", contacts[1].RecvCallsign)

	require.Equal(t, []string{
		"DEBUG adif header",
		"DEBUG decoded contact",
		"DEBUG decoded contact",
		"INFO loaded contacts [count 2]",
	}, logger.messages)
}

func TestLoader_StopsAtFirstError(t *testing.T) {
	input := n1mmRecord(nil) +
		n1mmRecord(map[string]string{"CQZ": "five"}) +
		n1mmRecord(nil)

	contacts, err := (&Loader{}).Load(input)
	require.Len(t, contacts, 1)
	var parseErr *adif.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, err.Error(), "record 2")
}

func TestLoader_NoHeaderMarker(t *testing.T) {
	_, err := (&Loader{}).Load("not an adif file")
	require.ErrorIs(t, err, adif.ErrNoData)
}

func TestLoader_Empty(t *testing.T) {
	contacts, err := (&Loader{}).Load("")
	require.NoError(t, err)
	require.Empty(t, contacts)
}
