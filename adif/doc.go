// Package adif decodes ADIF (Amateur Data Interchange Format) logs.
//
// An ADIF document is an optional free-text header terminated by <eoh>,
// followed by records. Each record is a run of fields terminated by <eor>,
// and each field is a specifier giving its name, payload length and an
// optional type indicator, followed by exactly that many bytes:
//
//	Generated by N1MM+ <ADIF_VER:5>3.1.0 <EOH>
//	<CALL:4>W1AW <QSO_DATE:8>20240115 <TIME_ON:6>143000 <MODE:3>SSB <EOR>
//
// Records are decoded lazily into caller-defined types:
//
//	type QSO struct {
//	    Call string    `adif:"call,required"`
//	    Date adif.Date `adif:"qso_date"`
//	    Mode string    `adif:"mode"`
//	}
//
//	r, err := adif.NewReader(input)
//	if err != nil {
//	    return err
//	}
//	for qso, err := range adif.Deserialize[QSO](r).All() {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// Types needing full control implement Unmarshaler and drive the
// RecordDecoder themselves.
//
// # Memory
//
// Decoded strings are substrings of the input and are never copied, so
// they keep the whole input alive. Callers holding on to a few fields of a
// large log should copy them with strings.Clone.
package adif
