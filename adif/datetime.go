package adif

import (
	"fmt"
	"time"
)

// Date is an ADIF date field (YYYYMMDD), decoded as midnight UTC.
type Date struct {
	time.Time
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	t, err := time.ParseInLocation("20060102", string(text), time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", text, err)
	}
	d.Time = t
	return nil
}

// At combines the date with a time of day.
func (d Date) At(t Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Time is an ADIF time field (HHMMSS or HHMM), decoded as a time of day on
// the zero date in UTC.
type Time struct {
	time.Time
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(text []byte) error {
	layout := "150405"
	if len(text) == 4 {
		layout = "1504"
	}
	parsed, err := time.ParseInLocation(layout, string(text), time.UTC)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", text, err)
	}
	t.Time = parsed
	return nil
}
