// Package jsontime provides time types with wire-friendly encodings.
package jsontime

import (
	"encoding/json"
	"time"
)

// Milli is a time.Time that encodes as Unix milliseconds in JSON.
// It is the timestamp format used on every wire message.
type Milli time.Time

// NowMilli returns the current time as Milli.
func NowMilli() Milli {
	return Milli(time.Now())
}

// FromTime converts a time.Time to Milli.
func FromTime(t time.Time) Milli {
	return Milli(t)
}

// Time returns the underlying time.Time value.
func (m Milli) Time() time.Time {
	return time.Time(m)
}

// IsZero reports whether m is the zero instant.
func (m Milli) IsZero() bool {
	return time.Time(m).IsZero()
}

// Equal reports whether m and t are the same instant.
func (m Milli) Equal(t Milli) bool {
	return time.Time(m).Equal(time.Time(t))
}

// Before reports whether m is before t.
func (m Milli) Before(t Milli) bool {
	return time.Time(m).Before(time.Time(t))
}

// After reports whether m is after t.
func (m Milli) After(t Milli) bool {
	return time.Time(m).After(time.Time(t))
}

// Sub returns the duration m-t.
func (m Milli) Sub(t Milli) time.Duration {
	return time.Time(m).Sub(time.Time(t))
}

// Add returns the instant m+d.
func (m Milli) Add(d time.Duration) Milli {
	return Milli(time.Time(m).Add(d))
}

func (m Milli) String() string {
	return time.Time(m).String()
}

// MarshalJSON implements json.Marshaler.
func (m Milli) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(m).UnixMilli())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Milli) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*m = Milli(time.UnixMilli(ms))
	return nil
}
