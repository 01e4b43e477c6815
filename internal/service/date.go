package service

import (
	"bytes"
	"encoding/json"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/query"
)

const dateLayout = "2006-01-02"

// Date is a calendar day, "2006-01-02" on the wire. RFC 3339 timestamps are
// accepted and truncated to their day.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date { return &Date{query.Day(t)} }

func ParseDate(s string) (*Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewDate(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t), nil
	}
	return nil, apperr.Validation("invalid date %q, expected YYYY-MM-DD", s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperr.Validation("invalid date %s", string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// Value returns the day as a UTC-midnight time; nil for a nil Date.
func (d *Date) Value() *time.Time {
	if d == nil {
		return nil
	}
	t := query.Day(d.Time)
	return &t
}
