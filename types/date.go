package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage layout for Date.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone. Effective dating,
// birthdays and renewal starts are all whole days, so comparisons on Date
// never depend on the caller's clock zone.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for Unmarshal/Scan.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a normalized Date (Feb 30 becomes Mar 1/2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date: parse %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error. Use for literals.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// Time returns midnight UTC at the start of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of d in UTC.
func (d Date) EndOfDay() time.Time {
	return d.Time().Add(24*time.Hour - time.Nanosecond)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// AddYears returns d shifted by n years. Feb 29 maps to Mar 1 in non-leap years.
func (d Date) AddYears(n int) Date { return DateOf(d.Time().AddDate(n, 0, 0)) }

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

// YearsUntil returns whole years from d until to, decremented when the
// anniversary of d has not yet occurred in to's year.
func (d Date) YearsUntil(to Date) int {
	years := to.Year - d.Year
	if to.Month < d.Month || (to.Month == d.Month && to.Day < d.Day) {
		years--
	}
	return years
}

// MonthsUntil returns calendar months from d until to by field subtraction
// of year and month. The day of month is not considered.
func (d Date) MonthsUntil(to Date) int {
	return (to.Year-d.Year)*12 + int(to.Month) - int(d.Month)
}

// DaysUntil returns the number of days from d until to.
func (d Date) DaysUntil(to Date) int {
	return int(to.Time().Sub(d.Time()).Hours() / 24)
}

// String returns the "YYYY-MM-DD" form. The zero Date is "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. The zero Date encodes as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. The zero Date stores NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = DateOf(v)
		return nil
	default:
		return fmt.Errorf("date: cannot scan %T into Date", src)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
