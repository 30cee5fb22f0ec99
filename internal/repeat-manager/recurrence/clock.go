package recurrence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DateLayout is the calendar date format used for "do" dates and API params.
const DateLayout = "2006-01-02"

// Weekday numbers the days of the week Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday maps an English weekday name (case-insensitive) to its number.
func ParseWeekday(name string) (Weekday, bool) {
	name = strings.TrimSpace(name)
	for i := Monday; i <= Sunday; i++ {
		if strings.EqualFold(weekdayNames[i], name) {
			return i, true
		}
	}
	return 0, false
}

// Date is a calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

// midnight anchors the date at 00:00 UTC so day arithmetic is exact.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() Weekday {
	wd := d.midnight().Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

func (d Date) DayOfMonth() int { return d.Day }

func (d Date) String() string { return d.midnight().Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Unit is the granularity of Difference.
type Unit int

const (
	Days Unit = iota
	Weeks
	Months
)

func (u Unit) String() string {
	switch u {
	case Days:
		return "days"
	case Weeks:
		return "weeks"
	case Months:
		return "months"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Difference counts whole units from a to b on the calendar. Days are
// calendar days, weeks are whole seven-day spans and months are the number
// of month boundaries crossed, so 01-31 to 02-01 is one month. The result
// is negative when b precedes a.
func Difference(a, b Date, unit Unit) int {
	switch unit {
	case Days:
		return dayDiff(a, b)
	case Weeks:
		return dayDiff(a, b) / 7
	case Months:
		bt, at := b.midnight(), a.midnight()
		return (bt.Year()-at.Year())*12 + int(bt.Month()) - int(at.Month())
	}
	return 0
}

func dayDiff(a, b Date) int {
	return int(b.midnight().Sub(a.midnight()) / (24 * time.Hour))
}

// Clock is the single source of "today" for evaluation.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock through clockwork and reports dates in a
// fixed location.
type SystemClock struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewClock returns a Clock over c in loc. Nil arguments fall back to the
// real clock and the process local zone.
func NewClock(c clockwork.Clock, loc *time.Location) *SystemClock {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &SystemClock{clock: c, loc: loc}
}

func (c *SystemClock) Now() time.Time { return c.clock.Now().In(c.loc) }

func (c *SystemClock) Today() Date { return DateOf(c.Now()) }

// FixedClock always reports the same date.
type FixedClock Date

func (f FixedClock) Today() Date { return Date(f) }
