package recurrence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCreatedAt marks a repeat template with no creation timestamp.
var ErrMissingCreatedAt = errors.New("repeat template has no creation timestamp")

// DecodeError ties a decode failure to the record it came from.
type DecodeError struct {
	RecordID string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("record %s: %v", e.RecordID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder reads templates out of raw records using configured property names.
type Decoder struct {
	names PropertyNames
	loc   *time.Location
}

// NewDecoder returns a Decoder that places creation timestamps on the
// calendar of loc (nil means time.Local).
func NewDecoder(names PropertyNames, loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.Local
	}
	return &Decoder{names: names.WithDefaults(), loc: loc}
}

// Decode builds a Template from r. An unknown frequency is not an error; it
// yields FrequencyNone.
func (d *Decoder) Decode(r Record) (Template, error) {
	props := r.Properties
	t := Template{
		ID:               r.ID,
		Frequency:        ParseFrequency(selectName(props, d.names.RepeatFrequency)),
		RepeatEvery:      number(props, d.names.RepeatEvery),
		IsRepeatTemplate: checkbox(props, d.names.RepeatTemplate),
		Properties:       props,
	}

	for _, name := range multiSelectNames(props, d.names.WeeklyDays) {
		if wd, ok := ParseWeekday(name); ok {
			t.WeeklyDays = append(t.WeeklyDays, wd)
		}
	}
	for _, name := range multiSelectNames(props, d.names.MonthlyDates) {
		n, err := strconv.Atoi(strings.TrimSpace(name))
		if err != nil || n < 1 || n > 31 {
			continue
		}
		t.MonthlyDates = append(t.MonthlyDates, n)
	}

	created, ok := d.timestamp(props, d.names.CreatedAt)
	if !ok {
		created = r.CreatedTime
	}
	if created.IsZero() {
		return Template{}, &DecodeError{RecordID: r.ID, Err: ErrMissingCreatedAt}
	}
	t.CreatedAt = created
	t.CreatedOn = DateOf(created.In(d.loc))
	return t, nil
}

// DecodeAll decodes every record, collecting failures instead of stopping.
func (d *Decoder) DecodeAll(records []Record) ([]Template, []error) {
	templates := make([]Template, 0, len(records))
	var errs []error
	for _, r := range records {
		t, err := d.Decode(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		templates = append(templates, t)
	}
	return templates, errs
}

func property(props Properties, name string) map[string]any {
	if props == nil || name == "" {
		return nil
	}
	m, _ := props[name].(map[string]any)
	return m
}

func selectName(props Properties, name string) string {
	sel, _ := property(props, name)["select"].(map[string]any)
	s, _ := sel["name"].(string)
	return s
}

func multiSelectNames(props Properties, name string) []string {
	items, _ := property(props, name)["multi_select"].([]any)
	names := make([]string, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["name"].(string); ok {
			names = append(names, s)
		}
	}
	return names
}

func number(props Properties, name string) int {
	switch v := property(props, name)["number"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return int(f)
	}
	return 0
}

func checkbox(props Properties, name string) bool {
	b, _ := property(props, name)["checkbox"].(bool)
	return b
}

// timestamp reads a created_time value, or a date property's start. Bare
// dates are read on the decoder's calendar.
func (d *Decoder) timestamp(props Properties, name string) (time.Time, bool) {
	p := property(props, name)
	if p == nil {
		return time.Time{}, false
	}
	raw, _ := p["created_time"].(string)
	if raw == "" {
		date, _ := p["date"].(map[string]any)
		raw, _ = date["start"].(string)
	}
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(DateLayout, raw, d.loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
