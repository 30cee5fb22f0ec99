package recurrence

import "strings"

// Frequency is the repetition unit of a template. FrequencyNone marks a
// record that is not a recurrence source.
type Frequency int

const (
	FrequencyNone Frequency = iota
	Daily
	Weekly
	Monthly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	}
	return "None"
}

// ParseFrequency maps a select option name to a Frequency. Unknown or empty
// names yield FrequencyNone.
func ParseFrequency(name string) Frequency {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "daily":
		return Daily
	case "weekly":
		return Weekly
	case "monthly":
		return Monthly
	}
	return FrequencyNone
}
