package recurrence

import "time"

// Properties holds record property values keyed by property name, in the
// shape the record store returns them (e.g. {"select": {"name": "Weekly"}}).
type Properties map[string]any

// Record is a raw page as read from a record store.
type Record struct {
	ID          string
	Type        string
	CreatedTime time.Time
	Properties  Properties
}

// Template is a decoded repeat template.
type Template struct {
	ID               string
	CreatedAt        time.Time
	CreatedOn        Date // CreatedAt in the evaluation location
	Frequency        Frequency
	RepeatEvery      int
	WeeklyDays       []Weekday
	MonthlyDates     []int
	IsRepeatTemplate bool
	Properties       Properties
}

// interval is RepeatEvery with absent or non-positive values read as 1.
func (t Template) interval() int {
	if t.RepeatEvery < 1 {
		return 1
	}
	return t.RepeatEvery
}

// Instance is a creatable record built from a due template.
type Instance struct {
	TemplateID string
	DoDate     Date
	Properties Properties
}

// PropertyNames names the record properties the engine reads and writes.
// Stores disagree on naming, so these are configuration.
type PropertyNames struct {
	CreatedAt       string
	Created         string
	RepeatTemplate  string
	Status          string
	RepeatEvery     string
	RepeatFrequency string
	WeeklyDays      string
	MonthlyDates    string
	Repeating       string
	DoDate          string
	// Strip lists extra template-only properties to drop from instances.
	Strip []string
}

func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		CreatedAt:       "Created At",
		Created:         "Created",
		RepeatTemplate:  "Is Repeat Template",
		Status:          "Status",
		RepeatEvery:     "Repeat Every",
		RepeatFrequency: "Repeat Frequency",
		WeeklyDays:      "Repeat Days (Weekly)",
		MonthlyDates:    "Repeat Dates (Monthly)",
		Repeating:       "Repeating",
		DoDate:          "Do",
	}
}

// WithDefaults fills empty names from DefaultPropertyNames.
func (n PropertyNames) WithDefaults() PropertyNames {
	d := DefaultPropertyNames()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&n.CreatedAt, d.CreatedAt)
	fill(&n.Created, d.Created)
	fill(&n.RepeatTemplate, d.RepeatTemplate)
	fill(&n.Status, d.Status)
	fill(&n.RepeatEvery, d.RepeatEvery)
	fill(&n.RepeatFrequency, d.RepeatFrequency)
	fill(&n.WeeklyDays, d.WeeklyDays)
	fill(&n.MonthlyDates, d.MonthlyDates)
	fill(&n.Repeating, d.Repeating)
	fill(&n.DoDate, d.DoDate)
	return n
}
