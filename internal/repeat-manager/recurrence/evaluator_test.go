package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDue(t *testing.T) {
	testCases := []struct {
		name     string
		template Template
		today    string
		want     bool
	}{
		// Daily
		{"daily on creation day", Template{Frequency: Daily, RepeatEvery: 3}, "2024-01-01", true},
		{"daily every 3 on day 3", Template{Frequency: Daily, RepeatEvery: 3}, "2024-01-04", true},
		{"daily every 3 on day 4", Template{Frequency: Daily, RepeatEvery: 3}, "2024-01-05", false},
		{"daily repeat every zero reads as one", Template{Frequency: Daily}, "2024-01-05", true},
		{"daily negative repeat every reads as one", Template{Frequency: Daily, RepeatEvery: -2}, "2024-01-05", true},

		// Weekly, fallback to creation weekday (2024-01-01 is a Monday)
		{"weekly same weekday next week", Template{Frequency: Weekly, RepeatEvery: 1}, "2024-01-08", true},
		{"weekly other weekday", Template{Frequency: Weekly, RepeatEvery: 1}, "2024-01-09", false},
		{"weekly every 2 on odd week", Template{Frequency: Weekly, RepeatEvery: 2}, "2024-01-08", false},
		{"weekly every 2 on even week", Template{Frequency: Weekly, RepeatEvery: 2}, "2024-01-15", true},

		// Weekly with explicit days
		{"weekly explicit monday", Template{Frequency: Weekly, WeeklyDays: []Weekday{Monday, Wednesday}}, "2024-01-15", true},
		{"weekly explicit wednesday", Template{Frequency: Weekly, WeeklyDays: []Weekday{Monday, Wednesday}}, "2024-01-17", true},
		{"weekly explicit tuesday", Template{Frequency: Weekly, WeeklyDays: []Weekday{Monday, Wednesday}}, "2024-01-16", false},
		{"weekly explicit day in gated week", Template{Frequency: Weekly, RepeatEvery: 2, WeeklyDays: []Weekday{Wednesday}}, "2024-01-10", false},

		// Monthly, fallback to creation day-of-month
		{"monthly same date next month", Template{Frequency: Monthly}, "2024-02-01", true},
		{"monthly other date", Template{Frequency: Monthly}, "2024-02-02", false},
		{"monthly every 3 gated", Template{Frequency: Monthly, RepeatEvery: 3}, "2024-03-01", false},
		{"monthly every 3 passes", Template{Frequency: Monthly, RepeatEvery: 3}, "2024-04-01", true},

		// Monthly with explicit dates
		{"monthly explicit date", Template{Frequency: Monthly, MonthlyDates: []int{10, 20}}, "2024-01-20", true},
		{"monthly explicit miss", Template{Frequency: Monthly, MonthlyDates: []int{10, 20}}, "2024-01-21", false},
		{"monthly 31 never clamps into 30-day month", Template{Frequency: Monthly, MonthlyDates: []int{31}}, "2024-04-30", false},

		// Not recurrence sources
		{"no frequency", Template{Frequency: FrequencyNone}, "2024-01-01", false},
		{"unknown frequency value", Template{Frequency: Frequency(42)}, "2024-01-01", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := tc.template
			tmpl.CreatedOn = mustDate(t, "2024-01-01")
			assert.Equal(t, tc.want, IsDue(tmpl, mustDate(t, tc.today)))
		})
	}
}

func TestIsDue_WeeklyFallbackScenario(t *testing.T) {
	// 2024-03-01 and 2024-03-08 are both Fridays.
	tmpl := Template{CreatedOn: mustDate(t, "2024-03-01"), Frequency: Weekly, RepeatEvery: 1}
	assert.True(t, IsDue(tmpl, mustDate(t, "2024-03-08")))
	assert.False(t, IsDue(tmpl, mustDate(t, "2024-03-09")))
}

func TestIsDue_MonthlyIntervalGateWinsOverDateMatch(t *testing.T) {
	tmpl := Template{
		CreatedOn:    mustDate(t, "2024-01-15"),
		Frequency:    Monthly,
		RepeatEvery:  2,
		MonthlyDates: []int{1, 15},
	}
	assert.False(t, IsDue(tmpl, mustDate(t, "2024-02-15")), "one month elapsed is not divisible by 2")
	assert.True(t, IsDue(tmpl, mustDate(t, "2024-03-01")))
	assert.True(t, IsDue(tmpl, mustDate(t, "2024-03-15")))
}

func TestIsDue_MonthlyFallbackOnlyOnCreationDay(t *testing.T) {
	tmpl := Template{CreatedOn: mustDate(t, "2024-01-31"), Frequency: Monthly}
	assert.True(t, IsDue(tmpl, mustDate(t, "2024-03-31")))
	assert.False(t, IsDue(tmpl, mustDate(t, "2024-02-29")))
	assert.False(t, IsDue(tmpl, mustDate(t, "2024-04-30")))
}

func TestIsDue_MissingCreationDateIsNeverDue(t *testing.T) {
	tmpl := Template{Frequency: Daily, RepeatEvery: 1}
	assert.False(t, IsDue(tmpl, mustDate(t, "2024-01-01")))
}
