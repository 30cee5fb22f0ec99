package recurrence

import "slices"

// IsDue reports whether today is an occurrence of t.
//
// The interval gate (units since creation divisible by RepeatEvery) and the
// day-set check are independent and both must pass. Templates without a
// creation date are never due.
func IsDue(t Template, today Date) bool {
	if t.CreatedOn.IsZero() {
		return false
	}
	every := t.interval()

	switch t.Frequency {
	case Daily:
		return Difference(t.CreatedOn, today, Days)%every == 0
	case Weekly:
		if Difference(t.CreatedOn, today, Weeks)%every != 0 {
			return false
		}
		return slices.Contains(effectiveWeekdays(t), today.Weekday())
	case Monthly:
		if Difference(t.CreatedOn, today, Months)%every != 0 {
			return false
		}
		// No clamping: a 31 never matches a 30-day month.
		return slices.Contains(effectiveDates(t), today.DayOfMonth())
	case FrequencyNone:
		return false
	}
	return false
}

func effectiveWeekdays(t Template) []Weekday {
	if len(t.WeeklyDays) > 0 {
		return t.WeeklyDays
	}
	return []Weekday{t.CreatedOn.Weekday()}
}

func effectiveDates(t Template) []int {
	if len(t.MonthlyDates) > 0 {
		return t.MonthlyDates
	}
	return []int{t.CreatedOn.DayOfMonth()}
}
