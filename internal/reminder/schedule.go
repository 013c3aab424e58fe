package reminder

import (
	"fmt"
	"time"
)

// Offsets are the lead times before an assignment's due time at which
// reminders fire, largest first.
var Offsets = []time.Duration{
	time.Hour,
	45 * time.Minute,
	30 * time.Minute,
	15 * time.Minute,
}

// NearestOffset is the last chance to remind before an assignment is due.
const NearestOffset = 15 * time.Minute

// Times returns the absolute timestamps at which reminders for an
// assignment due at the given time should fire, largest offset first.
func Times(due time.Time) []time.Time {
	times := make([]time.Time, 0, len(Offsets))
	for _, offset := range Offsets {
		times = append(times, due.Add(-offset))
	}
	return times
}

// FormatTimeRemaining renders a duration the way it appears in a reminder
// message: "1 hour and 5 minutes", "45 minutes", "30 seconds".
func FormatTimeRemaining(remaining time.Duration) string {
	total := int(remaining.Seconds())

	switch {
	case total >= 3600:
		hours := total / 3600
		minutes := (total % 3600) / 60
		if minutes > 0 {
			return fmt.Sprintf("%s and %s", pluralize(hours, "hour"), pluralize(minutes, "minute"))
		}
		return pluralize(hours, "hour")
	case total >= 60:
		return pluralize(total/60, "minute")
	default:
		return pluralize(total, "second")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
