package reminder

import "time"

const (
	// earlyAllowance tolerates scheduler jitter ahead of the nominal
	// reminder time; it is not a policy of firing early.
	earlyAllowance = time.Minute
	// lateWindow must exceed one tick period plus jitter so a reminder is
	// never dropped between two consecutive checks. Past it, the reminder
	// is permanently skipped.
	lateWindow = 3 * time.Minute
	// catchUpSlack bounds how far from the nominal reminder time the
	// catch-up rule may still fire.
	catchUpSlack = 2 * time.Minute
)

// ShouldSend reports whether the reminder scheduled at reminderTime for the
// given assignment is due to fire at now. It never fires the same
// (assignment, reminderTime) pair twice.
func ShouldSend(reminderTime, now time.Time, assignmentID string, dueTime time.Time, ledger Ledger) bool {
	delta := now.Sub(reminderTime)

	// An assignment discovered when it is already due in about 15 minutes
	// must fire its nearest reminder immediately instead of waiting out
	// the normal window alignment.
	untilDue := dueTime.Sub(now)
	if untilDue >= 14*time.Minute && untilDue <= 16*time.Minute &&
		dueTime.Sub(reminderTime) == NearestOffset &&
		delta.Abs() < catchUpSlack &&
		!ledger.IsFired(assignmentID, reminderTime) {
		return true
	}

	if delta < -earlyAllowance {
		return false // too early
	}
	if delta > lateWindow {
		return false // window missed, never retried
	}

	return !ledger.IsFired(assignmentID, reminderTime)
}
