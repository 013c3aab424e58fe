package reminder

import (
	"testing"
	"time"
)

func TestTimes(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 11, 10, 20, 0, 0, 0, time.UTC)
	got := Times(due)
	if len(got) != 4 {
		t.Fatalf("expected 4 reminder times, got %d", len(got))
	}

	want := map[string]bool{
		"2025-11-10T19:00:00Z": false,
		"2025-11-10T19:15:00Z": false,
		"2025-11-10T19:30:00Z": false,
		"2025-11-10T19:45:00Z": false,
	}
	for _, rt := range got {
		key := rt.UTC().Format(time.RFC3339)
		seen, ok := want[key]
		if !ok {
			t.Fatalf("unexpected reminder time %s", key)
		}
		if seen {
			t.Fatalf("duplicate reminder time %s", key)
		}
		want[key] = true
	}

	// Largest offset first.
	if !got[0].Equal(due.Add(-time.Hour)) {
		t.Fatalf("first reminder should be 1 hour before due, got %s", got[0])
	}
	if !got[3].Equal(due.Add(-15 * time.Minute)) {
		t.Fatalf("last reminder should be 15 minutes before due, got %s", got[3])
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		65 * time.Minute:           "1 hour and 5 minutes",
		time.Hour:                  "1 hour",
		2*time.Hour + time.Minute:  "2 hours and 1 minute",
		3 * time.Hour:              "3 hours",
		45 * time.Minute:           "45 minutes",
		time.Minute:                "1 minute",
		45 * time.Second:           "45 seconds",
		time.Second:                "1 second",
		0:                          "0 seconds",
		90 * time.Second:           "1 minute",
		time.Hour + 59*time.Minute: "1 hour and 59 minutes",
	}

	for input, want := range cases {
		if got := FormatTimeRemaining(input); got != want {
			t.Errorf("FormatTimeRemaining(%s) = %q, want %q", input, got, want)
		}
	}
}
