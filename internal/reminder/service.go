package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
)

// ErrNoRecipient is returned when a cycle is requested without a recipient.
var ErrNoRecipient = errors.New("no recipient configured for reminders")

// AssignmentSource returns the assignments eligible for reminders in the
// current lookahead window.
type AssignmentSource interface {
	UpcomingAssignments(ctx context.Context) ([]model.Assignment, error)
}

// Notifier delivers a single reminder. A false result means delivery failed
// for ordinary reasons and may be retried on a later cycle; errors are
// reserved for configuration problems such as missing credentials.
type Notifier interface {
	SendReminder(ctx context.Context, recipientID string, assignment model.Assignment, timeRemaining string) (bool, error)
}

// Service runs the per-tick reminder cycle: fetch candidates, decide which
// reminders are due, deliver them, and record confirmed deliveries.
type Service struct {
	source    AssignmentSource
	notifier  Notifier
	ledger    Ledger
	retention time.Duration
	logger    *log.Logger
}

// NewService wires the cycle orchestrator.
func NewService(source AssignmentSource, notifier Notifier, ledger Ledger, retention time.Duration, logger *log.Logger) *Service {
	return &Service{
		source:    source,
		notifier:  notifier,
		ledger:    ledger,
		retention: retention,
		logger:    logger,
	}
}

// RunCycle executes one reminder check for the recipient and returns how many
// notifications were sent. A fetch failure aborts the whole cycle; failures
// on individual assignments are logged and skipped.
func (s *Service) RunCycle(ctx context.Context, recipientID string, now time.Time) (int, error) {
	return s.RunCycleWithExtra(ctx, recipientID, now, nil)
}

// RunCycleWithExtra runs a cycle with additional synthetic assignments
// appended to the fetched list. The test endpoints use it to exercise the
// scheduling path end to end.
func (s *Service) RunCycleWithExtra(ctx context.Context, recipientID string, now time.Time, extra []model.Assignment) (int, error) {
	if recipientID == "" {
		return 0, ErrNoRecipient
	}

	assignments, err := s.source.UpcomingAssignments(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch assignments: %w", err)
	}
	assignments = append(assignments, extra...)

	s.logger.Printf("cycle: checking %d assignment(s) at %s", len(assignments), now.UTC().Format(time.RFC3339))

	sent := 0
	var cycleErr error
	for _, assignment := range assignments {
		n, err := s.processAssignment(ctx, recipientID, now, assignment)
		sent += n
		if err != nil {
			if isConfigError(err) {
				return sent, err
			}
			s.logger.Printf("cycle: assignment %s: %v", assignment.ID, err)
			cycleErr = errors.Join(cycleErr, err)
		}
	}

	s.logger.Printf("cycle: sent %d reminder(s)", sent)

	// Prune occasionally rather than every tick: after a cycle that sent
	// something, or on the hour.
	if sent > 0 || now.Minute() == 0 {
		removed, err := s.ledger.Cleanup(s.retention)
		if err != nil {
			s.logger.Printf("cycle: cleanup: %v", err)
		} else if removed > 0 {
			s.logger.Printf("cycle: cleaned up %d old ledger entr(ies)", removed)
		}
	}

	return sent, cycleErr
}

func (s *Service) processAssignment(ctx context.Context, recipientID string, now time.Time, assignment model.Assignment) (int, error) {
	id := assignment.ID.String()
	if id == "" || assignment.DueAt == nil {
		return 0, nil // not schedulable, silently excluded
	}

	due := assignment.DueAt.UTC()
	if due.Before(now) {
		return 0, nil // no retroactive reminders
	}

	sent := 0
	for _, reminderTime := range Times(due) {
		if !ShouldSend(reminderTime, now, id, due, s.ledger) {
			continue
		}

		remaining := FormatTimeRemaining(due.Sub(now))
		delivered, err := s.notifier.SendReminder(ctx, recipientID, assignment, remaining)
		if err != nil {
			return sent, fmt.Errorf("notifier: %w", configError{err})
		}
		if !delivered {
			// Not recorded; the next tick retries until the late
			// window closes.
			s.logger.Printf("cycle: delivery failed for %q (%s remaining)", assignment.Name, remaining)
			continue
		}

		if err := s.ledger.MarkFired(id, reminderTime, due); err != nil {
			// The message went out but the dedup record did not
			// persist; surface it instead of claiming success.
			return sent, err
		}
		sent++
		s.logger.Printf("cycle: sent reminder for %q, %s remaining", assignment.Name, remaining)
	}
	return sent, nil
}

// TestAssignment returns a synthetic assignment due shortly after now. With
// the default 14 minutes the nearest reminder is one minute in the past,
// which the catch-up rule fires immediately.
func TestAssignment(now time.Time, dueIn time.Duration) model.Assignment {
	due := now.Add(dueIn).UTC()
	return model.Assignment{
		ID:          "test_assignment_001",
		Name:        "🧪 TEST Assignment - Please Ignore",
		DueAt:       &due,
		CourseName:  "Test Course",
		Description: "This is a test assignment created to test the reminder system. You can safely ignore it.",
	}
}

type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func isConfigError(err error) bool {
	var ce configError
	return errors.As(err, &ce)
}
