package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger records which reminders have already been delivered so that no
// (assignment, reminder time) pair ever fires twice, across restarts included.
type Ledger interface {
	IsFired(assignmentID string, reminderTime time.Time) bool
	MarkFired(assignmentID string, reminderTime, dueTime time.Time) error
	Cleanup(retention time.Duration) (int64, error)
}

// GormLedger is the database-backed Ledger. Writes are synchronous: MarkFired
// does not return until the record is durable, so a crash right after a send
// cannot lose the dedup record.
type GormLedger struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewLedger creates a ledger on top of an initialised database connection.
func NewLedger(db *gorm.DB, logger *log.Logger) *GormLedger {
	return &GormLedger{db: db, logger: logger}
}

// IsFired reports whether the exact reminder timestamp has been recorded for
// the assignment. Unreadable entries count as not fired.
func (l *GormLedger) IsFired(assignmentID string, reminderTime time.Time) bool {
	var record model.ReminderRecord
	err := l.db.First(&record, "assignment_id = ?", assignmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if err != nil {
		l.logger.Printf("ledger: read %s: %v", assignmentID, err)
		return false
	}

	key := timestampKey(reminderTime)
	for _, sent := range decodeSent(record.RemindersSent, l.logger) {
		if sent == key {
			return true
		}
	}
	return false
}

// MarkFired appends the reminder timestamp to the assignment's entry,
// creating the entry if needed. Idempotent: marking the same timestamp twice
// stores it once. A save failure is returned so the caller knows the
// duplicate-prevention record did not persist.
func (l *GormLedger) MarkFired(assignmentID string, reminderTime, dueTime time.Time) error {
	key := timestampKey(reminderTime)

	var record model.ReminderRecord
	err := l.db.First(&record, "assignment_id = ?", assignmentID).Error
	create := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !create {
		return fmt.Errorf("ledger: load %s: %w", assignmentID, err)
	}
	if create {
		record = model.ReminderRecord{AssignmentID: assignmentID}
	}

	sent := decodeSent(record.RemindersSent, l.logger)
	found := false
	for _, s := range sent {
		if s == key {
			found = true
			break
		}
	}
	if !found {
		sent = append(sent, key)
	}

	encoded, err := json.Marshal(sent)
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", assignmentID, err)
	}
	record.RemindersSent = datatypes.JSON(encoded)
	due := dueTime.UTC()
	record.DueTime = &due
	record.LastUpdated = time.Now().UTC()

	if create {
		err = l.db.Create(&record).Error
	} else {
		err = l.db.Save(&record).Error
	}
	if err != nil {
		return fmt.Errorf("ledger: persist %s: %w", assignmentID, err)
	}
	return nil
}

// Cleanup removes entries for assignments whose due time (or, when the due
// time is missing, last update) is older than the retention window. It
// returns the number of removed entries.
func (l *GormLedger) Cleanup(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result := l.db.
		Where("(due_time IS NOT NULL AND due_time < ?) OR (due_time IS NULL AND last_updated < ?)", cutoff, cutoff).
		Delete(&model.ReminderRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("ledger: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Size returns the number of tracked assignments.
func (l *GormLedger) Size() (int64, error) {
	var count int64
	if err := l.db.Model(&model.ReminderRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func timestampKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeSent(raw datatypes.JSON, logger *log.Logger) []string {
	if len(raw) == 0 {
		return nil
	}
	var sent []string
	if err := json.Unmarshal(raw, &sent); err != nil {
		// Corrupt history degrades to empty rather than failing the cycle.
		logger.Printf("ledger: corrupt reminders_sent %q: %v", raw, err)
		return nil
	}
	return sent
}
