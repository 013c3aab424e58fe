package model

import (
	"time"

	"gorm.io/datatypes"
)

// ReminderRecord is the durable ledger entry for one assignment. RemindersSent
// holds the RFC 3339 timestamps of every reminder already delivered for it.
type ReminderRecord struct {
	AssignmentID  string         `gorm:"primaryKey" json:"assignment_id"`
	RemindersSent datatypes.JSON `json:"reminders_sent"`
	DueTime       *time.Time     `json:"due_time"`
	LastUpdated   time.Time      `json:"last_updated"`
}
