package reminder

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestLedger(t *testing.T) *GormLedger {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := db.AutoMigrate(&model.ReminderRecord{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	return NewLedger(db, log.New(io.Discard, "", 0))
}

func TestLedgerMarkAndCheck(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)

	due := time.Date(2025, 11, 10, 20, 0, 0, 0, time.UTC)
	reminderTime := due.Add(-15 * time.Minute)

	if ledger.IsFired("a1", reminderTime) {
		t.Fatal("fresh ledger should report not fired")
	}
	if err := ledger.MarkFired("a1", reminderTime, due); err != nil {
		t.Fatalf("mark fired: %v", err)
	}
	if !ledger.IsFired("a1", reminderTime) {
		t.Fatal("expected fired after mark")
	}

	// Different reminder time for the same assignment is independent.
	if ledger.IsFired("a1", due.Add(-30*time.Minute)) {
		t.Fatal("30-minute reminder should not be marked")
	}
	// Same reminder time for a different assignment is independent.
	if ledger.IsFired("a2", reminderTime) {
		t.Fatal("other assignment should not be marked")
	}
}

func TestLedgerMarkIsIdempotent(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)

	due := time.Date(2025, 11, 10, 20, 0, 0, 0, time.UTC)
	reminderTime := due.Add(-15 * time.Minute)

	for i := 0; i < 3; i++ {
		if err := ledger.MarkFired("a1", reminderTime, due); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	if !ledger.IsFired("a1", reminderTime) {
		t.Fatal("expected fired")
	}

	var record model.ReminderRecord
	if err := ledger.db.First(&record, "assignment_id = ?", "a1").Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	var sent []string
	if err := json.Unmarshal(record.RemindersSent, &sent); err != nil {
		t.Fatalf("decode reminders_sent: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected timestamp stored exactly once, got %v", sent)
	}
	if sent[0] != reminderTime.UTC().Format(time.RFC3339) {
		t.Fatalf("stored %q, want %q", sent[0], reminderTime.UTC().Format(time.RFC3339))
	}
	if record.DueTime == nil || !record.DueTime.Equal(due) {
		t.Fatalf("due time not recorded: %+v", record.DueTime)
	}
}

func TestLedgerSurvivesReopen(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)

	due := time.Date(2025, 11, 10, 20, 0, 0, 0, time.UTC)
	reminderTime := due.Add(-time.Hour)
	if err := ledger.MarkFired("a1", reminderTime, due); err != nil {
		t.Fatalf("mark fired: %v", err)
	}

	// A fresh ledger over the same database sees the record.
	reopened := NewLedger(ledger.db, log.New(io.Discard, "", 0))
	if !reopened.IsFired("a1", reminderTime) {
		t.Fatal("record lost across ledger instances")
	}
}

func TestLedgerCleanup(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)

	now := time.Now().UTC()

	oldDue := now.Add(-25 * time.Hour)
	if err := ledger.MarkFired("old", oldDue.Add(-15*time.Minute), oldDue); err != nil {
		t.Fatalf("mark old: %v", err)
	}
	recentDue := now.Add(-time.Hour)
	if err := ledger.MarkFired("recent", recentDue.Add(-15*time.Minute), recentDue); err != nil {
		t.Fatalf("mark recent: %v", err)
	}
	// Entry with no due time falls back to last_updated.
	stale := model.ReminderRecord{
		AssignmentID: "no-due",
		LastUpdated:  now.Add(-48 * time.Hour),
	}
	if err := ledger.db.Create(&stale).Error; err != nil {
		t.Fatalf("seed no-due record: %v", err)
	}

	removed, err := ledger.Cleanup(24 * time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}

	if ledger.IsFired("old", oldDue.Add(-15*time.Minute)) {
		t.Fatal("old entry should be gone")
	}
	if !ledger.IsFired("recent", recentDue.Add(-15*time.Minute)) {
		t.Fatal("recent entry should survive")
	}

	size, err := ledger.Size()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", size)
	}
}

func TestLedgerToleratesCorruptHistory(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)

	corrupt := model.ReminderRecord{
		AssignmentID:  "bad",
		RemindersSent: []byte("{not json"),
		LastUpdated:   time.Now().UTC(),
	}
	if err := ledger.db.Create(&corrupt).Error; err != nil {
		t.Fatalf("seed corrupt record: %v", err)
	}

	due := time.Now().UTC().Add(time.Hour)
	reminderTime := due.Add(-15 * time.Minute)
	if ledger.IsFired("bad", reminderTime) {
		t.Fatal("corrupt history should read as not fired")
	}
	if err := ledger.MarkFired("bad", reminderTime, due); err != nil {
		t.Fatalf("mark over corrupt history: %v", err)
	}
	if !ledger.IsFired("bad", reminderTime) {
		t.Fatal("expected fired after repair")
	}
}
