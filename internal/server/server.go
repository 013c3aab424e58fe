package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/johncourpayton/hackCC/internal/model"
)

// AssignmentSource is the Canvas-facing surface the API needs.
type AssignmentSource interface {
	UpcomingAssignments(ctx context.Context) ([]model.Assignment, error)
	UpdateCredentials(domain, token string)
	Configured() bool
}

// CycleRunner runs reminder cycles on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context, recipientID string, now time.Time) (int, error)
	RunCycleWithExtra(ctx context.Context, recipientID string, now time.Time, extra []model.Assignment) (int, error)
}

// Notifier sends a single reminder, used by the test endpoints.
type Notifier interface {
	SendReminder(ctx context.Context, recipientID string, assignment model.Assignment, timeRemaining string) (bool, error)
}

// Planner generates study plans.
type Planner interface {
	WeeklyPlan(ctx context.Context, assignments []model.Assignment) (string, error)
}

// LedgerStats exposes read-only ledger information for the status endpoints.
type LedgerStats interface {
	Size() (int64, error)
}

// Server is the HTTP API around the reminder service. It also owns the
// runtime-mutable settings (scheduled recipient, Canvas credentials) so no
// package-level state exists.
type Server struct {
	source   AssignmentSource
	cycles   CycleRunner
	notifier Notifier
	planner  Planner
	ledger   LedgerStats
	logger   *log.Logger

	mu               sync.RWMutex
	scheduledUserID  string
	schedulerRunning bool
}

// New wires the HTTP API.
func New(source AssignmentSource, cycles CycleRunner, notifier Notifier, planner Planner, ledger LedgerStats, logger *log.Logger) *Server {
	return &Server{
		source:   source,
		cycles:   cycles,
		notifier: notifier,
		planner:  planner,
		ledger:   ledger,
		logger:   logger,
	}
}

// SetScheduledRecipient sets the user that scheduled cycles deliver to.
func (s *Server) SetScheduledRecipient(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduledUserID = userID
}

// ScheduledRecipient returns the user scheduled cycles deliver to, or "".
func (s *Server) ScheduledRecipient() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduledUserID
}

// MarkSchedulerRunning records whether the cron scheduler has been started.
func (s *Server) MarkSchedulerRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedulerRunning = running
}

func (s *Server) schedulerStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedulerRunning
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)

	router.GET("/reminders/status", s.handleStatus)
	router.POST("/reminders/set-user", s.handleSetUser)
	router.POST("/reminders/force-check", s.handleForceCheck)
	router.POST("/reminders/test", s.handleTest)
	router.POST("/reminders/test-now", s.handleTestNow)
	router.GET("/reminders/debug", s.handleDebug)
	router.POST("/reminders/debug", s.handleDebug)

	router.POST("/api/settings", s.handleSettings)
	router.GET("/api/assignments", s.handleAssignments)
	router.POST("/api/study-plan", s.handleStudyPlan)

	return router
}
