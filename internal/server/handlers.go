package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/johncourpayton/hackCC/internal/model"
	"github.com/johncourpayton/hackCC/internal/reminder"
	"github.com/johncourpayton/hackCC/internal/studyplan"
)

type userRequest struct {
	UserID string `json:"user_id"`
}

type settingsRequest struct {
	CanvasDomain  string `json:"canvas_domain"`
	CanvasAPIKey  string `json:"canvas_api_key"`
	DiscordUserID string `json:"discord_user_id"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, World!"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"scheduler_running": s.schedulerStarted(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	tracked, err := s.ledger.Size()
	if err != nil {
		s.logger.Printf("status: ledger size: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"scheduler_running":   s.schedulerStarted(),
		"scheduled_user_set":  s.ScheduledRecipient() != "",
		"tracked_assignments": tracked,
	})
}

func (s *Server) handleSetUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "user_id is required in request body",
		})
		return
	}

	s.SetScheduledRecipient(req.UserID)
	s.logger.Printf("settings: scheduled user set to %s", req.UserID)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Scheduled user ID set",
		"user_id": req.UserID,
	})
}

func (s *Server) handleSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}

	if req.CanvasDomain != "" || req.CanvasAPIKey != "" {
		s.source.UpdateCredentials(req.CanvasDomain, req.CanvasAPIKey)
	}
	if req.DiscordUserID != "" {
		s.SetScheduledRecipient(req.DiscordUserID)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"canvas_configured": s.source.Configured(),
	})
}

func (s *Server) handleAssignments(c *gin.Context) {
	assignments, err := s.source.UpcomingAssignments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments, "count": len(assignments)})
}

func (s *Server) handleStudyPlan(c *gin.Context) {
	assignments, err := s.source.UpcomingAssignments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}

	plan, err := s.planner.WeeklyPlan(c.Request.Context(), assignments)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, studyplan.ErrClientNotInitialised) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "assignment_count": len(assignments)})
}

func (s *Server) handleForceCheck(c *gin.Context) {
	recipient, ok := s.recipientFromRequest(c)
	if !ok {
		return
	}

	sent, err := s.cycles.RunCycle(c.Request.Context(), recipient, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error(), "sent": sent})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Reminder check completed",
		"sent":    sent,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleTest injects a synthetic assignment due in 14 minutes so the nearest
// reminder is one minute past and fires via the catch-up rule.
func (s *Server) handleTest(c *gin.Context) {
	recipient, ok := s.recipientFromRequest(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	test := reminder.TestAssignment(now, 14*time.Minute)
	sent, err := s.cycles.RunCycleWithExtra(c.Request.Context(), recipient, now, []model.Assignment{test})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error(), "sent": sent})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                 "success",
		"message":                "Test reminder check completed",
		"sent":                   sent,
		"test_assignment_due_in": "14 minutes",
	})
}

func (s *Server) handleTestNow(c *gin.Context) {
	recipient, ok := s.recipientFromRequest(c)
	if !ok {
		return
	}

	test := reminder.TestAssignment(time.Now().UTC(), time.Minute)
	delivered, err := s.notifier.SendReminder(c.Request.Context(), recipient, test, "1 minute")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if !delivered {
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "error",
			"message": "Failed to send test reminder. Check notifier credentials and logs.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Test reminder sent immediately. Check your DMs.",
	})
}

func (s *Server) handleDebug(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" && c.Request.Method == http.MethodPost {
		var req userRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			userID = req.UserID
		}
	}

	tracked, _ := s.ledger.Size()
	info := gin.H{
		"scheduler_running":   s.schedulerStarted(),
		"scheduled_user_set":  s.ScheduledRecipient() != "",
		"canvas_configured":   s.source.Configured(),
		"tracked_assignments": tracked,
		"current_time_utc":    time.Now().UTC().Format(time.RFC3339),
	}

	if userID != "" {
		test := reminder.TestAssignment(time.Now().UTC(), time.Minute)
		delivered, err := s.notifier.SendReminder(c.Request.Context(), userID, test, "1 minute")
		info["test_message_sent"] = delivered
		if err != nil {
			info["test_message_error"] = err.Error()
		}
	}

	c.JSON(http.StatusOK, info)
}

// recipientFromRequest resolves the target user from the request body,
// falling back to the scheduled recipient. Having neither is a client error.
func (s *Server) recipientFromRequest(c *gin.Context) (string, bool) {
	var req userRequest
	_ = c.ShouldBindJSON(&req)

	recipient := req.UserID
	if recipient == "" {
		recipient = s.ScheduledRecipient()
	}
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "user_id is required in request body",
			"example": gin.H{"user_id": "123456789012345678"},
		})
		return "", false
	}
	return recipient, true
}
