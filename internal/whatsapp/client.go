package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/johncourpayton/hackCC/internal/model"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned when Twilio credentials or the sender number
// are missing.
var ErrNotConfigured = errors.New("twilio whatsapp sender is not configured")

// Client delivers reminders over WhatsApp via Twilio, as an alternative to
// Discord DMs.
type Client struct {
	client       *twilio.RestClient
	fromWhatsApp string
	logger       *log.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
func New(accountSID, authToken, fromWhatsApp string, logger *log.Logger) (*Client, error) {
	if accountSID == "" || authToken == "" || normalizeWhatsAppAddress(fromWhatsApp) == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		client:       twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		fromWhatsApp: fromWhatsApp,
		logger:       logger,
	}, nil
}

// SendReminder renders the reminder as plain text and sends it. Delivery
// failures come back as (false, nil) so the cycle retries on a later tick.
func (c *Client) SendReminder(_ context.Context, recipientID string, assignment model.Assignment, timeRemaining string) (bool, error) {
	recipient := normalizeWhatsAppAddress(recipientID)
	if recipient == "" {
		return false, fmt.Errorf("recipient number missing or invalid: %w", ErrNotConfigured)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(normalizeWhatsAppAddress(c.fromWhatsApp))
	params.SetBody(reminderBody(assignment, timeRemaining))

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		c.logger.Printf("whatsapp: send reminder to %s: %v", recipient, err)
		return false, nil
	}
	if resp.Sid != nil {
		c.logger.Printf("whatsapp: message sent, SID %s", *resp.Sid)
	}
	return true, nil
}

func reminderBody(assignment model.Assignment, timeRemaining string) string {
	name := assignment.Name
	if name == "" {
		name = "Unnamed Assignment"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 *%s* is due in *%s*\n", name, timeRemaining)
	if assignment.CourseName != "" {
		fmt.Fprintf(&sb, "Course: %s\n", assignment.CourseName)
	}
	if assignment.DueAt != nil {
		fmt.Fprintf(&sb, "Due: %s UTC", assignment.DueAt.UTC().Format("January 02 at 03:04 PM"))
	}
	return sb.String()
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
