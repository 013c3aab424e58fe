package discord

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
)

// Urgency colors for reminder embeds.
const (
	colorOrange  = 0xf39c12
	colorRed     = 0xe74c3c
	colorDarkRed = 0xc0392b
	colorGreen   = 0x2ecc71
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// SendReminder delivers a single assignment reminder as an embed DM. A
// delivery failure is reported as (false, nil) and logged; errors are
// reserved for configuration problems, which New already rules out.
func (c *Client) SendReminder(ctx context.Context, recipientID string, assignment model.Assignment, timeRemaining string) (bool, error) {
	embed := reminderEmbed(assignment, timeRemaining)
	if err := c.SendEmbed(ctx, recipientID, embed); err != nil {
		c.logger.Printf("discord: send reminder to %s: %v", recipientID, err)
		return false, nil
	}
	return true, nil
}

func reminderEmbed(assignment model.Assignment, timeRemaining string) Embed {
	name := assignment.Name
	if name == "" {
		name = "Unnamed Assignment"
	}
	courseName := assignment.CourseName
	if courseName == "" {
		courseName = "Unknown Course"
	}

	dueStr := "Unknown"
	if assignment.DueAt != nil {
		dueStr = assignment.DueAt.UTC().Format("January 02 at 03:04 PM") + " UTC"
	}

	color, emoji := urgency(timeRemaining)

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** is due in **%s**\n\n", name, timeRemaining)
	fmt.Fprintf(&sb, "📚 **Course:** %s\n", courseName)
	fmt.Fprintf(&sb, "⏰ **Due:** %s\n", dueStr)
	if desc := cleanDescription(assignment.Description); desc != "" {
		fmt.Fprintf(&sb, "\n📝 %s", desc)
	}

	return Embed{
		Title:       emoji + " Assignment Due Soon",
		Description: sb.String(),
		Color:       color,
		Footer:      &EmbedFooter{Text: "Canvas Assignment Reminder"},
	}
}

// urgency picks the embed color and emoji from the rendered time remaining,
// hour-scale reminders being the least urgent.
func urgency(timeRemaining string) (int, string) {
	switch {
	case strings.Contains(strings.ToLower(timeRemaining), "hour"):
		return colorOrange, "⚠️"
	case strings.Contains(timeRemaining, "30") || strings.Contains(timeRemaining, "45"):
		return colorRed, "🚨"
	default:
		return colorDarkRed, "🔥"
	}
}

func cleanDescription(description string) string {
	clean := strings.TrimSpace(htmlTagPattern.ReplaceAllString(description, ""))
	if len(clean) > 200 {
		clean = clean[:200] + "..."
	}
	return clean
}

// SendWeeklyDigest sends one embed summarising all assignments due in the
// lookahead window, grouped by date. Discord caps embeds at 10 fields.
func (c *Client) SendWeeklyDigest(ctx context.Context, recipientID string, assignments []model.Assignment) error {
	byDate := make(map[string][]model.Assignment)
	for _, assignment := range assignments {
		if assignment.DueAt == nil {
			continue
		}
		key := assignment.DueAt.UTC().Format("2006-01-02")
		byDate[key] = append(byDate[key], assignment)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > 10 {
		dates = dates[:10]
	}

	var fields []EmbedField
	for _, date := range dates {
		day, _ := time.Parse("2006-01-02", date)
		lines := make([]string, 0, len(byDate[date]))
		for _, assignment := range byDate[date] {
			name := assignment.Name
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			lines = append(lines, fmt.Sprintf("• %s (%s)", name, assignment.CourseName))
		}
		value := strings.Join(limitLines(lines, 5), "\n")
		if len(lines) > 5 {
			value += fmt.Sprintf("\n... and %d more", len(lines)-5)
		}
		fields = append(fields, EmbedField{
			Name:  day.Format("Monday, January 02"),
			Value: value,
		})
	}

	description := "🎉 No assignments due in the next week!"
	color := colorGreen
	if len(assignments) > 0 {
		description = fmt.Sprintf("Found **%d** assignment(s) due in the next 7 days.", len(assignments))
		color = colorRed
	}

	return c.SendEmbed(ctx, recipientID, Embed{
		Title:       "📚 Assignment Reminder",
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer:      &EmbedFooter{Text: "Canvas Assignment Bot"},
	})
}

func limitLines(lines []string, max int) []string {
	if len(lines) > max {
		return lines[:max]
	}
	return lines
}
