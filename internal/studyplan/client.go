package studyplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrClientNotInitialised is returned when attempting to call the API without
// a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Client generates study plans from upcoming assignments.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// New returns an OpenAI-backed planner when apiKey is provided, otherwise an
// inert client whose calls return ErrClientNotInitialised.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// WeeklyPlan asks the model for a study schedule covering the given
// assignments.
func (c *Client) WeeklyPlan(ctx context.Context, assignments []model.Assignment) (string, error) {
	if c.client == nil {
		return "", ErrClientNotInitialised
	}
	if len(assignments) == 0 {
		return "", fmt.Errorf("no assignments to plan for")
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are a study planner. Given a list of assignments with due dates, produce a realistic day-by-day study schedule for the week ahead. Keep it concise and actionable."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt(assignments)),
					},
				},
			},
		},
		Temperature:         openai.Float(0.4),
		MaxCompletionTokens: openai.Int(600),
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion received")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func prompt(assignments []model.Assignment) string {
	var sb strings.Builder
	sb.WriteString("Generate a study schedule for my assignments for the week ahead. I have:\n")
	for _, assignment := range assignments {
		due := "no due date"
		if assignment.DueAt != nil {
			due = assignment.DueAt.UTC().Format("Monday, January 02 at 03:04 PM UTC")
		}
		fmt.Fprintf(&sb, "- %s (%s), due %s\n", assignment.Name, assignment.CourseName, due)
	}
	sb.WriteString("Help me plan my week!")
	return sb.String()
}
