package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
)

// ErrNotConfigured is returned when the Canvas domain or API token is missing.
var ErrNotConfigured = errors.New("canvas domain or API token not configured")

// Course is a Canvas course the user is enrolled in.
type Course struct {
	ID   model.AssignmentID `json:"id"`
	Name string             `json:"name"`
}

// Client fetches upcoming assignments from the Canvas REST API. Credentials
// may be replaced at runtime via the settings endpoint, so access to them is
// guarded.
type Client struct {
	mu        sync.RWMutex
	baseURL   string
	token     string
	lookahead time.Duration
	http      *http.Client
	logger    *log.Logger
}

// New creates a client for the given Canvas domain (e.g.
// "school.instructure.com"). lookahead bounds how far ahead assignments are
// considered.
func New(domain, token string, lookahead time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL:   baseURLFor(domain),
		token:     token,
		lookahead: lookahead,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// UpdateCredentials replaces the Canvas domain and API token.
func (c *Client) UpdateCredentials(domain, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = baseURLFor(domain)
	c.token = token
}

// Configured reports whether the client has a domain and token to work with.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL != "" && c.token != ""
}

func (c *Client) credentials() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.token
}

// ListCourses fetches the user's active course enrollments.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	base, token := c.credentials()
	if base == "" || token == "" {
		return nil, ErrNotConfigured
	}

	query := url.Values{"enrollment_state": {"active"}, "per_page": {"100"}}
	var courses []Course
	if err := c.getJSON(ctx, base+"/api/v1/courses?"+query.Encode(), token, &courses); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// UpcomingAssignments fetches assignments across all active courses whose due
// time falls inside the lookahead window, tagging each with its course name.
// A failing course is logged and skipped so the rest of the fetch survives.
func (c *Client) UpcomingAssignments(ctx context.Context) ([]model.Assignment, error) {
	base, token := c.credentials()
	if base == "" || token == "" {
		return nil, ErrNotConfigured
	}

	courses, err := c.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	windowEnd := now.Add(c.lookahead)

	var upcoming []model.Assignment
	for _, course := range courses {
		if course.ID == "" {
			continue
		}

		query := url.Values{"bucket": {"upcoming"}, "per_page": {"100"}}
		endpoint := fmt.Sprintf("%s/api/v1/courses/%s/assignments?%s", base, course.ID, query.Encode())

		var assignments []model.Assignment
		if err := c.getJSON(ctx, endpoint, token, &assignments); err != nil {
			c.logger.Printf("canvas: course %s (%s): %v", course.Name, course.ID, err)
			continue
		}

		for _, assignment := range assignments {
			if assignment.DueAt == nil {
				continue
			}
			due := assignment.DueAt.UTC()
			if due.Before(now) || due.After(windowEnd) {
				continue
			}
			assignment.CourseName = course.Name
			upcoming = append(upcoming, assignment)
		}
	}
	return upcoming, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("canvas responded %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func baseURLFor(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://" + domain
}
