package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// AssignmentID handles Canvas identifiers that arrive as either JSON numbers
// or strings. Identifiers are always compared as strings.
type AssignmentID string

// UnmarshalJSON accepts both `"123"` and `123`.
func (id *AssignmentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = AssignmentID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("assignment id must be a string or number: %w", err)
	}
	*id = AssignmentID(n.String())
	return nil
}

func (id AssignmentID) String() string { return string(id) }

// Assignment is a single upcoming assignment as reported by Canvas.
// A nil DueAt means no reminder schedule applies.
type Assignment struct {
	ID          AssignmentID `json:"id"`
	Name        string       `json:"name"`
	DueAt       *time.Time   `json:"due_at"`
	CourseName  string       `json:"course_name"`
	Description string       `json:"description"`
	HTMLURL     string       `json:"html_url,omitempty"`
}
