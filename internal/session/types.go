// internal/session/types.go
package session

import (
	"time"

	"vdiff/internal/diff"
)

// Session is one comparison view: two documents plus the hunk list the user
// has expanded so far.
type Session struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Status        diff.Status `json:"status"`
	ContextLines  int         `json:"context_lines"`
	Hunks         []diff.Hunk `json:"hunks"`
	Stats         diff.Stats  `json:"stats"`
	OriginalLines []string    `json:"-"`
	NewLines      []string    `json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Summary is the list view of a session
type Summary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    diff.Status `json:"status"`
	Stats     diff.Stats  `json:"stats"`
	Hunks     int         `json:"hunks"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		Stats:     s.Stats,
		Hunks:     len(s.Hunks),
		UpdatedAt: s.UpdatedAt,
	}
}

// Text renders the visible hunks in unified style.
func (s *Session) Text() string {
	return diff.FormatHunks(s.Hunks)
}

// CreateOptions tune a new session
type CreateOptions struct {
	ContextLines *int
	Normalize    bool
}

// Box defines how sessions are stored
type Box interface {
	Create(s *Session) error
	Get(id string) (*Session, error)
	Update(s *Session) error
	Delete(id string) error
	List() ([]*Session, error)
}
