// internal/diff/types.go
package diff

import (
	"encoding/json"
	"fmt"
)

// Kind tags a single aligned operation
type Kind int

const (
	Match Kind = iota
	Add
	Remove
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case Add:
		return "add"
	case Remove:
		return "remove"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Match, Add, Remove:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown line kind %d", int(k))
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "match":
		*k = Match
	case "add":
		*k = Add
	case "remove":
		*k = Remove
	default:
		return fmt.Errorf("unknown line kind %q", text)
	}
	return nil
}

// LineChange is one aligned operation. Line numbers are 1-based; OldLineNumber
// is nil for Add and NewLineNumber is nil for Remove.
type LineChange struct {
	Kind          Kind   `json:"kind"`
	Value         string `json:"value"`
	OldLineNumber *int   `json:"old_line_number,omitempty"`
	NewLineNumber *int   `json:"new_line_number,omitempty"`
}

func matchAt(value string, oldIdx, newIdx int) LineChange {
	o, n := oldIdx+1, newIdx+1
	return LineChange{Kind: Match, Value: value, OldLineNumber: &o, NewLineNumber: &n}
}

func addAt(value string, newIdx int) LineChange {
	n := newIdx + 1
	return LineChange{Kind: Add, Value: value, NewLineNumber: &n}
}

func removeAt(value string, oldIdx int) LineChange {
	o := oldIdx + 1
	return LineChange{Kind: Remove, Value: value, OldLineNumber: &o}
}

// Hunk is a contiguous change region plus the context currently revealed
// around it. All indices are 0-based into the original line arrays and the
// Visible*End bounds are exclusive.
type Hunk struct {
	StartOldLine    int          `json:"start_old_line"`
	StartNewLine    int          `json:"start_new_line"`
	Changes         []LineChange `json:"changes"`
	VisibleStartOld int          `json:"visible_start_old"`
	VisibleStartNew int          `json:"visible_start_new"`
	VisibleEndOld   int          `json:"visible_end_old"`
	VisibleEndNew   int          `json:"visible_end_new"`
	CanExpandBefore bool         `json:"can_expand_before"`
	CanExpandAfter  bool         `json:"can_expand_after"`
}

// Header renders the unified-diff range line for the visible window.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@",
		formatRange(h.VisibleStartOld, h.VisibleEndOld-h.VisibleStartOld),
		formatRange(h.VisibleStartNew, h.VisibleEndNew-h.VisibleStartNew))
}

func formatRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start+1)
	}
	return fmt.Sprintf("%d,%d", start+1, count)
}

// clone copies the hunk so callers never share a Changes backing array.
func (h Hunk) clone() Hunk {
	h.Changes = append([]LineChange(nil), h.Changes...)
	return h
}

// Direction selects which edge of a hunk to grow
type Direction int

const (
	Before Direction = iota
	After
)

func (d Direction) String() string {
	if d == After {
		return "after"
	}
	return "before"
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("direction must be a string: %w", err)
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection accepts "before"/"after" (and the "up"/"down" aliases used by
// keyboard-driven views).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "before", "up":
		return Before, nil
	case "after", "down":
		return After, nil
	}
	return Before, fmt.Errorf("unknown direction %q", s)
}

// Stats contains per-diff counters used for "+12 -3" summaries
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Count tallies Add/Remove operations across hunks.
func Count(hunks []Hunk) Stats {
	var s Stats
	for _, h := range hunks {
		for _, c := range h.Changes {
			switch c.Kind {
			case Add:
				s.Added++
			case Remove:
				s.Removed++
			}
		}
	}
	return s
}
