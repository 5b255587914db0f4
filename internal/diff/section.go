// internal/diff/section.go
package diff

import (
	"fmt"
	"slices"
	"sync"
)

// Status describes how a document changed between the two versions
type Status string

const (
	StatusCreated   Status = "created"
	StatusModified  Status = "modified"
	StatusDeleted   Status = "deleted"
	StatusUnchanged Status = "unchanged"
)

// FileDiffSection groups the hunk list for one logical document with the two
// line arrays it was computed against. The arrays are kept so that later
// expansion requests never need to realign; they must not be mutated while
// the section is in use.
type FileDiffSection struct {
	Name          string   `json:"name"`
	Status        Status   `json:"status"`
	Hunks         []Hunk   `json:"hunks"`
	OriginalLines []string `json:"original_lines"`
	NewLines      []string `json:"new_lines"`

	mu sync.RWMutex
}

// NewSection diffs the two line arrays and classifies the result. oldExists
// and newExists distinguish a missing document from an empty one.
func NewSection(name string, oldLines, newLines []string, oldExists, newExists bool, contextSize int) *FileDiffSection {
	var status Status
	switch {
	case !oldExists && newExists:
		status = StatusCreated
	case oldExists && !newExists:
		status = StatusDeleted
	case slices.Equal(oldLines, newLines):
		status = StatusUnchanged
	default:
		status = StatusModified
	}

	return &FileDiffSection{
		Name:          name,
		Status:        status,
		Hunks:         DiffToHunks(oldLines, newLines, contextSize),
		OriginalLines: oldLines,
		NewLines:      newLines,
	}
}

// Snapshot returns a copy of the current hunk list.
func (s *FileDiffSection) Snapshot() []Hunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Hunk, len(s.Hunks))
	for i := range s.Hunks {
		out[i] = s.Hunks[i].clone()
	}
	return out
}

// Expand grows the hunk at index and swaps in the resulting list.
func (s *FileDiffSection) Expand(index int, dir Direction, step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hunks, err := Expand(s.Hunks, index, dir, s.OriginalLines, s.NewLines, step)
	if err != nil {
		return fmt.Errorf("section %s: %w", s.Name, err)
	}
	s.Hunks = hunks
	return nil
}

// ExpandAll keeps expanding every hunk in both directions until a single hunk
// covers the whole document.
func (s *FileDiffSection) ExpandAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := max(len(s.OriginalLines), len(s.NewLines))
	for i := 0; i < len(s.Hunks); {
		h := s.Hunks[i]
		if !h.CanExpandBefore && !h.CanExpandAfter {
			i++
			continue
		}
		dir := After
		if h.CanExpandBefore {
			dir = Before
		}
		hunks, err := Expand(s.Hunks, i, dir, s.OriginalLines, s.NewLines, step)
		if err != nil {
			return fmt.Errorf("section %s: %w", s.Name, err)
		}
		if len(hunks) < len(s.Hunks) && dir == Before {
			i--
		}
		s.Hunks = hunks
	}
	return nil
}

func (s *FileDiffSection) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.Hunks)
}

func (s *FileDiffSection) AddedLines() int   { return s.Stats().Added }
func (s *FileDiffSection) RemovedLines() int { return s.Stats().Removed }
