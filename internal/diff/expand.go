// internal/diff/expand.go
package diff

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIndex      = errors.New("hunk index out of range")
	ErrInconsistentLines = errors.New("line arrays do not match hunk offsets")
)

// Expand reveals up to step more context lines on one edge of hunks[index]
// and returns the updated hunk list. When the grown window reaches the
// neighbouring hunk on that side the two hunks and the hidden lines between
// them are merged, shrinking the list by one.
//
// The input slice is never modified. Expanding an edge whose CanExpand flag is
// false, or with a non-positive step, returns an unchanged copy.
//
// oldLines and newLines must be the arrays the hunks were computed against;
// ErrInconsistentLines is returned when they disagree with the stored offsets.
func Expand(hunks []Hunk, index int, dir Direction, oldLines, newLines []string, step int) ([]Hunk, error) {
	if index < 0 || index >= len(hunks) {
		return nil, fmt.Errorf("expanding hunk %d of %d: %w", index, len(hunks), ErrInvalidIndex)
	}

	out := make([]Hunk, len(hunks))
	for i := range hunks {
		out[i] = hunks[i].clone()
	}

	target := out[index]
	if step <= 0 ||
		(dir == Before && !target.CanExpandBefore) ||
		(dir == After && !target.CanExpandAfter) {
		return out, nil
	}

	if err := checkBounds(target, oldLines, newLines); err != nil {
		return nil, fmt.Errorf("expanding hunk %d: %w", index, err)
	}

	switch dir {
	case Before:
		return expandBefore(out, index, oldLines, newLines, step)
	case After:
		return expandAfter(out, index, oldLines, newLines, step)
	}
	return nil, fmt.Errorf("unknown direction %d", dir)
}

func expandBefore(hunks []Hunk, index int, oldLines, newLines []string, step int) ([]Hunk, error) {
	cur := hunks[index]
	candidate := max(0, cur.VisibleStartOld-step)

	if index > 0 && candidate <= hunks[index-1].VisibleEndOld {
		prev := hunks[index-1]
		gap, err := contextLines(oldLines, newLines,
			prev.VisibleEndOld, prev.VisibleEndNew, cur.VisibleStartOld, cur.VisibleStartNew)
		if err != nil {
			return nil, fmt.Errorf("merging hunk %d into %d: %w", index, index-1, err)
		}
		merged := mergeHunks(prev, gap, cur)
		return splice(hunks, index-1, merged), nil
	}

	revealed := cur.VisibleStartOld - candidate
	newStart := cur.VisibleStartNew - revealed
	if revealed == 0 || newStart < 0 {
		return nil, fmt.Errorf("expanding hunk %d before: new offset %d: %w", index, newStart, ErrInconsistentLines)
	}
	lines, err := contextLines(oldLines, newLines, candidate, newStart, cur.VisibleStartOld, cur.VisibleStartNew)
	if err != nil {
		return nil, fmt.Errorf("expanding hunk %d before: %w", index, err)
	}

	cur.Changes = append(lines, cur.Changes...)
	cur.VisibleStartOld = candidate
	cur.VisibleStartNew = newStart
	cur.CanExpandBefore = candidate > 0 || newStart > 0
	hunks[index] = cur
	return hunks, nil
}

func expandAfter(hunks []Hunk, index int, oldLines, newLines []string, step int) ([]Hunk, error) {
	cur := hunks[index]
	candidate := min(len(oldLines), cur.VisibleEndOld+step)

	if index < len(hunks)-1 && candidate >= hunks[index+1].VisibleStartOld {
		next := hunks[index+1]
		gap, err := contextLines(oldLines, newLines,
			cur.VisibleEndOld, cur.VisibleEndNew, next.VisibleStartOld, next.VisibleStartNew)
		if err != nil {
			return nil, fmt.Errorf("merging hunk %d into %d: %w", index+1, index, err)
		}
		merged := mergeHunks(cur, gap, next)
		return splice(hunks, index, merged), nil
	}

	revealed := candidate - cur.VisibleEndOld
	newEnd := cur.VisibleEndNew + revealed
	if revealed == 0 || newEnd > len(newLines) {
		return nil, fmt.Errorf("expanding hunk %d after: new offset %d past %d lines: %w",
			index, newEnd, len(newLines), ErrInconsistentLines)
	}
	lines, err := contextLines(oldLines, newLines, cur.VisibleEndOld, cur.VisibleEndNew, candidate, newEnd)
	if err != nil {
		return nil, fmt.Errorf("expanding hunk %d after: %w", index, err)
	}

	cur.Changes = append(cur.Changes, lines...)
	cur.VisibleEndOld = candidate
	cur.VisibleEndNew = newEnd
	cur.CanExpandAfter = candidate < len(oldLines) || newEnd < len(newLines)
	hunks[index] = cur
	return hunks, nil
}

// mergeHunks joins two neighbouring hunks and the context lines between them.
// The result keeps the earlier hunk's core start and the outward-facing flags
// of both.
func mergeHunks(first Hunk, gap []LineChange, second Hunk) Hunk {
	changes := make([]LineChange, 0, len(first.Changes)+len(gap)+len(second.Changes))
	changes = append(changes, first.Changes...)
	changes = append(changes, gap...)
	changes = append(changes, second.Changes...)

	return Hunk{
		StartOldLine:    first.StartOldLine,
		StartNewLine:    first.StartNewLine,
		Changes:         changes,
		VisibleStartOld: first.VisibleStartOld,
		VisibleStartNew: first.VisibleStartNew,
		VisibleEndOld:   second.VisibleEndOld,
		VisibleEndNew:   second.VisibleEndNew,
		CanExpandBefore: first.CanExpandBefore,
		CanExpandAfter:  second.CanExpandAfter,
	}
}

// splice replaces hunks[at] and hunks[at+1] with merged.
func splice(hunks []Hunk, at int, merged Hunk) []Hunk {
	out := make([]Hunk, 0, len(hunks)-1)
	out = append(out, hunks[:at]...)
	out = append(out, merged)
	return append(out, hunks[at+2:]...)
}

// contextLines builds the Match operations for old[oldFrom:oldTo] paired with
// new[newFrom:newTo]. Both ranges must be the same width and hold identical
// text, since hidden lines between hunks are unchanged by construction.
func contextLines(oldLines, newLines []string, oldFrom, newFrom, oldTo, newTo int) ([]LineChange, error) {
	if oldTo-oldFrom != newTo-newFrom {
		return nil, fmt.Errorf("context widths differ: old [%d,%d) new [%d,%d): %w",
			oldFrom, oldTo, newFrom, newTo, ErrInconsistentLines)
	}
	if oldFrom < 0 || newFrom < 0 || oldTo > len(oldLines) || newTo > len(newLines) || oldFrom > oldTo {
		return nil, fmt.Errorf("context range old [%d,%d) new [%d,%d) outside %d/%d lines: %w",
			oldFrom, oldTo, newFrom, newTo, len(oldLines), len(newLines), ErrInconsistentLines)
	}

	lines := make([]LineChange, 0, oldTo-oldFrom)
	for o, n := oldFrom, newFrom; o < oldTo; o, n = o+1, n+1 {
		if oldLines[o] != newLines[n] {
			return nil, fmt.Errorf("old line %d %q differs from new line %d %q: %w",
				o+1, oldLines[o], n+1, newLines[n], ErrInconsistentLines)
		}
		lines = append(lines, matchAt(oldLines[o], o, n))
	}
	return lines, nil
}

func checkBounds(h Hunk, oldLines, newLines []string) error {
	if h.VisibleStartOld < 0 || h.VisibleStartNew < 0 ||
		h.VisibleEndOld > len(oldLines) || h.VisibleEndNew > len(newLines) ||
		h.VisibleStartOld > h.VisibleEndOld || h.VisibleStartNew > h.VisibleEndNew {
		return fmt.Errorf("visible window old [%d,%d) new [%d,%d) outside %d/%d lines: %w",
			h.VisibleStartOld, h.VisibleEndOld, h.VisibleStartNew, h.VisibleEndNew,
			len(oldLines), len(newLines), ErrInconsistentLines)
	}
	return nil
}
