// internal/diff/hunks.go
package diff

// span is a half-open range of positions in an aligned operation list.
type span struct {
	start, end int
}

// ExtractHunks groups an aligned operation list into hunks, each padded with
// up to contextSize matching lines on either side. Change runs whose padded
// windows would overlap or touch are folded into a single hunk, so the
// returned hunks are always separated by at least one hidden line.
func ExtractHunks(aligned []LineChange, contextSize int) []Hunk {
	if contextSize < 0 {
		contextSize = 0
	}

	runs := changeRuns(aligned)
	if len(runs) == 0 {
		return nil
	}

	// oldPos[k]/newPos[k] are the array offsets reached before operation k.
	oldPos := make([]int, len(aligned)+1)
	newPos := make([]int, len(aligned)+1)
	for k, c := range aligned {
		oldPos[k+1], newPos[k+1] = oldPos[k], newPos[k]
		if c.Kind != Add {
			oldPos[k+1]++
		}
		if c.Kind != Remove {
			newPos[k+1]++
		}
	}
	oldLen, newLen := oldPos[len(aligned)], newPos[len(aligned)]

	var hunks []Hunk
	group := runs[0]
	flush := func(g span) {
		from := max(0, g.start-contextSize)
		to := min(len(aligned), g.end+contextSize)
		hunks = append(hunks, Hunk{
			StartOldLine:    oldPos[g.start],
			StartNewLine:    newPos[g.start],
			Changes:         append([]LineChange(nil), aligned[from:to]...),
			VisibleStartOld: oldPos[from],
			VisibleStartNew: newPos[from],
			VisibleEndOld:   oldPos[to],
			VisibleEndNew:   newPos[to],
			CanExpandBefore: oldPos[from] > 0 || newPos[from] > 0,
			CanExpandAfter:  oldPos[to] < oldLen || newPos[to] < newLen,
		})
	}
	for _, r := range runs[1:] {
		// The gap between runs is all Match operations; two padded windows
		// meet once the gap is no wider than both paddings together.
		if r.start-group.end <= 2*contextSize {
			group.end = r.end
			continue
		}
		flush(group)
		group = r
	}
	flush(group)

	return hunks
}

// changeRuns returns the maximal runs of non-Match operations.
func changeRuns(aligned []LineChange) []span {
	var runs []span
	for k := 0; k < len(aligned); k++ {
		if aligned[k].Kind == Match {
			continue
		}
		start := k
		for k < len(aligned) && aligned[k].Kind != Match {
			k++
		}
		runs = append(runs, span{start: start, end: k})
	}
	return runs
}

// DiffToHunks aligns the two line arrays and groups the result into hunks.
func DiffToHunks(oldLines, newLines []string, contextSize int) []Hunk {
	return ExtractHunks(Align(oldLines, newLines), contextSize)
}
