package diff

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_MergesFarApartHunks(t *testing.T) {
	oldLines := numbered(100)
	newLines := withEdits(oldLines, 19, 79)
	hunks := DiffToHunks(oldLines, newLines, 3)
	require.Len(t, hunks, 2)

	var err error
	steps := 0
	for len(hunks) == 2 {
		before := hunks[0].VisibleEndOld
		hunks, err = Expand(hunks, 0, After, oldLines, newLines, 10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, hunks[0].VisibleEndOld, before)
		assertNoOverlap(t, hunks)
		steps++
		require.Less(t, steps, 10)
	}

	require.Len(t, hunks, 1)
	merged := hunks[0]
	assertConsistent(t, merged, oldLines, newLines)
	assert.Equal(t, 16, merged.VisibleStartOld)
	assert.Equal(t, 83, merged.VisibleEndOld)
	assert.Equal(t, 19, merged.StartOldLine)
	assert.True(t, merged.CanExpandBefore)
	assert.True(t, merged.CanExpandAfter)

	// Every untouched line between the two changes is present, in order.
	var values []string
	for _, c := range merged.Changes {
		if c.Kind == Match {
			values = append(values, c.Value)
		}
	}
	assert.Equal(t, append(append([]string(nil), oldLines[16:19]...), oldLines[20:79]...), values[:62])
	assert.Equal(t, oldLines[80:83], values[62:])
	assert.Equal(t, Stats{Added: 2, Removed: 2}, Count(hunks))
}

func TestExpand_GrowsWithoutMerging(t *testing.T) {
	oldLines := numbered(100)
	newLines := withEdits(oldLines, 19, 79)
	hunks := DiffToHunks(oldLines, newLines, 3)

	out, err := Expand(hunks, 1, Before, oldLines, newLines, 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 71, out[1].VisibleStartOld)
	assert.Equal(t, 71, out[1].VisibleStartNew)
	assert.Len(t, out[1].Changes, len(hunks[1].Changes)+5)
	assertConsistent(t, out[1], oldLines, newLines)

	out, err = Expand(out, 1, After, oldLines, newLines, 5)
	require.NoError(t, err)
	assert.Equal(t, 88, out[1].VisibleEndOld)
	assertConsistent(t, out[1], oldLines, newLines)

	// Clamped at the end of the document.
	out, err = Expand(out, 1, After, oldLines, newLines, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, out[1].VisibleEndOld)
	assert.False(t, out[1].CanExpandAfter)
	assertConsistent(t, out[1], oldLines, newLines)

	// Clamped at the start of the document.
	out, err = Expand(out, 0, Before, oldLines, newLines, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].VisibleStartOld)
	assert.False(t, out[0].CanExpandBefore)
	assertConsistent(t, out[0], oldLines, newLines)
}

func TestExpand_MergeInheritsOutwardFlags(t *testing.T) {
	oldLines := numbered(30)
	newLines := withEdits(oldLines, 0, 20)
	hunks := DiffToHunks(oldLines, newLines, 2)
	require.Len(t, hunks, 2)
	require.False(t, hunks[0].CanExpandBefore)
	require.True(t, hunks[1].CanExpandAfter)

	out, err := Expand(hunks, 1, Before, oldLines, newLines, 100)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].CanExpandBefore)
	assert.True(t, out[0].CanExpandAfter)
	assert.Equal(t, hunks[0].StartOldLine, out[0].StartOldLine)
	assert.Equal(t, hunks[0].StartNewLine, out[0].StartNewLine)
	assertConsistent(t, out[0], oldLines, newLines)

	out, err = Expand(out, 0, After, oldLines, newLines, 100)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].CanExpandBefore)
	assert.False(t, out[0].CanExpandAfter)
	assert.Len(t, out[0].Changes, 32)
}

func TestExpand_NoOps(t *testing.T) {
	oldLines := []string{"a", "b", "c"}
	newLines := []string{"a", "x", "c"}
	hunks := DiffToHunks(oldLines, newLines, 3)
	require.Len(t, hunks, 1)

	for _, tc := range []struct {
		name string
		dir  Direction
		step int
	}{
		{"before when fully expanded", Before, 5},
		{"after when fully expanded", After, 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Expand(hunks, 0, tc.dir, oldLines, newLines, tc.step)
			require.NoError(t, err)
			if diff := cmp.Diff(hunks, out); diff != "" {
				t.Errorf("Expand() changed hunks (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("non-positive step", func(t *testing.T) {
		big := numbered(50)
		changed := withEdits(big, 25)
		hs := DiffToHunks(big, changed, 3)
		out, err := Expand(hs, 0, Before, big, changed, 0)
		require.NoError(t, err)
		assert.Equal(t, hs, out)
	})
}

func TestExpand_DoesNotMutateInput(t *testing.T) {
	oldLines := numbered(60)
	newLines := withEdits(oldLines, 10, 40)
	hunks := DiffToHunks(oldLines, newLines, 3)
	require.Len(t, hunks, 2)

	snapshot := make([]Hunk, len(hunks))
	for i := range hunks {
		snapshot[i] = hunks[i].clone()
	}

	_, err := Expand(hunks, 0, Before, oldLines, newLines, 4)
	require.NoError(t, err)
	_, err = Expand(hunks, 0, After, oldLines, newLines, 100)
	require.NoError(t, err)

	if diff := cmp.Diff(snapshot, hunks); diff != "" {
		t.Errorf("input hunks mutated (-want +got):\n%s", diff)
	}
}

func TestExpand_Errors(t *testing.T) {
	oldLines := numbered(60)
	newLines := withEdits(oldLines, 10, 40)
	hunks := DiffToHunks(oldLines, newLines, 3)

	t.Run("index out of range", func(t *testing.T) {
		_, err := Expand(hunks, 2, Before, oldLines, newLines, 3)
		assert.ErrorIs(t, err, ErrInvalidIndex)

		_, err = Expand(hunks, -1, After, oldLines, newLines, 3)
		assert.ErrorIs(t, err, ErrInvalidIndex)

		_, err = Expand(nil, 0, After, oldLines, newLines, 3)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	})

	t.Run("truncated line arrays", func(t *testing.T) {
		_, err := Expand(hunks, 1, After, oldLines[:30], newLines[:30], 3)
		assert.ErrorIs(t, err, ErrInconsistentLines)
	})

	t.Run("arrays from a different document", func(t *testing.T) {
		other := numbered(60)
		for i := range other {
			other[i] = "other " + other[i]
		}
		_, err := Expand(hunks, 0, Before, oldLines, other, 3)
		assert.ErrorIs(t, err, ErrInconsistentLines)
	})

	t.Run("gap differs between documents", func(t *testing.T) {
		tampered := append([]string(nil), newLines...)
		tampered[25] = "tampered"
		_, err := Expand(hunks, 0, After, oldLines, tampered, 100)
		assert.ErrorIs(t, err, ErrInconsistentLines)
	})
}

func TestExpand_Convergence(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for iter := 0; iter < 200; iter++ {
		oldLines := randomLines(r, 40)
		newLines := append([]string(nil), oldLines...)
		for k := r.IntN(4); k > 0 && len(newLines) > 0; k-- {
			newLines[r.IntN(len(newLines))] = "edit"
		}
		if r.IntN(3) == 0 {
			newLines = append(newLines, "tail")
		}

		hunks := DiffToHunks(oldLines, newLines, r.IntN(3))
		assertNoOverlap(t, hunks)
		if len(hunks) == 0 {
			continue
		}

		for guard := 0; ; guard++ {
			require.Less(t, guard, 1000, "expansion did not converge")

			idx := -1
			var dir Direction
			for i, h := range hunks {
				if h.CanExpandBefore || h.CanExpandAfter {
					idx = i
					dir = After
					if h.CanExpandBefore && r.IntN(2) == 0 || !h.CanExpandAfter {
						dir = Before
					}
					break
				}
			}
			if idx < 0 {
				break
			}

			prev := hunks[idx]
			out, err := Expand(hunks, idx, dir, oldLines, newLines, 1+r.IntN(5))
			require.NoError(t, err)
			assertNoOverlap(t, out)

			// Monotonic: locate the hunk now covering the old target core.
			for _, h := range out {
				if h.VisibleStartOld <= prev.StartOldLine && prev.StartOldLine <= h.VisibleEndOld {
					assert.LessOrEqual(t, h.VisibleStartOld, prev.VisibleStartOld)
					assert.GreaterOrEqual(t, h.VisibleEndOld, prev.VisibleEndOld)
				}
			}
			for _, h := range out {
				assertConsistent(t, h, oldLines, newLines)
			}
			hunks = out
		}

		require.Len(t, hunks, 1, "old=%q new=%q", oldLines, newLines)
		assert.Equal(t, 0, hunks[0].VisibleStartOld)
		assert.Equal(t, len(oldLines), hunks[0].VisibleEndOld)
		assert.Equal(t, len(newLines), hunks[0].VisibleEndNew)
		assert.False(t, hunks[0].CanExpandBefore)
		assert.False(t, hunks[0].CanExpandAfter)
	}
}
