// internal/diff/align.go
package diff

// Align computes the longest common subsequence of oldLines and newLines and
// returns the ordered match/add/remove operations that turn one into the other.
//
// When the backtrack can step either way it consumes the new side first, so a
// replaced line always comes out as Remove followed by Add in forward order.
func Align(oldLines, newLines []string) []LineChange {
	lcs := computeLCS(oldLines, newLines)

	changes := make([]LineChange, 0, len(oldLines)+len(newLines)-lcs[len(oldLines)][len(newLines)])
	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldLines[i-1] == newLines[j-1]:
			changes = append(changes, matchAt(oldLines[i-1], i-1, j-1))
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			changes = append(changes, addAt(newLines[j-1], j-1))
			j--
		default:
			changes = append(changes, removeAt(oldLines[i-1], i-1))
			i--
		}
	}

	// Backtracking walks from the end; flip into ascending order.
	for l, r := 0, len(changes)-1; l < r; l, r = l+1, r-1 {
		changes[l], changes[r] = changes[r], changes[l]
	}
	return changes
}

// computeLCS creates the (n+1)x(m+1) table of common subsequence lengths.
// The rows share one backing array to keep allocation count flat.
func computeLCS(oldLines, newLines []string) [][]int {
	n, m := len(oldLines), len(newLines)
	cells := make([]int, (n+1)*(m+1))
	matrix := make([][]int, n+1)
	for i := range matrix {
		matrix[i] = cells[i*(m+1) : (i+1)*(m+1)]
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if oldLines[i-1] == newLines[j-1] {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}

	return matrix
}

// LCSLength returns the length of the longest common subsequence of the two
// line arrays.
func LCSLength(oldLines, newLines []string) int {
	return computeLCS(oldLines, newLines)[len(oldLines)][len(newLines)]
}
