// internal/diff/diff.go
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultContextLines = 3
	DefaultExpandStep   = 20
	// DefaultMaxLines bounds each document so the alignment table stays
	// around 128 MiB.
	DefaultMaxLines = 4000
)

// ErrTooLarge is returned when a document has more lines than the engine
// accepts.
var ErrTooLarge = errors.New("document too large to diff")

// Result contains the complete diff information for one pair of documents
type Result struct {
	Hunks []Hunk `json:"hunks"`
	Stats Stats  `json:"stats"`
}

// Engine provides diffing capabilities with fixed defaults for context size
// and expansion step.
type Engine struct {
	contextLines int
	expandStep   int
	maxLines     int
	logger       *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

func WithExpandStep(step int) Option {
	return func(e *Engine) {
		if step > 0 {
			e.expandStep = step
		}
	}
}

// WithMaxLines caps the line count of each document. Zero or less removes
// the cap.
func WithMaxLines(n int) Option {
	return func(e *Engine) {
		e.maxLines = max(0, n)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a new diff engine with specified context lines
func NewEngine(contextLines int, opts ...Option) *Engine {
	e := &Engine{
		contextLines: max(0, contextLines),
		expandStep:   DefaultExpandStep,
		maxLines:     DefaultMaxLines,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ContextLines() int { return e.contextLines }
func (e *Engine) ExpandStep() int   { return e.expandStep }
func (e *Engine) MaxLines() int     { return e.maxLines }

// CheckSize reports ErrTooLarge when either document exceeds the line cap.
func (e *Engine) CheckSize(oldLines, newLines []string) error {
	if e.maxLines == 0 {
		return nil
	}
	if len(oldLines) > e.maxLines || len(newLines) > e.maxLines {
		return fmt.Errorf("%d and %d lines, limit %d: %w",
			len(oldLines), len(newLines), e.maxLines, ErrTooLarge)
	}
	return nil
}

// Diff generates a line-by-line diff between two contents
func (e *Engine) Diff(oldContent, newContent []byte) (*Result, error) {
	return e.DiffLines(SplitLines(string(oldContent)), SplitLines(string(newContent)))
}

// DiffLines is Diff over already split documents.
func (e *Engine) DiffLines(oldLines, newLines []string) (*Result, error) {
	if err := e.CheckSize(oldLines, newLines); err != nil {
		return nil, err
	}

	start := time.Now()
	hunks := DiffToHunks(oldLines, newLines, e.contextLines)
	result := &Result{Hunks: hunks, Stats: Count(hunks)}

	e.logger.Debug("computed diff",
		zap.Int("old_lines", len(oldLines)),
		zap.Int("new_lines", len(newLines)),
		zap.Int("hunks", len(hunks)),
		zap.Int("added", result.Stats.Added),
		zap.Int("removed", result.Stats.Removed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Section builds a FileDiffSection using the engine's context size. A nil
// document means that side does not exist.
func (e *Engine) Section(name string, oldDoc, newDoc []byte) (*FileDiffSection, error) {
	var oldLines, newLines []string
	if oldDoc != nil {
		oldLines = SplitLines(string(oldDoc))
	}
	if newDoc != nil {
		newLines = SplitLines(string(newDoc))
	}
	if err := e.CheckSize(oldLines, newLines); err != nil {
		return nil, fmt.Errorf("section %s: %w", name, err)
	}
	return NewSection(name, oldLines, newLines, oldDoc != nil, newDoc != nil, e.contextLines), nil
}

// Expand grows one edge of a hunk by step lines, or by the engine's expand
// step when step is not positive.
func (e *Engine) Expand(hunks []Hunk, index int, dir Direction, oldLines, newLines []string, step int) ([]Hunk, error) {
	if step <= 0 {
		step = e.expandStep
	}
	out, err := Expand(hunks, index, dir, oldLines, newLines, step)
	if err != nil {
		e.logger.Error("hunk expansion failed",
			zap.Int("index", index),
			zap.Stringer("direction", dir),
			zap.Error(err),
		)
		return nil, err
	}
	if len(out) < len(hunks) {
		e.logger.Debug("merged hunks",
			zap.Int("index", index),
			zap.Stringer("direction", dir),
			zap.Int("remaining", len(out)),
		)
	}
	return out, nil
}

// SplitLines splits text on line breaks. A single trailing newline does not
// produce an empty final line and "\r\n" endings are treated like "\n".
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Format returns a string representation of the diff
func (r *Result) Format() string {
	return FormatHunks(r.Hunks)
}

// FormatHunks renders hunks in unified style.
func FormatHunks(hunks []Hunk) string {
	var buf bytes.Buffer

	for _, hunk := range hunks {
		buf.WriteString(hunk.Header())
		buf.WriteByte('\n')

		for _, line := range hunk.Changes {
			switch line.Kind {
			case Add:
				buf.WriteByte('+')
			case Remove:
				buf.WriteByte('-')
			case Match:
				buf.WriteByte(' ')
			}
			buf.WriteString(line.Value)
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// Summary renders counters the way list views show them, e.g. "+12 -3".
func (s Stats) Summary() string {
	return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
}
