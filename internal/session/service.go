// internal/session/service.go
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"vdiff/internal/diff"
	"vdiff/internal/normalize"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var ErrInvalidDocument = errors.New("invalid document")

// Service owns diff sessions: it runs the engine, keeps the line arrays each
// hunk list was computed against and persists every expansion.
type Service struct {
	box       Box
	engine    *diff.Engine
	cache     *lru.Cache[string, *Session]
	normalize normalize.Options
	// alwaysNormalize applies normalization even when a request does not
	// ask for it.
	alwaysNormalize bool
	logger          *zap.Logger
	now             func() time.Time

	// mu serializes read-modify-write cycles so concurrent expansions of
	// one session cannot overwrite each other.
	mu sync.Mutex
}

type ServiceOptions struct {
	CacheSize       int
	Normalize       normalize.Options
	AlwaysNormalize bool
	Logger          *zap.Logger
}

func NewService(box Box, engine *diff.Engine, opts ServiceOptions) (*Service, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	cache, err := lru.New[string, *Session](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Service{
		box:             box,
		engine:          engine,
		cache:           cache,
		normalize:       opts.Normalize,
		alwaysNormalize: opts.AlwaysNormalize,
		logger:          opts.Logger,
		now:             time.Now,
	}, nil
}

// Create diffs two documents and stores the result. A nil document means
// that side does not exist.
func (s *Service) Create(name string, oldDoc, newDoc []byte, opts CreateOptions) (*Session, error) {
	contextLines := s.engine.ContextLines()
	if opts.ContextLines != nil {
		if *opts.ContextLines < 0 {
			return nil, fmt.Errorf("context lines %d: %w", *opts.ContextLines, ErrInvalidDocument)
		}
		contextLines = *opts.ContextLines
	}

	normalizeDoc := opts.Normalize || s.alwaysNormalize
	oldLines, err := s.prepare(oldDoc, normalizeDoc)
	if err != nil {
		return nil, fmt.Errorf("original document: %w", err)
	}
	newLines, err := s.prepare(newDoc, normalizeDoc)
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}
	if err := s.engine.CheckSize(oldLines, newLines); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	section := diff.NewSection(name, oldLines, newLines, oldDoc != nil, newDoc != nil, contextLines)
	now := s.now()
	sess := &Session{
		ID:            uuid.New().String(),
		Name:          name,
		Status:        section.Status,
		ContextLines:  contextLines,
		Hunks:         section.Hunks,
		Stats:         diff.Count(section.Hunks),
		OriginalLines: section.OriginalLines,
		NewLines:      section.NewLines,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.box.Create(sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	s.cache.Add(sess.ID, sess)

	s.logger.Info("created diff session",
		zap.String("session_id", sess.ID),
		zap.String("name", name),
		zap.String("status", string(sess.Status)),
		zap.Int("hunks", len(sess.Hunks)),
		zap.Int("added", sess.Stats.Added),
		zap.Int("removed", sess.Stats.Removed),
	)
	return sess, nil
}

func (s *Service) prepare(doc []byte, normalizeDoc bool) ([]string, error) {
	if doc == nil {
		return nil, nil
	}
	if normalizeDoc {
		out, err := normalize.Normalize(doc, s.normalize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		doc = out
	}
	return diff.SplitLines(string(doc)), nil
}

// Get returns the stored session. The returned value must not be modified.
func (s *Service) Get(id string) (*Session, error) {
	if sess, ok := s.cache.Get(id); ok {
		return sess, nil
	}

	sess, err := s.box.Get(id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, sess)
	return sess, nil
}

// Expand grows one hunk of a session and persists the new hunk list. A step
// of zero uses the engine's default.
func (s *Service) Expand(id string, index int, dir diff.Direction, step int) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	hunks, err := s.engine.Expand(cur.Hunks, index, dir, cur.OriginalLines, cur.NewLines, step)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	next := *cur
	next.Hunks = hunks
	next.Stats = diff.Count(hunks)
	next.UpdatedAt = s.now()

	if err := s.box.Update(&next); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	s.cache.Add(id, &next)

	s.logger.Debug("expanded diff session",
		zap.String("session_id", id),
		zap.Int("index", index),
		zap.Stringer("direction", dir),
		zap.Int("hunks", len(hunks)),
	)
	return &next, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.box.Delete(id); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}

// List returns session summaries, most recently updated first.
func (s *Service) List() ([]Summary, error) {
	sessions, err := s.box.List()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	summaries := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sess.Summary())
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return summaries, nil
}
