// internal/session/store.go
package session

import (
	"errors"
	"fmt"
	"time"

	"vdiff/internal/diff"
	"vdiff/internal/storage"

	"github.com/dgraph-io/badger/v4"
)

var ErrNotFound = errors.New("session not found")

// record is the persisted form of a Session; the line arrays are encoded
// separately so large documents can be compressed.
type record struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Status       diff.Status `json:"status"`
	ContextLines int         `json:"context_lines"`
	Hunks        []diff.Hunk `json:"hunks"`
	OldLines     []byte      `json:"old_lines"`
	NewLines     []byte      `json:"new_lines"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (r *record) GetID() string {
	return r.ID
}

// Store persists sessions in badger
type Store struct {
	store *storage.BadgerStore
	codec *lineCodec
}

func NewStore(db *badger.DB, compressThreshold int) (*Store, error) {
	codec, err := newLineCodec(compressThreshold)
	if err != nil {
		return nil, fmt.Errorf("creating line codec: %w", err)
	}
	return &Store{
		store: storage.NewBadgerStore(db, "session"),
		codec: codec,
	}, nil
}

func (s *Store) toRecord(sess *Session) (*record, error) {
	oldLines, err := s.codec.encode(sess.OriginalLines)
	if err != nil {
		return nil, fmt.Errorf("encoding original lines: %w", err)
	}
	newLines, err := s.codec.encode(sess.NewLines)
	if err != nil {
		return nil, fmt.Errorf("encoding new lines: %w", err)
	}
	return &record{
		ID:           sess.ID,
		Name:         sess.Name,
		Status:       sess.Status,
		ContextLines: sess.ContextLines,
		Hunks:        sess.Hunks,
		OldLines:     oldLines,
		NewLines:     newLines,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
	}, nil
}

func (s *Store) fromRecord(r *record) (*Session, error) {
	oldLines, err := s.codec.decode(r.OldLines)
	if err != nil {
		return nil, fmt.Errorf("decoding original lines of %s: %w", r.ID, err)
	}
	newLines, err := s.codec.decode(r.NewLines)
	if err != nil {
		return nil, fmt.Errorf("decoding new lines of %s: %w", r.ID, err)
	}
	return &Session{
		ID:            r.ID,
		Name:          r.Name,
		Status:        r.Status,
		ContextLines:  r.ContextLines,
		Hunks:         r.Hunks,
		Stats:         diff.Count(r.Hunks),
		OriginalLines: oldLines,
		NewLines:      newLines,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

func (s *Store) Create(sess *Session) error {
	r, err := s.toRecord(sess)
	if err != nil {
		return err
	}
	return s.store.Create(r)
}

func (s *Store) Get(id string) (*Session, error) {
	var r record
	if err := s.store.Get(id, &r); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return s.fromRecord(&r)
}

func (s *Store) Update(sess *Session) error {
	r, err := s.toRecord(sess)
	if err != nil {
		return err
	}
	if err := s.store.Update(r); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", sess.ID, ErrNotFound)
		}
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

func (s *Store) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *Store) List() ([]*Session, error) {
	var records []*record
	if err := s.store.List(&records); err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(records))
	for _, r := range records {
		sess, err := s.fromRecord(r)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
