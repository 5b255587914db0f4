// internal/api/handlers.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"vdiff/internal/diff"
	"vdiff/internal/errors"
	"vdiff/internal/session"
	"vdiff/internal/validation"
)

// Sessions is the session service used by the handlers
type Sessions interface {
	Create(name string, oldDoc, newDoc []byte, opts session.CreateOptions) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Expand(id string, index int, dir diff.Direction, step int) (*session.Session, error)
	Delete(id string) error
	List() ([]session.Summary, error)
}

// CreateRequest creates a diff session. A null (omitted) document means
// that side does not exist.
type CreateRequest struct {
	Name      string  `json:"name"`
	Old       *string `json:"old"`
	New       *string `json:"new"`
	Context   *int    `json:"context,omitempty"`
	Normalize bool    `json:"normalize,omitempty"`
}

func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return validation.Required("name")
	}
	if r.Old == nil && r.New == nil {
		return fmt.Errorf("at least one of old or new is required")
	}
	if r.Context != nil && *r.Context < 0 {
		return fmt.Errorf("context must not be negative")
	}
	return nil
}

// ExpandRequest grows one edge of a hunk. Step 0 uses the server default.
type ExpandRequest struct {
	Index     *int            `json:"index"`
	Direction *diff.Direction `json:"direction"`
	Step      int             `json:"step,omitempty"`
}

func (r *ExpandRequest) Validate() error {
	if r.Index == nil {
		return validation.Required("index")
	}
	if *r.Index < 0 {
		return fmt.Errorf("index must not be negative")
	}
	if r.Direction == nil {
		return validation.Required("direction")
	}
	if r.Step < 0 {
		return fmt.Errorf("step must not be negative")
	}
	return nil
}

type DiffHandler struct {
	sessions Sessions
}

func NewDiffHandler(sessions Sessions) *DiffHandler {
	return &DiffHandler{sessions: sessions}
}

// Register mounts the diff endpoints on mux.
func (h *DiffHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/diffs", h.Create)
	mux.HandleFunc("GET /api/diffs", h.List)
	mux.HandleFunc("GET /api/diffs/{id}", h.Get)
	mux.HandleFunc("GET /api/diffs/{id}/text", h.Text)
	mux.HandleFunc("POST /api/diffs/{id}/expand", h.Expand)
	mux.HandleFunc("DELETE /api/diffs/{id}", h.Delete)
}

func (h *DiffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		errors.Write(w, err)
		return
	}

	sess, err := h.sessions.Create(req.Name, docBytes(req.Old), docBytes(req.New), session.CreateOptions{
		ContextLines: req.Context,
		Normalize:    req.Normalize,
	})
	if err != nil {
		errors.Write(w, toAPIError(err))
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func docBytes(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}

func (h *DiffHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		errors.Write(w, toAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *DiffHandler) Text(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		errors.Write(w, toAPIError(err))
		return
	}
	w.Header().Set("Content-Type", "text/x-diff; charset=utf-8")
	fmt.Fprintf(w, "--- a/%s\n+++ b/%s\n", sess.Name, sess.Name)
	w.Write([]byte(sess.Text()))
}

func (h *DiffHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		errors.Write(w, err)
		return
	}

	sess, err := h.sessions.Expand(r.PathValue("id"), *req.Index, *req.Direction, req.Step)
	if err != nil {
		errors.Write(w, toAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *DiffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		errors.Write(w, toAPIError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DiffHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sessions.List()
	if err != nil {
		errors.Write(w, toAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// toAPIError maps service errors onto typed API errors. Engine contract
// violations are conflicts: the client's view of the hunk list is stale.
func toAPIError(err error) error {
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return errors.NotFound(err.Error())
	case stderrors.Is(err, session.ErrInvalidDocument):
		return errors.ValidationError(err.Error(), nil)
	case stderrors.Is(err, diff.ErrInvalidIndex), stderrors.Is(err, diff.ErrInconsistentLines):
		return errors.Conflict(err.Error())
	}
	return errors.Internal(err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
