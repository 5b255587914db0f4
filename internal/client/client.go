// internal/client/client.go
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vdiff/internal/api"
	"vdiff/internal/diff"
	apierrors "vdiff/internal/errors"
	"vdiff/internal/session"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// CreateDiff starts a diff session. A nil document means that side does not
// exist.
func (c *Client) CreateDiff(name string, oldDoc, newDoc []byte, contextLines *int, normalize bool) (*session.Session, error) {
	req := api.CreateRequest{
		Name:      name,
		Context:   contextLines,
		Normalize: normalize,
	}
	if oldDoc != nil {
		s := string(oldDoc)
		req.Old = &s
	}
	if newDoc != nil {
		s := string(newDoc)
		req.New = &s
	}

	var result session.Session
	if err := c.do(http.MethodPost, "/api/diffs", req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetDiff(id string) (*session.Session, error) {
	var result session.Session
	if err := c.do(http.MethodGet, "/api/diffs/"+id, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ExpandDiff(id string, index int, dir diff.Direction, step int) (*session.Session, error) {
	req := api.ExpandRequest{Index: &index, Direction: &dir, Step: step}

	var result session.Session
	if err := c.do(http.MethodPost, "/api/diffs/"+id+"/expand", req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListDiffs() ([]session.Summary, error) {
	var result []session.Summary
	if err := c.do(http.MethodGet, "/api/diffs", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) DeleteDiff(id string) error {
	return c.do(http.MethodDelete, "/api/diffs/"+id, nil, http.StatusNoContent, nil)
}

func (c *Client) do(method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr apierrors.Error
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
