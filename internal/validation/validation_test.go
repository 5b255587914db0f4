package validation

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "vdiff/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Name string `json:"name"`
}

func (r *request) Validate() error {
	if r.Name == "" {
		return Required("name")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x"}`, ""},
		{"malformed", `{"name":`, "invalid request body"},
		{"unknown field", `{"name":"x","extra":1}`, "invalid request body"},
		{"fails validation", `{}`, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var got request
			err := DecodeJSON(req, &got)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", got.Name)
				return
			}

			var apiErr *apierrors.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, apierrors.ErrorTypeValidation, apiErr.Type)
			assert.Equal(t, 400, apiErr.Code)
			assert.Equal(t, tt.wantErr, apiErr.Message, fmt.Sprint(apiErr.Details))
		})
	}
}
