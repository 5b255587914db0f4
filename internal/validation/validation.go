// internal/validation/validation.go
package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vdiff/internal/errors"
)

// MaxBodyBytes bounds request bodies; documents are configuration-sized.
const MaxBodyBytes = 8 << 20

type Validator interface {
	Validate() error
}

// DecodeJSON reads a JSON request body into v and validates it. Failures are
// returned as *errors.Error with a 400 code.
func DecodeJSON(r *http.Request, v Validator) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.ValidationError("invalid request body", err.Error())
	}

	if err := v.Validate(); err != nil {
		return errors.ValidationError(err.Error(), nil)
	}
	return nil
}

// Required reports a missing field.
func Required(field string) error {
	return fmt.Errorf("%s is required", field)
}
