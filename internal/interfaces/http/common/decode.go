package common

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/validation"
)

// DecodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields and trailing data, then runs dst's validate tags.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.Validation("request body is required")
		case errors.As(err, &maxErr):
			return apperror.Validation("request body is too large")
		case strings.Contains(err.Error(), "unknown field"):
			return apperror.Validation("request contains an unknown field")
		default:
			return apperror.Validation("invalid JSON payload")
		}
	}
	if decoder.More() {
		return apperror.Validation("request body must contain a single JSON object")
	}
	return validation.Struct(dst)
}
