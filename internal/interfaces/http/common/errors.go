package common

import (
	"net/http"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
)

// StatusFor maps an error onto the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case "":
		return http.StatusOK
	case apperror.KindValidation, apperror.KindConflict:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
