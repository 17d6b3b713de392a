package common

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("JSON エンコードに失敗")
	}
}

// WriteData writes a successful envelope around data.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteMessage writes a successful envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: true, Message: message})
}

// WriteError maps err to a status and writes the failure envelope. Server
// side failures are logged with the request id and their detail is hidden.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := apperror.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("request failed")
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}
	WriteJSON(w, status, Envelope{Success: false, Error: message})
}
