package http

import (
	"encoding/json"
	"net/http"

	"github.com/ventionteams/medfast-credentials/internal/common/constants"
)

type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	env := ErrorEnvelope{Code: code, Message: message}
	if traceID, ok := r.Context().Value(constants.TraceIDKey).(string); ok {
		env.TraceID = traceID
	}
	WriteJSON(w, status, env)
}
