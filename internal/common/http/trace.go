package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ventionteams/medfast-credentials/internal/common/constants"
)

const traceIDHeader = "X-Trace-ID"

// TraceIDMiddleware propagates X-Trace-ID into the request context under the
// key the logger reads.
func TraceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceIDHeader, traceID)

		ctx := context.WithValue(r.Context(), constants.TraceIDKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
