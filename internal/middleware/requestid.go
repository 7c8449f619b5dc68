package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey int

const ridKey ctxKey = iota

const (
	ridHeader = "X-Request-ID"
	ridMaxLen = 64
)

// RequestID tags every request with an id that the access log and handler
// logs share. Inbound ids are honored so a call relayed through the managed
// queue keeps one id end to end; an unusable inbound id is replaced rather
// than rejected.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := inboundRequestID(r)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(ridHeader, rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ridKey, rid)))
	})
}

// RequestIDFromContext returns the id set by RequestID, or "" outside a
// request.
func RequestIDFromContext(ctx context.Context) string {
	rid, _ := ctx.Value(ridKey).(string)
	return rid
}

// inboundRequestID returns the caller-supplied id when it is short and
// printable ASCII, "" otherwise.
func inboundRequestID(r *http.Request) string {
	rid := r.Header.Get(ridHeader)
	if rid == "" || len(rid) > ridMaxLen {
		return ""
	}
	for _, c := range rid {
		if c < '!' || c > '~' {
			return ""
		}
	}
	return rid
}
