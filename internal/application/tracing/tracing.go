// Package tracing assigns every inbound request an id that is echoed to the
// caller and propagated to the backends.
package tracing

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// accepted inbound ids; anything else is replaced
var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func NewRequestID() string {
	return uuid.NewString()
}

// Middleware reuses a well-formed inbound X-Request-ID or generates one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validID.MatchString(id) {
			id = NewRequestID()
		}

		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
