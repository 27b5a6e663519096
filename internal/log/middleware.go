package log

import (
	"net/http"
)

// Middleware attaches a request-scoped logger to the context. requestID and
// owner may be nil; their values are added when non-empty.
func Middleware(base *Logger, requestID, owner func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.WithComponent(ComponentHTTP).With(FieldMethod, r.Method, FieldPath, r.URL.Path)
			if requestID != nil {
				if id := requestID(r); id != "" {
					logger = logger.With(FieldRequestID, id)
				}
			}
			if owner != nil {
				if o := owner(r); o != "" {
					logger = logger.With(FieldOwner, o)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), logger)))
		})
	}
}
