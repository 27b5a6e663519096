// Package auth resolves the calling user for API requests. Token validation
// happens upstream; this service only trusts the identity the gateway
// forwards.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	applog "fintrack/internal/log"
)

var ErrUnauthenticated = errors.New("not authorized")

// Authenticator returns the owner id for r or ErrUnauthenticated.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// HeaderAuthenticator reads the owner id from a request header set by the
// gateway.
type HeaderAuthenticator struct {
	Header string
}

func NewHeaderAuthenticator(header string) HeaderAuthenticator {
	return HeaderAuthenticator{Header: http.CanonicalHeaderKey(header)}
}

func (a HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(a.Header))
	if owner == "" || len(owner) > 128 {
		return "", ErrUnauthenticated
	}
	return owner, nil
}

type ctxKey struct{}

// WithOwner returns a copy of ctx carrying owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// OwnerFromContext returns the authenticated owner, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ctxKey{}).(string)
	return owner, ok && owner != ""
}

// Middleware rejects requests that fail authentication. onFail writes the
// response; when nil a bare 401 is sent.
func Middleware(a Authenticator, onFail func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := a.Authenticate(r)
			if err != nil {
				applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).Debug("Request not authenticated",
					applog.FieldPath, r.URL.Path,
					applog.FieldErrorType, applog.ErrorTypeAuth)
				if onFail != nil {
					onFail(w, r)
				} else {
					w.WriteHeader(http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
