package auth

import (
	"context"
	"net/http"
)

// TokenHeader is the request header that carries the token id.
const TokenHeader = "token"

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue takes any as the key type. A plain string key could be read
// or shadowed by any package that knows the string; a package-private type
// means only this package can create, read, or write the value.
type contextKey string

const tokenIDKey contextKey = "tokenID"

// WithToken copies the token header into the request context.
//
// It never rejects a request: whether a token is required, and for which
// email, depends on the handler. Handlers read it back with TokenFromContext
// and hand it to an Authorizer together with the email they are acting on.
func WithToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(TokenHeader); id != "" {
			ctx := context.WithValue(r.Context(), tokenIDKey, id)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromContext returns the token id presented with the request, or "" if
// there was none.
func TokenFromContext(ctx context.Context) string {
	id, _ := ctx.Value(tokenIDKey).(string)
	return id
}
