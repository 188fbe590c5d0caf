// Package auth carries the authenticated actor through request contexts.
//
// Authentication itself is performed upstream by the hosted backend's
// gateway, which forwards the verified user id in a trusted header.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// DefaultHeader is the header the gateway uses to forward the user id.
const DefaultHeader = "X-User-ID"

type actorKey struct{}

// WithActor returns a copy of ctx carrying the given actor id.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor id stored in ctx, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Middleware copies the actor id from header into the request context.
// Requests without the header pass through anonymously; operations that need
// an actor reject them.
func Middleware(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
				r = r.WithContext(WithActor(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
