// Package auth resolves the requester identity for each request: an
// administrator, an authenticated collaborator, or an anonymous visitor
// identified only by IP. Identity is carried in the request context; grants
// are always read from the current registry snapshot, never from the token.
package auth

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// RequesterKey is the context key for storing the resolved requester.
const RequesterKey contextKey = "requester"

// Requester is the resolved identity of one request.
type Requester struct {
	// Username of the authenticated collaborator; empty when anonymous.
	Username string
	// IP of the client, recorded for anonymous requesters and audit events.
	IP string
	// Admin is true for administrator accounts and for visitors inside a
	// configured auto-grant IP range.
	Admin bool
	// Authenticated is true when the requester logged in with credentials
	// or presented a valid bearer token.
	Authenticated bool
}

// Anonymous reports whether the requester carries no identity beyond its IP.
func (r Requester) Anonymous() bool {
	return !r.Authenticated && !r.Admin
}

// WithRequester returns a context carrying the requester.
func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, RequesterKey, r)
}

// GetRequester retrieves the requester from the context. Returns an anonymous
// requester and false when the middleware did not run.
func GetRequester(ctx context.Context) (Requester, bool) {
	r, ok := ctx.Value(RequesterKey).(Requester)
	return r, ok
}
