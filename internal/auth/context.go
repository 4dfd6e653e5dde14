package auth

import "context"

type contextKey struct{}

// Identity is the caller a request acts on behalf of. The zero value is
// the anonymous caller.
type Identity struct {
	UserID    int64
	SessionID int64
	FirstName string
}

// Anonymous reports whether no user is bound to the identity.
func (i Identity) Anonymous() bool {
	return i.UserID == 0
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored on ctx, or the anonymous identity.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "scribble_session"
