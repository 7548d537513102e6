package auth

import (
	"context"

	"complaintdesk/internal/model"
)

// Authenticator resolves the user behind the current call.
type Authenticator interface {
	CurrentUser(ctx context.Context) (*model.User, bool)
}

type userKey struct{}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey{}).(*model.User)
	return user, ok && user != nil
}

// ContextAuthenticator reads the user the HTTP middleware put on the request
// context.
type ContextAuthenticator struct{}

// CurrentUser implements Authenticator.
func (ContextAuthenticator) CurrentUser(ctx context.Context) (*model.User, bool) {
	return UserFromContext(ctx)
}
