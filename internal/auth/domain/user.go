package domain

import "context"

// User is the authenticated back-office user, as asserted by a verified ID token
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"` // "firebase" or "jwt"
	Admin    bool   `json:"admin"`
}

type userContextKey struct{}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user stored by WithUser, or nil
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}
