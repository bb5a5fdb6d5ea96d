// Package identity carries the acting user id resolved by the auth middleware.
package identity

import "context"

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying userId. An empty id leaves ctx anonymous.
func WithUserID(ctx context.Context, userId string) context.Context {
	if userId == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, userId)
}

// UserID reports the caller, if any.
func UserID(ctx context.Context) (string, bool) {
	userId, ok := ctx.Value(ctxKey{}).(string)
	return userId, ok && userId != ""
}
