package models

import (
	"context"

	"github.com/gin-gonic/gin"
)

type userContextKey struct{}

// SetUserContext returns a copy of ctx carrying the authenticated user
func SetUserContext(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns the authenticated user, checking the Gin "user"
// key set by the auth middleware first. Returns nil if none is present.
func GetUserFromContext(ctx context.Context) *User {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if userVal, exists := ginCtx.Get("user"); exists {
			if user, ok := userVal.(*User); ok {
				return user
			}
		}
		if ginCtx.Request == nil {
			return nil
		}
		ctx = ginCtx.Request.Context()
	}

	if user, ok := ctx.Value(userContextKey{}).(*User); ok {
		return user
	}
	return nil
}
