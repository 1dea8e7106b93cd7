package util

import (
	"context"

	"github.com/gin-gonic/gin"
)

type ipContextKey struct{}

// SetIPContext returns a copy of ctx carrying the client IP
func SetIPContext(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ipContextKey{}, ip)
}

// GetIPFromContext extracts the client IP address from the context
func GetIPFromContext(ctx context.Context) string {
	// Try to extract from Gin context first
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.ClientIP()
	}

	if ip, ok := ctx.Value(ipContextKey{}).(string); ok {
		return ip
	}

	return ""
}
