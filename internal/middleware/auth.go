package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"order-realtime/internal/auth"
)

// Context keys set by AuthMiddleware.
const (
	TenantIDKey = "tenantID"
	UserIDKey   = "userID"
)

// InternalTokenHeader carries the shared secret for service-to-service calls.
const InternalTokenHeader = "X-Internal-Token"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Claims, error)
}

// AuthMiddleware validates the bearer token and stores its tenant and subject.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil || claims.TenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(TenantIDKey, claims.TenantID)
		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// InternalToken admits requests whose X-Internal-Token matches token.
func InternalToken(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(InternalTokenHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid internal token"})
			return
		}
		c.Next()
	}
}
