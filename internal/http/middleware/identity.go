package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/magdyelboushy-stack/platform/domain"
)

const identityKey = "identity"

// IdentityMW resolves caller identity from a bearer token or the session
// cookie. The bearer path is tried first; both land on the same session
// records.
type IdentityMW struct {
	resolver   domain.IdentityResolver
	cookieName string
}

// NewIdentityMW creates new identity middleware
func NewIdentityMW(resolver domain.IdentityResolver, cookieName string) *IdentityMW {
	return &IdentityMW{resolver: resolver, cookieName: cookieName}
}

// Require aborts with 401 unless an identity can be resolved.
func (mw *IdentityMW) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := mw.resolve(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Set("user_id", fmt.Sprintf("%d", identity.UserID))
		c.Set("user_role", identity.Role)
		c.Set("session_id", identity.SessionID)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the resolved identity carries the
// given role. Must run after Require.
func (mw *IdentityMW) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}
		if identity.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (mw *IdentityMW) resolve(c *gin.Context) *domain.Identity {
	ctx := c.Request.Context()

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil
		}
		identity, err := mw.resolver.ResolveBearer(ctx, parts[1])
		if err != nil {
			return nil
		}
		return identity
	}

	sessionID, err := c.Cookie(mw.cookieName)
	if err != nil || sessionID == "" {
		return nil
	}
	identity, err := mw.resolver.ResolveSession(ctx, sessionID)
	if err != nil {
		return nil
	}
	return identity
}

// IdentityFrom returns the resolved identity stored by Require, or nil.
func IdentityFrom(c *gin.Context) *domain.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := v.(*domain.Identity)
	if !ok {
		return nil
	}
	return identity
}
