package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxUserID      = "user_id"
)

// IdentityResolver maps a Firebase UID to a directory user id.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, firebaseUID string) (string, error)
}

// WithIdentity resolves the verified Firebase UID to a directory user
// id and stores it in the context. Resolution failures are not fatal
// here: capability queries answer false for unknown callers, and the
// admin signup flow runs before a profile row exists. Gated operations
// check CurrentUserID themselves.
func WithIdentity(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := CurrentFirebaseUID(c)
		if fuid != "" {
			if userID, err := resolver.ResolveUserID(c.Request.Context(), fuid); err == nil {
				c.Set(CtxUserID, userID)
			}
		}
		c.Next()
	}
}

// CurrentFirebaseUID extracts the verified Firebase UID from the Gin
// context. Empty when unauthenticated.
func CurrentFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// CurrentUserID extracts the directory user id from the Gin context.
// Empty when the caller is unauthenticated or has no profile row.
func CurrentUserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// CurrentEmail extracts the token email claim, if present.
func CurrentEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEmail))
}
