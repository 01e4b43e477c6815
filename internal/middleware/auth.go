package middleware

import (
	"net/http"

	"ppms/internal/apperr"
	"ppms/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests that carry no signed-in user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentActor(c); !ok {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthenticated, "sign in required")
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthenticated, "sign in required")
			return
		}
		if _, ok := roleSet[actor.Role]; !ok {
			abort(c, http.StatusForbidden, apperr.KindForbidden, "access denied")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, kind apperr.Kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"kind": kind, "message": msg}})
}
