package middleware

import (
	"errors"
	"time"

	"ppms/internal/database"
	"ppms/internal/models"
	"ppms/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SessionUserID = "user_id"

	actorKey = "CurrentActor"
)

// InjectUser resolves the session's user id to an Actor, attached to both
// the gin context and the request context. The session holds only the id; the
// role is read from the store so a role change applies to open sessions.
// Sessions naming a deleted user are cleared.
func InjectUser(db *gorm.DB, timeout time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		uid, ok := sess.Get(SessionUserID).(uint)
		if !ok || uid == 0 {
			c.Next()
			return
		}

		ctx, cancel := database.WithTimeout(c.Request.Context(), timeout)
		var user models.User
		err := db.WithContext(ctx).First(&user, uid).Error
		cancel()
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sess.Clear()
			_ = sess.Save()
		case err != nil:
			logger.Warn("load session user failed", zap.Uint("user_id", uid), zap.Error(err))
		default:
			SetActor(c, session.Actor{ID: user.ID, Username: user.Username, Role: user.Role})
		}
		c.Next()
	}
}

func SetActor(c *gin.Context, a session.Actor) {
	c.Set(actorKey, a)
	c.Request = c.Request.WithContext(session.WithActor(c.Request.Context(), a))
}

func CurrentActor(c *gin.Context) (session.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return session.Actor{}, false
	}
	a, ok := v.(session.Actor)
	return a, ok
}
