// Package session carries the authenticated user through a request.
package session

import (
	"context"

	"ppms/internal/models"
)

// Actor is the user on whose behalf a request runs. The zero Actor is the
// system itself.
type Actor struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

var System = Actor{}

func (a Actor) IsSystem() bool { return a.ID == 0 }

// Ref is the value stored as the acting user; nil for the system.
func (a Actor) Ref() *uint {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) Is(roles ...models.UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanManage reports whether the actor may create, edit or delete records.
func (a Actor) CanManage() bool {
	return a.IsSystem() || a.Is(models.RoleAdmin, models.RoleProjectManager)
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the request's actor, if one was attached.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
