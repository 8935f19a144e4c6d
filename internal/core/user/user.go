package user

import (
	"context"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/permission"
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	StuID        string         `json:"stuId"`
	DepartmentID int64          `json:"departmentId"`
	Permissions  permission.Set `json:"-"`
}

func (p *Principal) Actor() permission.Actor {
	return permission.Actor{
		UserID:       p.ID,
		DepartmentID: p.DepartmentID,
		Permissions:  p.Permissions,
	}
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// ActorFromContext is the handler-side shortcut for services that only
// need the caller's identity and permissions.
func ActorFromContext(ctx context.Context) (permission.Actor, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return permission.Actor{}, errors.ErrInvalidToken
	}
	return p.Actor(), nil
}
