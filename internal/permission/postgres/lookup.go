package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/qnxg/yqwork/internal/permission"
)

// Lookup answers the two hot-path questions asked on every authenticated
// request with plain SQL.
type Lookup struct {
	db *sqlx.DB
}

func NewLookup(db *sqlx.DB) *Lookup {
	return &Lookup{db: db}
}

func (l *Lookup) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := l.db.Rebind(`
		SELECT r.id
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ? AND r.deleted_at IS NULL
		ORDER BY r.id`)

	ids := []int64{}
	if err := l.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (l *Lookup) RolePermissions(ctx context.Context, roleIDs []int64) ([]permission.Item, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT p.id, p.name, p.permission
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id IN (?) AND p.deleted_at IS NULL
		ORDER BY p.id`, roleIDs)
	if err != nil {
		return nil, err
	}

	items := []permission.Item{}
	if err := l.db.SelectContext(ctx, &items, l.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return items, nil
}
