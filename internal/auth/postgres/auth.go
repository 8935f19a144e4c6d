package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "github.com/qnxg/yqwork/internal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// GetCredentials resolves a login name (the student id) to the stored hash.
func (r *Repository) GetCredentials(ctx context.Context, username string) (int64, string, error) {
	var (
		userID       int64
		passwordHash string
	)
	query := `SELECT id, password_hash FROM users WHERE stu_id = ? AND deleted_at IS NULL`

	row := r.db.WithContext(ctx).Raw(query, username).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", apperrors.ErrInvalidCredentials
		}
		return 0, "", err
	}
	return userID, passwordHash, nil
}
