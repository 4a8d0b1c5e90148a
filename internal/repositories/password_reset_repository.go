package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"accounthub/internal/models"
)

type PasswordResetRepository interface {
	Upsert(ctx context.Context, email, tokenHash string, createdAt time.Time) error
	GetByEmailAndHash(ctx context.Context, email, tokenHash string) (*models.PasswordResetToken, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

// Upsert keeps at most one live token per email: a second forgot-password
// request overwrites the previous row, invalidating the earlier token.
func (r *passwordResetRepository) Upsert(ctx context.Context, email, tokenHash string, createdAt time.Time) error {
	const q = `
                INSERT INTO password_reset_tokens (email, token, created_at)
                VALUES ($1, $2, $3)
                ON CONFLICT (email) DO UPDATE SET token = $2, created_at = $3
        `
	_, err := r.DB.ExecContext(ctx, q, email, tokenHash, createdAt)
	return err
}

func (r *passwordResetRepository) GetByEmailAndHash(ctx context.Context, email, tokenHash string) (*models.PasswordResetToken, error) {
	const q = `
                SELECT email, token, created_at
                FROM password_reset_tokens
                WHERE email = $1 AND token = $2
        `
	pr := &models.PasswordResetToken{}
	var createdAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, email, tokenHash).Scan(&pr.Email, &pr.TokenHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if createdAt.Valid {
		t := createdAt.Time
		pr.CreatedAt = &t
	}
	return pr, nil
}

func (r *passwordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, email)
	return err
}
