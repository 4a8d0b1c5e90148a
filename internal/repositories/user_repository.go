package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"accounthub/internal/models"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateEmail        = errors.New("duplicate email")
	ErrDuplicateReferralCode = errors.New("duplicate referral code")
	ErrAlreadyVerified       = errors.New("already verified")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)

	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, password_hash, is_admin, avatar_url,
	email_verified_at, last_login_at,
	referral_code, referred_by,
	created_at, updated_at, deleted_at
`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			id, name, email, password_hash, is_admin, avatar_url,
			referral_code, referred_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.AvatarURL,
		user.ReferralCode,
		user.ReferredBy,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, email))
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1 AND deleted_at IS NULL`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, code))
}

// MarkEmailVerified stamps the account exactly once: a second call finds no
// row with a NULL email_verified_at and reports ErrAlreadyVerified.
func (r *userRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	const q = `
		UPDATE users
		SET email_verified_at=$2, updated_at=NOW()
		WHERE id=$1 AND email_verified_at IS NULL AND deleted_at IS NULL
	`
	res, err := r.DB.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyVerified
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at=$2, updated_at=NOW()
		WHERE id=$1 AND deleted_at IS NULL
	`
	_, err := r.DB.ExecContext(ctx, q, id, at)
	return err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash=$2, updated_at=NOW()
		WHERE id=$1 AND deleted_at IS NULL
	`
	_, err := r.DB.ExecContext(ctx, q, id, passwordHash)
	return err
}

func (r *userRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		avatarURL  sql.NullString
		verifiedAt sql.NullTime
		lastLogin  sql.NullTime
		referredBy sql.NullString
		deletedAt  sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &avatarURL,
		&verifiedAt, &lastLogin,
		&u.ReferralCode, &referredBy,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if avatarURL.Valid {
		s := avatarURL.String
		u.AvatarURL = &s
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	if referredBy.Valid {
		s := referredBy.String
		u.ReferredBy = &s
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return u, nil
}

// mapUniqueViolation переводит нарушение уникального индекса в доменную
// ошибку — это и есть защита от гонки "проверили, потом вставили".
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_active_idx":
			return ErrDuplicateEmail
		case "users_referral_code_active_idx":
			return ErrDuplicateReferralCode
		}
	}
	return err
}
