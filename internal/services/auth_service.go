package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"accounthub/internal/config"
	"accounthub/internal/models"
	"accounthub/internal/repositories"
	"accounthub/internal/utils"
)

// сколько раз перегенерируем реферальный код при коллизии
const maxReferralCodeAttempts = 3

const (
	MsgEmailVerified         = "Email verified successfully"
	MsgVerificationEmailSent = "Verification email sent"
	MsgPasswordResetLinkSent = "If an account with that email exists, a password reset link has been sent"
	MsgPasswordResetOK       = "Password has been reset successfully"
)

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyEmail(ctx context.Context, id, hash string) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (string, error)
}

type authService struct {
	users  repositories.UserRepository
	resets repositories.PasswordResetRepository
	emails EmailService
	tokens TokenService
	cfg    config.AuthConfig
}

func NewAuthService(
	users repositories.UserRepository,
	resets repositories.PasswordResetRepository,
	emails EmailService,
	tokens TokenService,
	cfg config.AuthConfig,
) AuthService {
	return &authService{
		users:  users,
		resets: resets,
		emails: emails,
		tokens: tokens,
		cfg:    cfg,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if req.Password != req.PasswordConfirmation {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	email := normalizeEmail(req.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	}

	var referredBy *string
	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := s.users.GetByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: invalid referral code", ErrValidation)
			}
			return nil, err
		}
		referredBy = &referrer.ReferralCode
	}

	passwordHash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      false,
		ReferredBy:   referredBy,
	}

	// Вставка под защитой уникальных индексов: гонка двух одинаковых
	// регистраций разрешается на стороне БД, не здесь.
	for attempt := 0; ; attempt++ {
		user.ReferralCode, err = utils.NewReferralCode()
		if err != nil {
			return nil, err
		}
		err = s.users.Create(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		if errors.Is(err, repositories.ErrDuplicateReferralCode) && attempt < maxReferralCodeAttempts-1 {
			continue
		}
		return nil, err
	}

	// warn but do not fail registration
	if err := s.sendVerificationEmail(user); err != nil {
		log.Printf("[auth][register] warning: failed to send verification email to %s: %v", user.Email, err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// не раскрываем, чего именно не хватило
			return nil, fmt.Errorf("%w: invalid email or password", ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrInvalidCredentials)
	}

	// порядок как в проде: сперва пароль, затем статус верификации
	if !user.Verified() {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidCredentials)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := s.tokens.Mint(user, s.cfg.SessionTTL())
	if err != nil {
		return nil, err
	}

	log.Printf("[auth][login] success userID=%s", user.ID)
	return &LoginResult{AccessToken: token, User: user}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, id, hash string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: invalid verification link", ErrNotFound)
		}
		return err
	}

	// повторная верификация — явная ошибка, не no-op
	if user.Verified() {
		return fmt.Errorf("%w: email already verified", ErrConflict)
	}

	expected := utils.VerificationHash(s.cfg.AppSecret, user.ID, user.Email, user.CreatedAt)
	if !utils.HashEqual(hash, expected) {
		return fmt.Errorf("%w: invalid verification link", ErrValidation)
	}

	if time.Since(user.CreatedAt) > s.cfg.VerificationExpiry() {
		return fmt.Errorf("%w: verification link expired", ErrExpired)
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrAlreadyVerified) {
			return fmt.Errorf("%w: email already verified", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return err
	}
	if user.Verified() {
		return fmt.Errorf("%w: email already verified", ErrConflict)
	}
	// ссылка детерминированная, так что переотправка отдаёт тот же hash
	if err := s.sendVerificationEmail(user); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// ответ не должен выдавать существование аккаунта
			log.Printf("[auth][forgot] request for unknown email")
			return MsgPasswordResetLinkSent, nil
		}
		return "", err
	}

	rawToken, err := utils.NewResetToken(32)
	if err != nil {
		return "", err
	}
	if err := s.resets.Upsert(ctx, email, utils.HashToken(rawToken), time.Now()); err != nil {
		return "", err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		s.cfg.FrontendURL, rawToken, url.QueryEscape(email))
	if err := s.emails.SendPasswordResetEmail(user.Email, user.Name, resetURL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return MsgPasswordResetLinkSent, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (string, error) {
	if req.Password != req.PasswordConfirmation {
		return "", fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	email := normalizeEmail(req.Email)

	record, err := s.resets.GetByEmailAndHash(ctx, email, utils.HashToken(req.Token))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid or expired reset token", ErrInvalidToken)
		}
		return "", err
	}

	// запись без created_at — битая, ей не доверяем
	if record.CreatedAt == nil {
		if err := s.resets.DeleteByEmail(ctx, email); err != nil {
			log.Printf("[auth][reset] failed to purge corrupt token for %s: %v", email, err)
		}
		return "", fmt.Errorf("%w: invalid or expired reset token", ErrInvalidToken)
	}

	if time.Since(*record.CreatedAt) > s.cfg.ResetExpiry() {
		if err := s.resets.DeleteByEmail(ctx, email); err != nil {
			log.Printf("[auth][reset] failed to purge expired token for %s: %v", email, err)
		}
		return "", fmt.Errorf("%w: reset token expired", ErrExpired)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid or expired reset token", ErrInvalidToken)
		}
		return "", err
	}

	passwordHash, err := s.hashPassword(req.Password)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return "", err
	}

	// single use: токен живёт ровно до первого успешного сброса
	if err := s.resets.DeleteByEmail(ctx, email); err != nil {
		return "", err
	}

	return MsgPasswordResetOK, nil
}

func (s *authService) sendVerificationEmail(user *models.User) error {
	hash := utils.VerificationHash(s.cfg.AppSecret, user.ID, user.Email, user.CreatedAt)
	link := fmt.Sprintf("%s/verify-email/%s/%s", s.cfg.FrontendURL, user.ID, hash)
	return s.emails.SendVerificationEmail(user.Email, user.Name, link)
}

func (s *authService) hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
