package models

import "time"

// PasswordResetToken — одна живая запись на email, перезаписывается при
// каждом новом запросе. Храним только SHA-256 хэш токена.
type PasswordResetToken struct {
	Email     string     `json:"email"`
	TokenHash string     `json:"-"`
	CreatedAt *time.Time `json:"created_at"`
}
