package services

import "errors"

// Ошибки уровня бизнес-правил. Конкретный случай оборачивается через
// fmt.Errorf("%w: ..."), обработчики сводят их к HTTP-статусам по errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpired            = errors.New("expired")
	ErrDelivery           = errors.New("delivery failed")
)
