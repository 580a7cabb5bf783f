package service

import "errors"

// Ошибки уровня запроса; обработчики переводят их в HTTP-статусы через errors.Is.
// Всё остальное (ошибки хранилища) — 500.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrTooManyAttempts = errors.New("too many login attempts")
)
