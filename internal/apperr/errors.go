package apperr

import (
	"errors"
	"net/http"
)

// Общие ошибки сервиса
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrLedgerRejected    = errors.New("ledger rejected")
	ErrStorage           = errors.New("storage error")
)

// HTTPStatus возвращает HTTP-статус для ошибки
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrLedgerRejected):
		return http.StatusBadGateway
	case errors.Is(err, ErrLedgerUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable сообщает, можно ли повторить операцию без изменения входных данных
func Retryable(err error) bool {
	return errors.Is(err, ErrLedgerUnavailable)
}
