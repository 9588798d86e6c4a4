package customerror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const unknownErrorMessage = "unknown error"

type CustomError interface {
	Error() string
	GetHTTPCode() int
}

type UniqueViolationError struct {
	httpCode int
	message  string
}

func NewUniqueViolationError(msg string) *UniqueViolationError {
	return &UniqueViolationError{httpCode: http.StatusConflict, message: msg}
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique violation: %s", e.message)
}

func (e *UniqueViolationError) GetHTTPCode() int {
	return e.httpCode
}

type CommonPGError struct {
	httpCode int
	message  string
	cause    error
}

func NewCommonPGError(err error) *CommonPGError {
	return &CommonPGError{httpCode: http.StatusInternalServerError, message: Describe(err), cause: err}
}

func (e *CommonPGError) Error() string {
	return e.message
}

func (e *CommonPGError) Unwrap() error {
	return e.cause
}

func (e *CommonPGError) GetHTTPCode() int {
	return e.httpCode
}

type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{message: msg}
}

func (e *NotFoundError) Error() string {
	return e.message
}

func (e *NotFoundError) GetHTTPCode() int {
	return http.StatusNotFound
}

type ValidationError struct {
	message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{message: msg}
}

func (e *ValidationError) Error() string {
	return e.message
}

func (e *ValidationError) GetHTTPCode() int {
	return http.StatusUnprocessableEntity
}

// FollowUpError означает, что статус заказа уже сохранён, но пересчёт счёта
// или запись события не удались. Операцию можно повторить через resync.
type FollowUpError struct {
	OrderID int64
	cause   error
}

func NewFollowUpError(orderID int64, cause error) *FollowUpError {
	return &FollowUpError{OrderID: orderID, cause: cause}
}

func (e *FollowUpError) Error() string {
	return fmt.Sprintf("order %d was saved, follow-up steps failed: %s", e.OrderID, Describe(e.cause))
}

func (e *FollowUpError) Unwrap() error {
	return e.cause
}

func (e *FollowUpError) GetHTTPCode() int {
	return http.StatusAccepted
}

// Describe возвращает читаемое описание ошибки. Для ошибок Postgres собирает
// message, detail, hint и code, иначе берёт текст ошибки.
func Describe(err error) string {
	if err == nil {
		return unknownErrorMessage
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		parts := make([]string, 0, 4)
		if pgErr.Message != "" {
			parts = append(parts, pgErr.Message)
		}
		if pgErr.Detail != "" {
			parts = append(parts, "detail: "+pgErr.Detail)
		}
		if pgErr.Hint != "" {
			parts = append(parts, "hint: "+pgErr.Hint)
		}
		if pgErr.Code != "" {
			parts = append(parts, "code: "+pgErr.Code)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return unknownErrorMessage
}

// HTTPCode возвращает код ответа для ошибки, 500 для неизвестных.
func HTTPCode(err error) int {
	var customErr CustomError
	if errors.As(err, &customErr) {
		return customErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}
