package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeBusinessRule  ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeBusinessRule:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsBusinessRule(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeBusinessRule
}

var (
	ErrRequestNotFound      = New(ErrCodeNotFound, "заявка не найдена")
	ErrMechanicNotFound     = New(ErrCodeNotFound, "механик не найден")
	ErrVehicleNotFound      = New(ErrCodeNotFound, "транспорт не найден")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrInvalidTransition    = New(ErrCodeBusinessRule, "недопустимый переход статуса заявки")
	ErrMechanicUnavailable  = New(ErrCodeBusinessRule, "механик сейчас недоступен")
	ErrInsufficientBalance  = New(ErrCodeBusinessRule, "недостаточно средств на балансе")
	ErrEmailAlreadyExists   = New(ErrCodeConflict, "email уже зарегистрирован")
	ErrPricingRequired      = New(ErrCodeBusinessRule, "стоимость работ ещё не указана клиентом")
)
