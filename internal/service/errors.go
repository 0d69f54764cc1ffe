package service

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки сервисов
var (
	// ErrValidation - обертка для *ValidationError (errors.Is)
	ErrValidation = errors.New("validation failed")

	// ErrOperationNotPermitted - обертка для *NotPermittedError (errors.Is)
	ErrOperationNotPermitted = errors.New("operation not permitted")

	// ErrNoCredentialsAvailable - нет ни ключа пользователя, ни подходящего системного
	ErrNoCredentialsAvailable = errors.New("no credentials available")

	ErrAlreadyBlacklisted = errors.New("symbol already blacklisted")
	ErrNotBlacklisted     = errors.New("symbol not blacklisted")
)

// FieldViolation - нарушение ограничения одного поля
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError содержит все нарушения, найденные за одну проверку
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has - есть ли нарушение для поля
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
}

// errOrNil возвращает nil, если нарушений нет
func (e *ValidationError) errOrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// NotPermittedError - операция запрещена политикой; Reasons перечисляет все причины
type NotPermittedError struct {
	Exchange string   `json:"exchange"`
	Symbol   string   `json:"symbol"`
	Reasons  []string `json:"reasons"`
}

func (e *NotPermittedError) Error() string {
	return fmt.Sprintf("operation not permitted for %s %s: %s", e.Exchange, e.Symbol, strings.Join(e.Reasons, "; "))
}

func (e *NotPermittedError) Is(target error) bool {
	return target == ErrOperationNotPermitted
}
