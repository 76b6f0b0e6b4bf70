package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	// ErrDomain marca una invariante interna rota; con entrada validada no deberia ocurrir.
	ErrDomain = errors.New("domain invariant violated")
)

// ValidationError describe una entrada rechazada. Items lista los numeros de
// pregunta involucrados cuando se pueden identificar.
type ValidationError struct {
	Reason string
	Items  []int
}

func (e *ValidationError) Error() string {
	if len(e.Items) == 0 {
		return e.Reason
	}
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		parts[i] = fmt.Sprint(item)
	}
	return fmt.Sprintf("%s (items: %s)", e.Reason, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(reason string, items ...int) *ValidationError {
	return &ValidationError{Reason: reason, Items: items}
}
