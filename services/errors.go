package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindInvalidState         ErrorKind = "invalid_state"
	KindValidationFailed     ErrorKind = "validation_failed"
	KindInsufficientStock    ErrorKind = "insufficient_stock"
	KindAmountExceedsBalance ErrorKind = "amount_exceeds_balance"
	KindShiftAlreadyOpen     ErrorKind = "shift_already_open"
	KindNoOpenShift          ErrorKind = "no_open_shift"
	KindConcurrencyConflict  ErrorKind = "concurrency_conflict"
	KindNoPendingItems       ErrorKind = "no_pending_items"
	KindForbidden            ErrorKind = "forbidden"
)

// ServiceError is the typed failure returned by every core operation.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	// Index of the failing request item, -1 when not item specific
	Index int
	Err   error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ReplaceAll(string(e.Kind), "_", " ")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) match on Kind alone.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound             = &ServiceError{Kind: KindNotFound, Index: -1}
	ErrInvalidState         = &ServiceError{Kind: KindInvalidState, Index: -1}
	ErrValidationFailed     = &ServiceError{Kind: KindValidationFailed, Index: -1}
	ErrInsufficientStock    = &ServiceError{Kind: KindInsufficientStock, Index: -1}
	ErrAmountExceedsBalance = &ServiceError{Kind: KindAmountExceedsBalance, Index: -1}
	ErrShiftAlreadyOpen     = &ServiceError{Kind: KindShiftAlreadyOpen, Index: -1}
	ErrNoOpenShift          = &ServiceError{Kind: KindNoOpenShift, Index: -1}
	ErrConcurrencyConflict  = &ServiceError{Kind: KindConcurrencyConflict, Index: -1}
	ErrNoPendingItems       = &ServiceError{Kind: KindNoPendingItems, Index: -1}
	ErrForbidden            = &ServiceError{Kind: KindForbidden, Index: -1}
)

func newError(kind ErrorKind, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...), Index: -1}
}

func itemError(kind ErrorKind, index int, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...), Index: index}
}

// KindOf returns the kind of a ServiceError anywhere in err's chain, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// notFoundOr maps gorm.ErrRecordNotFound to NotFound and wraps anything else.
func notFoundOr(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(KindNotFound, "%s %d not found", entity, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", entity, id, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
