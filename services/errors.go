package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Business rule sentinels. Every error returned by this package wraps one of
// them inside a ValidationError, ConflictError, NotFoundError or StoreError.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrServiceNotCompleted  = errors.New("service is not completed")
	ErrEmptyItemList        = errors.New("invoice has no items")
	ErrServiceItem          = errors.New("invoice must have exactly one service item priced at the service cost")
	ErrNegativeTotal        = errors.New("discount exceeds invoice value")
	ErrMissingPaymentMethod = errors.New("payment method is required")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrUnknownCategory      = errors.New("unknown expense category")
	ErrAmountPrecision      = errors.New("amount has more than two decimal places")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateInvoice  = errors.New("service already has an invoice")
	ErrOverpayment       = errors.New("payment exceeds remaining balance")
	ErrInvoiceVoid       = errors.New("invoice is void")
	ErrInvoiceHasPayment = errors.New("invoice has payments")
	ErrConcurrentUpdate  = errors.New("record was modified concurrently")
	ErrDuplicateRecord   = errors.New("record already exists")

	ErrNotFound = errors.New("not found")
	ErrStore    = errors.New("record store failure")
)

// ValidationError reports malformed or missing input. No write was attempted.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string { return format(e.Err, e.Details) }
func (e *ValidationError) Unwrap() error { return e.Err }

// ConflictError reports input that is well formed but violates current state.
type ConflictError struct {
	Err     error
	Details string
}

func (e *ConflictError) Error() string { return format(e.Err, e.Details) }
func (e *ConflictError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StoreError wraps a failure of the database. Op names the step that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

func format(err error, details string) string {
	if details != "" {
		return fmt.Sprintf("%s: %s", err.Error(), details)
	}
	return err.Error()
}

func invalid(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Details: fmt.Sprintf(format, args...)}
}

// minorUnits reports whether d fits the two-decimal numeric columns money is
// stored in, so the database never rounds it.
func minorUnits(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func conflict(err error, format string, args ...any) error {
	return &ConflictError{Err: err, Details: fmt.Sprintf(format, args...)}
}

// IsTyped reports whether err already carries one of the four error kinds.
func IsTyped(err error) bool {
	var (
		v *ValidationError
		c *ConflictError
		n *NotFoundError
		s *StoreError
	)
	return errors.As(err, &v) || errors.As(err, &c) || errors.As(err, &n) || errors.As(err, &s)
}

// storeErr wraps err as a StoreError unless it is already typed.
func storeErr(op string, err error) error {
	if err == nil || IsTyped(err) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(ErrDuplicateRecord, "%s", op)
	}
	return &StoreError{Op: op, Err: err}
}

// lookupErr turns a missing-row error into a NotFoundError.
func lookupErr(entity string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id.String()}
	}
	return storeErr("find "+entity, err)
}
