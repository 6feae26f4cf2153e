package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// Workflow errors. They wrap the generic sentinels so callers can
// match either the specific condition or the broad class.
var (
	ErrSelfTransfer           = fmt.Errorf("%w: sender and receiver are the same user", ErrValidation)
	ErrUserDisabled           = fmt.Errorf("%w: user is disabled", ErrConflict)
	ErrLastAlias              = fmt.Errorf("%w: cannot delete the last alias of a user", ErrConflict)
	ErrSelfVote               = fmt.Errorf("%w: creators cannot vote on their own ballots", ErrForbidden)
	ErrExternalVoter          = fmt.Errorf("%w: only internal users may vote", ErrForbidden)
	ErrPollClosed             = fmt.Errorf("%w: ballot is no longer active", ErrConflict)
	ErrAlreadyVouched         = fmt.Errorf("%w: user already has a voucher", ErrConflict)
	ErrNotVouching            = fmt.Errorf("%w: user is not vouching for this user", ErrConflict)
	ErrAlreadyInternal        = fmt.Errorf("%w: user is already internal", ErrConflict)
	ErrVoucherHasDebt         = fmt.Errorf("%w: vouched user has a negative balance", ErrConflict)
	ErrDuplicateActiveRefund  = fmt.Errorf("%w: user already has an active refund", ErrConflict)
	ErrDuplicateActivePoll    = fmt.Errorf("%w: user already has an active membership poll", ErrConflict)
	ErrDuplicateActiveCommune = fmt.Errorf("%w: user already has an active communism", ErrConflict)
	ErrNoParticipants         = fmt.Errorf("%w: communism has no participants with shares", ErrConflict)
	ErrNotParticipating       = fmt.Errorf("%w: user is not a participant", ErrConflict)
	ErrUnknownApplication     = fmt.Errorf("%w: unknown application", ErrUnauthorized)
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
