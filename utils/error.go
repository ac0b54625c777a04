package utils

import (
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError rejects bad input shape/range before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthorizationError marks a tenant/ownership mismatch.
type AuthorizationError struct {
	Resource string
	Id       int
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s %d does not belong to this business", e.Resource, e.Id)
}

// ConflictError covers duplicate numbers, double-matches and re-runs of
// completed periods. Not retryable without a fresh read.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func NewConflictError(reason string) error {
	return &ConflictError{Reason: reason}
}

// PartialFailureError reports a multi-step post that succeeded partway.
// It must never be hidden behind a generic success response; operators need
// the completed step to reconcile manually.
type PartialFailureError struct {
	Op            string
	CompletedStep string
	Err           error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s failed after %s: %v", e.Op, e.CompletedStep, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// CapabilityDeniedError rejects an operation the tenant's plan does not allow.
type CapabilityDeniedError struct {
	Capability string
	Reason     string
}

func (e *CapabilityDeniedError) Error() string {
	return fmt.Sprintf("plan limit: %s denied (%s)", e.Capability, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAuthorizationError(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsPartialFailureError(err error) bool {
	var pe *PartialFailureError
	return errors.As(err, &pe)
}

func IsCapabilityDeniedError(err error) bool {
	var cde *CapabilityDeniedError
	return errors.As(err, &cde)
}

// IsDuplicateKeyErr detects MySQL error 1062. Uniqueness conflicts are caught
// here rather than by pre-checks alone, to close race windows.
func IsDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
