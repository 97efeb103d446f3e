// errors.go: error handling for naming lookups and the locator manager
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package locator

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for locator operations
const (
	// Configuration errors
	ErrCodeInvalidConfig  errors.ErrorCode = "LOCATOR_INVALID_CONFIG"
	ErrCodeInvalidFactory errors.ErrorCode = "LOCATOR_INVALID_FACTORY"
	ErrCodeUnknownFactory errors.ErrorCode = "LOCATOR_UNKNOWN_FACTORY"
	ErrCodeInvalidName    errors.ErrorCode = "LOCATOR_INVALID_NAME"

	// Lookup errors
	ErrCodeNameNotFound errors.ErrorCode = "LOCATOR_NAME_NOT_FOUND"
	ErrCodeLookupFailed errors.ErrorCode = "LOCATOR_LOOKUP_FAILED"
	ErrCodeTypeMismatch errors.ErrorCode = "LOCATOR_TYPE_MISMATCH"
	ErrCodeClosed       errors.ErrorCode = "LOCATOR_CLOSED"

	// Construction errors
	ErrCodeFactoryFailed  errors.ErrorCode = "LOCATOR_FACTORY_FAILED"
	ErrCodePanicRecovered errors.ErrorCode = "LOCATOR_PANIC_RECOVERED"
)

const (
	msgInvalidConfig  = "invalid locator configuration"
	msgInvalidFactory = "factory name must be non-empty and factory must be non-nil"
	msgUnknownFactory = "no naming context factory registered under this name"
	msgInvalidName    = "lookup name must not be empty"
	msgNameNotFound   = "name is not bound in the naming context"
	msgLookupFailed   = "naming context lookup failed"
	msgTypeMismatch   = "bound object has an unexpected type"
	msgClosed         = "naming context is closed"
	msgFactoryFailed  = "naming context factory failed"
	msgPanicRecovered = "panic recovered in naming context factory"
)

// NewErrInvalidConfig creates an error for an invalid configuration field
func NewErrInvalidConfig(field string, value interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field": field,
		"value": value,
	})
}

// NewErrInvalidFactory creates an error for an empty factory name or nil factory
func NewErrInvalidFactory(name string) error {
	return errors.NewWithContext(ErrCodeInvalidFactory, msgInvalidFactory, map[string]interface{}{
		"factory": name,
	})
}

// NewErrUnknownFactory creates an error for an environment naming an
// unregistered factory
func NewErrUnknownFactory(name string) error {
	return errors.NewWithContext(ErrCodeUnknownFactory, msgUnknownFactory, map[string]interface{}{
		"factory": name,
	})
}

// NewErrInvalidName creates an error for an empty lookup name
func NewErrInvalidName(operation string) error {
	return errors.NewWithContext(ErrCodeInvalidName, msgInvalidName, map[string]interface{}{
		"operation": operation,
	})
}

// NewErrNameNotFound creates an error for a name with no binding.
// A later lookup may succeed once the name is bound.
func NewErrNameNotFound(name string) error {
	return errors.NewWithContext(ErrCodeNameNotFound, msgNameNotFound, map[string]interface{}{
		"name": name,
	}).
		AsRetryable()
}

// NewErrLookupFailed wraps an error returned by a naming context
func NewErrLookupFailed(name string, cause error) error {
	return errors.Wrap(cause, ErrCodeLookupFailed, msgLookupFailed).
		WithContext("name", name).
		AsRetryable()
}

// NewErrTypeMismatch creates an error for a bound object of the wrong type
func NewErrTypeMismatch(name string, want string, got interface{}) error {
	return errors.NewWithContext(ErrCodeTypeMismatch, msgTypeMismatch, map[string]interface{}{
		"name":     name,
		"expected": want,
		"actual":   fmt.Sprintf("%T", got),
	})
}

// NewErrClosed creates an error for an operation on a closed context or locator
func NewErrClosed(operation string) error {
	return errors.NewWithContext(ErrCodeClosed, msgClosed, map[string]interface{}{
		"operation": operation,
	})
}

// NewErrFactoryFailed wraps an error returned by a naming context factory.
// Failures are not cached, so the next request for the same environment
// calls the factory again.
func NewErrFactoryFailed(envKey string, cause error) error {
	return errors.Wrap(cause, ErrCodeFactoryFailed, msgFactoryFailed).
		WithContext("environment", envKey).
		AsRetryable()
}

// NewErrPanicRecovered creates an error for a factory that panicked
func NewErrPanicRecovered(envKey string, value interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"environment": envKey,
		"panic_value": fmt.Sprintf("%v", value),
	}).WithSeverity("critical")
}

// IsNotFound checks if error reports a missing binding
func IsNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeNameNotFound)
}

// IsTypeMismatch checks if error reports a failed type assertion
func IsTypeMismatch(err error) bool {
	return errors.HasCode(err, ErrCodeTypeMismatch)
}

// IsClosed checks if error reports a closed context or locator
func IsClosed(err error) bool {
	return errors.HasCode(err, ErrCodeClosed)
}

// IsFactoryError checks if error was raised while building a naming context
func IsFactoryError(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeInvalidFactory, ErrCodeUnknownFactory, ErrCodeFactoryFailed, ErrCodePanicRecovered:
		return true
	}
	return false
}

// IsRetryable checks if the error can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var locErr *errors.Error
	if goerrors.As(err, &locErr) {
		return locErr.Context
	}
	return nil
}
