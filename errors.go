// errors.go: error handling for reftable operations
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for table construction and iteration.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package reftable

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for reftable operations
const (
	// Configuration errors
	ErrCodeInvalidConfig     errors.ErrorCode = "REFTABLE_INVALID_CONFIG"
	ErrCodeInvalidCapacity   errors.ErrorCode = "REFTABLE_INVALID_CAPACITY"
	ErrCodeInvalidLoadFactor errors.ErrorCode = "REFTABLE_INVALID_LOAD_FACTOR"
	ErrCodeInvalidStrength   errors.ErrorCode = "REFTABLE_INVALID_STRENGTH"

	// Iteration errors
	ErrCodeConcurrentModification errors.ErrorCode = "REFTABLE_CONCURRENT_MODIFICATION"
	ErrCodeIllegalState           errors.ErrorCode = "REFTABLE_ILLEGAL_STATE"
	ErrCodeNoSuchElement          errors.ErrorCode = "REFTABLE_NO_SUCH_ELEMENT"

	// Monitor errors
	ErrCodeMonitorRunning errors.ErrorCode = "REFTABLE_MONITOR_RUNNING"
	ErrCodeMonitorStopped errors.ErrorCode = "REFTABLE_MONITOR_STOPPED"
)

// Common error messages
const (
	msgInvalidCapacity        = "invalid initial capacity: must be >= 0"
	msgInvalidLoadFactor      = "invalid load factor: must be positive and finite"
	msgInvalidStrength        = "invalid reclamation strength"
	msgConcurrentModification = "table was structurally modified during iteration"
	msgIllegalState           = "iterator remove called without a preceding next"
	msgNoSuchElement          = "iterator has no more elements"
	msgMonitorRunning         = "pressure monitor is already running"
	msgMonitorStopped         = "pressure monitor is not running"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidCapacity creates an error for a negative initial capacity
func NewErrInvalidCapacity(capacity int) error {
	return errors.NewWithContext(ErrCodeInvalidCapacity, msgInvalidCapacity, map[string]interface{}{
		"provided_capacity": capacity,
		"minimum_required":  0,
	})
}

// NewErrInvalidLoadFactor creates an error for a non-positive, NaN or infinite load factor
func NewErrInvalidLoadFactor(loadFactor float64) error {
	return errors.NewWithContext(ErrCodeInvalidLoadFactor, msgInvalidLoadFactor, map[string]interface{}{
		"provided_load_factor": loadFactor,
		"valid_range":          "0 < load factor < +Inf",
	})
}

// NewErrInvalidStrength creates an error for an unknown Strength value
func NewErrInvalidStrength(s Strength) error {
	return errors.NewWithContext(ErrCodeInvalidStrength, msgInvalidStrength, map[string]interface{}{
		"provided_strength": uint8(s),
	})
}

// =============================================================================
// ITERATION ERRORS
// =============================================================================

// NewErrConcurrentModification creates an error raised by an iterator whose
// table changed outside the iterator's own Remove.
func NewErrConcurrentModification(expected, actual int) error {
	return errors.NewWithContext(ErrCodeConcurrentModification, msgConcurrentModification, map[string]interface{}{
		"expected_mod_count": expected,
		"actual_mod_count":   actual,
	}).WithSeverity("critical")
}

// NewErrIllegalState creates an error for Remove without a preceding Next
func NewErrIllegalState(operation string) error {
	return errors.NewWithContext(ErrCodeIllegalState, msgIllegalState, map[string]interface{}{
		"operation": operation,
	})
}

// NewErrNoSuchElement creates an error for Next on an exhausted iterator
func NewErrNoSuchElement(operation string) error {
	return errors.NewWithContext(ErrCodeNoSuchElement, msgNoSuchElement, map[string]interface{}{
		"operation": operation,
	})
}

// =============================================================================
// MONITOR ERRORS
// =============================================================================

// NewErrMonitorRunning creates an error for starting a running monitor
func NewErrMonitorRunning() error {
	return errors.NewWithContext(ErrCodeMonitorRunning, msgMonitorRunning, map[string]interface{}{
		"operation": "Start",
	})
}

// NewErrMonitorStopped creates an error for stopping a monitor that is not running
func NewErrMonitorStopped() error {
	return errors.NewWithContext(ErrCodeMonitorStopped, msgMonitorStopped, map[string]interface{}{
		"operation": "Stop",
	})
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsConcurrentModification checks if error is a fail-fast iteration error
func IsConcurrentModification(err error) bool {
	return errors.HasCode(err, ErrCodeConcurrentModification)
}

// IsIllegalState checks if error is an illegal iterator state error
func IsIllegalState(err error) bool {
	return errors.HasCode(err, ErrCodeIllegalState)
}

// IsNoSuchElement checks if error reports an exhausted iterator
func IsNoSuchElement(err error) bool {
	return errors.HasCode(err, ErrCodeNoSuchElement)
}

// IsConfigError checks if error is a configuration error
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidConfig || code == ErrCodeInvalidCapacity ||
			code == ErrCodeInvalidLoadFactor || code == ErrCodeInvalidStrength
	}
	return false
}

// IsIterationError checks if error was raised by an iterator
func IsIterationError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeConcurrentModification || code == ErrCodeIllegalState ||
			code == ErrCodeNoSuchElement
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
	var tableErr *errors.Error
	if goerrors.As(err, &tableErr) {
		return tableErr.Context
	}
	return nil
}
