// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// ErrorType represents different types of errors for handling strategies
type ErrorType int

const (
	ErrorTypeUnknown            ErrorType = iota
	ErrorTypeStatFailure                  // Metadata unreadable; item kept but not scanned
	ErrorTypeOversizeSkipped              // Larger than the size ceiling; demoted to OTHER
	ErrorTypeCorruptContainer             // Archive or mailbox failed structural validation
	ErrorTypeInvalidContainer             // Mail decoder rejected or cannot handle the container
	ErrorTypeUnsupportedEncoding          // Text could not be decoded
	ErrorTypePasswordProtected            // Entry is encrypted or otherwise unreadable
	ErrorTypeCancelled                    // Scan was cancelled or ran out of time
	ErrorTypeTransient                    // Temporary condition such as a held lock
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeStatFailure:
		return "StatFailure"
	case ErrorTypeOversizeSkipped:
		return "OversizeSkipped"
	case ErrorTypeCorruptContainer:
		return "CorruptContainer"
	case ErrorTypeInvalidContainer:
		return "InvalidContainer"
	case ErrorTypeUnsupportedEncoding:
		return "UnsupportedEncoding"
	case ErrorTypePasswordProtected:
		return "PasswordProtectedOrUnreadableEntry"
	case ErrorTypeCancelled:
		return "Cancelled"
	case ErrorTypeTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// ClassifiedError wraps an error with type information
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Path      string // Sub-path of the entry the error belongs to, if any
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	msg := e.Message
	if msg == "" && e.Original != nil {
		msg = e.Original.Error()
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable returns whether this error should be retried
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// WithPath returns a copy of e attributed to the given sub-path.
func (e *ClassifiedError) WithPath(path string) *ClassifiedError {
	c := *e
	c.Path = path
	return &c
}

func newError(t ErrorType, message string, cause error) *ClassifiedError {
	if message == "" && cause != nil {
		message = cause.Error()
	} else if cause != nil {
		message = message + ": " + cause.Error()
	}
	return &ClassifiedError{Original: cause, Type: t, Message: message}
}

// NewStatFailure records that file metadata could not be read.
func NewStatFailure(cause error) *ClassifiedError {
	return newError(ErrorTypeStatFailure, "cannot stat file", cause)
}

// NewOversizeSkipped records that a file exceeded the size ceiling.
func NewOversizeSkipped(size, ceiling int64) *ClassifiedError {
	return newError(ErrorTypeOversizeSkipped,
		fmt.Sprintf("size %d bytes exceeds ceiling of %d bytes", size, ceiling), nil)
}

// NewCorruptContainer records a structural failure of an archive or mailbox.
func NewCorruptContainer(message string, cause error) *ClassifiedError {
	return newError(ErrorTypeCorruptContainer, message, cause)
}

// NewInvalidContainer records a mail container the decoder rejected.
func NewInvalidContainer(message string, cause error) *ClassifiedError {
	return newError(ErrorTypeInvalidContainer, message, cause)
}

// NewUnsupportedEncoding records a text decoding failure.
func NewUnsupportedEncoding(message string, cause error) *ClassifiedError {
	return newError(ErrorTypeUnsupportedEncoding, message, cause)
}

// NewPasswordProtected records an encrypted or unreadable nested entry.
func NewPasswordProtected(message string, cause error) *ClassifiedError {
	return newError(ErrorTypePasswordProtected, message, cause)
}

// NewTransientError creates a new transient error
func NewTransientError(message string, cause error) *ClassifiedError {
	e := newError(ErrorTypeTransient, message, cause)
	e.Retryable = true
	return e
}

// ErrorTypeOf returns the type of err, classifying it first if needed.
func ErrorTypeOf(err error) ErrorType {
	if c := ClassifyError(err); c != nil {
		return c.Type
	}
	return ErrorTypeUnknown
}

// ClassifyError categorizes an error for appropriate handling
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	// Check if already classified
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return &ClassifiedError{Original: err, Type: ErrorTypeCancelled, Message: err.Error()}

	case errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum):
		return &ClassifiedError{Original: err, Type: ErrorTypeCorruptContainer, Message: err.Error()}

	case errors.Is(err, zip.ErrAlgorithm):
		return &ClassifiedError{Original: err, Type: ErrorTypePasswordProtected, Message: err.Error()}

	case errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist):
		return &ClassifiedError{Original: err, Type: ErrorTypeStatFailure, Message: err.Error()}

	case errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY):
		return &ClassifiedError{Original: err, Type: ErrorTypeTransient, Message: err.Error(), Retryable: true}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "password") || strings.Contains(errStr, "encrypt"):
		return &ClassifiedError{Original: err, Type: ErrorTypePasswordProtected, Message: err.Error()}
	case strings.Contains(errStr, "database is locked") || strings.Contains(errStr, "resource temporarily unavailable"):
		return &ClassifiedError{Original: err, Type: ErrorTypeTransient, Message: err.Error(), Retryable: true}
	}

	// Default to unknown, non-retryable
	return &ClassifiedError{
		Original:  err,
		Type:      ErrorTypeUnknown,
		Message:   err.Error(),
		Retryable: false,
	}
}

// IsType reports whether err classifies as t.
func IsType(err error, t ErrorType) bool {
	return err != nil && ErrorTypeOf(err) == t
}
