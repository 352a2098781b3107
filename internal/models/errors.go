package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrValidation            = errors.New("validation error")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Error kinds as exposed to API callers.
const (
	KindNotFound              = "NOT_FOUND"
	KindInvalidTransition     = "INVALID_TRANSITION"
	KindValidation            = "VALIDATION_ERROR"
	KindDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	KindInternal              = "INTERNAL"
)

// Machine-readable error codes.
const (
	CodeFileEmpty             = "FILE_EMPTY"
	CodeInvalidFileType       = "INVALID_FILE_TYPE"
	CodeFileTooLarge          = "FILE_TOO_LARGE"
	CodeMissingTargetLanguage = "MISSING_TARGET_LANGUAGE"
	CodeInvalidOptions        = "INVALID_OPTIONS"
	CodeInvalidProgress       = "INVALID_PROGRESS"
	CodeInvalidJob            = "INVALID_JOB"
	CodeJobNotFound           = "JOB_NOT_FOUND"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeOutputNotReady        = "OUTPUT_NOT_READY"
	CodeUploadError           = "UPLOAD_ERROR"
	CodeDownloadError         = "DOWNLOAD_ERROR"
	CodePublishError          = "PUBLISH_ERROR"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidStatus         = "INVALID_STATUS"
)

// Error is a classified application error. Sentinel carries the kind,
// Cause the underlying failure if any.
type Error struct {
	Sentinel error
	Code     string
	Message  string
	Details  map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Sentinel, e.Cause}
	}
	return []error{e.Sentinel}
}

// NotFoundError reports a missing job.
func NotFoundError(id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Code:     CodeJobNotFound,
		Message:  fmt.Sprintf("job %s not found", id),
	}
}

// InvalidTransitionError reports a rejected status change or field write.
func InvalidTransitionError(from JobStatus, to string, reason string) error {
	return &Error{
		Sentinel: ErrInvalidTransition,
		Code:     CodeInvalidTransition,
		Message:  reason,
		Details:  map[string]string{"from": string(from), "to": to},
	}
}

// ValidationError reports malformed input.
func ValidationError(code, message string) error {
	return &Error{Sentinel: ErrValidation, Code: code, Message: message}
}

// DependencyError reports a failed call to the blob store or the delivery channel.
func DependencyError(code, op string, cause error) error {
	return &Error{
		Sentinel: ErrDependencyUnavailable,
		Code:     code,
		Message:  op + " failed",
		Cause:    cause,
	}
}

// KindOf classifies err into one of the Kind* constants.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDependencyUnavailable):
		return KindDependencyUnavailable
	default:
		return KindInternal
	}
}

// CodeOf returns the machine-readable code carried by err, or fallback.
func CodeOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return fallback
}
