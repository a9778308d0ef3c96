// Package core provides the business logic for salary table imports and lookups.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
//
//	NF001   - Not found: No salary cell matches the request
//	          Action: Check table, Entgeltgruppe and Stufe against /groups and /steps
//
//	VAL001  - Missing column: The grade column is missing from the CSV header
//	          Action: Check that the file has an Entgeltgruppe column
//
//	VAL002  - Non-positive salary: A salary is zero or negative after cleaning
//	          Action: Correct the amount in the source file
//
//	VAL003  - Invalid parameter: A query parameter is missing or malformed
//	          Action: Provide table, group and an integer step
//
//	VAL004  - Invalid file: The CSV could not be parsed
//	          Action: Ensure the file is semicolon-separated with a header row
//
//	STO001  - Storage unavailable: The salaries table is missing or unreachable
//	          Action: Run an import, then try again
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//
//	ERR000  - Unknown error: An unexpected error occurred
//	          Action: Please try again or contact support
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no stored row matches a lookup.
	ErrNotFound = errors.New("salary cell not found")

	// ErrStorageUnavailable is returned when the backing table is missing
	// or the store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRateLimited is returned by the transport layer when a client is throttled.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgNotFound = UserMessage{
		Message: "No salary data matches the request",
		Action:  "Check table, Entgeltgruppe and Stufe against the available values",
		Code:    "NF001",
	}
	msgMissingColumn = UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Check that the file has an Entgeltgruppe column",
		Code:    "VAL001",
	}
	msgNonPositive = UserMessage{
		Message: "A salary amount is zero or negative",
		Action:  "Correct the amount in the source file",
		Code:    "VAL002",
	}
	msgInvalidParam = UserMessage{
		Message: "A request parameter is missing or invalid",
		Action:  "Provide table, group and an integer step",
		Code:    "VAL003",
	}
	msgInvalidFile = UserMessage{
		Message: "The file could not be read as CSV",
		Action:  "Ensure the file is semicolon-separated with a header row",
		Code:    "VAL004",
	}
	msgStorage = UserMessage{
		Message: "Salary data is not available right now",
		Action:  "Run an import, then try again",
		Code:    "STO001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// defaultMessage is returned when no specific classification applies.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns the default message for unclassified errors.
func MapError(err error) UserMessage {
	if err == nil {
		return defaultMessage
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrStorageUnavailable):
		return msgStorage
	case errors.Is(err, ErrRateLimited):
		return msgRateLimited
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case KindMissingColumn:
			return msgMissingColumn
		case KindNonPositive:
			return msgNonPositive
		case KindMalformedFile:
			return msgInvalidFile
		default:
			return msgInvalidParam
		}
	}

	return defaultMessage
}

// MapErrorWithDetail returns a user message that includes the validation
// detail when the error carries one. Storage and unknown errors keep their
// generic text so internals are not leaked.
func MapErrorWithDetail(err error) UserMessage {
	msg := MapError(err)

	var ve *ValidationError
	if errors.As(err, &ve) {
		msg.Message = fmt.Sprintf("%s: %s", msg.Message, ve.Error())
	}
	return msg
}

// IsClientError reports whether err should be surfaced as a 4xx response.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrNotFound) || errors.As(err, &ve)
}

// notFoundf wraps ErrNotFound with context.
func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// IsMissingTableMessage reports whether a driver error message says the
// queried table does not exist. Used by stores that only expose text errors.
func IsMissingTableMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}
