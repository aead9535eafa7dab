// File: internal/agent/errors.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// Kind is the classification assigned to a failure raised on the planning
// path. Using a custom type ensures only predefined constants can appear
// where a Kind is expected.
type Kind string

const (
	KindAuthentication Kind = "AUTHENTICATION"
	KindBadRequest     Kind = "BAD_REQUEST"
	KindCancelled      Kind = "CANCELLED"
	KindForbidden      Kind = "FORBIDDEN"
	KindUnclassified   Kind = "UNCLASSIFIED"
)

// ForbiddenMessage is the fixed user-facing text for forbidden failures.
// The raw provider message is deliberately not surfaced.
const ForbiddenMessage = "Access denied. Your account may not have permission to use the requested model."

// AuthenticationError indicates invalid or expired credentials. Never
// retried automatically; the user must fix their credentials.
type AuthenticationError struct{ Err error }

func (e *AuthenticationError) Error() string { return "authentication failed: " + e.Err.Error() }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// BadRequestError indicates the provider rejected a malformed request.
// Not recoverable by retry.
type BadRequestError struct{ Err error }

func (e *BadRequestError) Error() string { return "bad request: " + e.Err.Error() }
func (e *BadRequestError) Unwrap() error { return e.Err }

// ForbiddenError indicates access was denied to the requested resource or
// model. It carries ForbiddenMessage instead of the provider message.
type ForbiddenError struct{ Err error }

func (e *ForbiddenError) Error() string { return ForbiddenMessage }
func (e *ForbiddenError) Unwrap() error { return e.Err }

// CancelledError indicates the operation was aborted via the cancellation
// signal. It must never be reported as a step failure.
type CancelledError struct{ Err error }

func (e *CancelledError) Error() string { return "operation cancelled" }
func (e *CancelledError) Unwrap() error { return e.Err }

// ValidationError names the first output field whose constraint was
// violated while coercing raw model output into a PlannerOutput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid planner output: field %q %s", e.Field, e.Reason)
}

// Classify inspects an opaque failure from the planning path and assigns
// exactly one Kind. Provider errors can satisfy more than one loose
// pattern at once, so the checks run in a fixed priority order and the
// first match wins: authentication, bad-request, cancelled, forbidden,
// unclassified.
func Classify(err error) Kind {
	if err == nil {
		return KindUnclassified
	}
	// Validation failures quote model output verbatim; that text must never
	// steer classification.
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindUnclassified
	}
	switch {
	case isAuthentication(err):
		return KindAuthentication
	case isBadRequest(err):
		return KindBadRequest
	case isCancelled(err):
		return KindCancelled
	case isForbidden(err):
		return KindForbidden
	default:
		return KindUnclassified
	}
}

// Refine wraps err in the typed error matching its classification so the
// caller can dispatch with errors.As. Unclassified errors are returned
// unchanged with their original message preserved.
func Refine(err error) error {
	switch Classify(err) {
	case KindAuthentication:
		var typed *AuthenticationError
		if errors.As(err, &typed) {
			return err
		}
		return &AuthenticationError{Err: err}
	case KindBadRequest:
		var typed *BadRequestError
		if errors.As(err, &typed) {
			return err
		}
		return &BadRequestError{Err: err}
	case KindCancelled:
		var typed *CancelledError
		if errors.As(err, &typed) {
			return err
		}
		return &CancelledError{Err: err}
	case KindForbidden:
		var typed *ForbiddenError
		if errors.As(err, &typed) {
			return err
		}
		return &ForbiddenError{Err: err}
	default:
		return err
	}
}

func statusCode(err error) (int, bool) {
	var status *schemas.StatusError
	if errors.As(err, &status) {
		return status.StatusCode, true
	}
	return 0, false
}

func messageContains(err error, needles ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func isAuthentication(err error) bool {
	var typed *AuthenticationError
	if errors.As(err, &typed) {
		return true
	}
	if code, ok := statusCode(err); ok && code == http.StatusUnauthorized {
		return true
	}
	return messageContains(err, "unauthorized", "invalid api key", "authentication")
}

func isBadRequest(err error) bool {
	var typed *BadRequestError
	if errors.As(err, &typed) {
		return true
	}
	if code, ok := statusCode(err); ok && code == http.StatusBadRequest {
		return true
	}
	return messageContains(err, "bad request")
}

func isCancelled(err error) bool {
	var typed *CancelledError
	if errors.As(err, &typed) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return messageContains(err, "context canceled", "request aborted")
}

func isForbidden(err error) bool {
	var typed *ForbiddenError
	if errors.As(err, &typed) {
		return true
	}
	if code, ok := statusCode(err); ok && code == http.StatusForbidden {
		return true
	}
	return messageContains(err, "forbidden")
}
