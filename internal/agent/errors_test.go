// File: internal/agent/errors_test.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "nil error", err: nil, expected: KindUnclassified},
		{name: "plain error", err: errors.New("something odd"), expected: KindUnclassified},
		{
			name:     "status 401",
			err:      &schemas.StatusError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"},
			expected: KindAuthentication,
		},
		{
			name:     "invalid api key message",
			err:      errors.New("provider says: Invalid API Key provided"),
			expected: KindAuthentication,
		},
		{
			name:     "status 400",
			err:      &schemas.StatusError{StatusCode: http.StatusBadRequest, Status: "400 Bad Request"},
			expected: KindBadRequest,
		},
		{
			name:     "bad request message",
			err:      errors.New("upstream rejected: Bad Request"),
			expected: KindBadRequest,
		},
		{
			name:     "context canceled",
			err:      fmt.Errorf("chat model invocation failed: %w", context.Canceled),
			expected: KindCancelled,
		},
		{
			name:     "request aborted message",
			err:      errors.New("request aborted by client"),
			expected: KindCancelled,
		},
		{
			name:     "status 403",
			err:      &schemas.StatusError{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
			expected: KindForbidden,
		},
		{
			name:     "forbidden message",
			err:      errors.New("model access forbidden for this account"),
			expected: KindForbidden,
		},
		{
			name:     "wrapped status error",
			err:      fmt.Errorf("request failed: %w", &schemas.StatusError{StatusCode: http.StatusUnauthorized}),
			expected: KindAuthentication,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.err))
		})
	}
}

// When an error matches several loose patterns at once, the fixed priority
// order decides: authentication beats bad-request beats cancelled beats
// forbidden.
func TestClassifyPriorityOrder(t *testing.T) {
	t.Run("authentication beats bad request", func(t *testing.T) {
		err := errors.New("400 bad request: invalid api key")
		assert.Equal(t, KindAuthentication, Classify(err))
	})

	t.Run("bad request beats forbidden", func(t *testing.T) {
		err := errors.New("bad request: access forbidden")
		assert.Equal(t, KindBadRequest, Classify(err))
	})

	t.Run("cancelled beats forbidden", func(t *testing.T) {
		err := errors.New("request aborted: 403 forbidden")
		assert.Equal(t, KindCancelled, Classify(err))
	})
}

// Validation failures quote model output verbatim. A reply smuggling a
// status code into a field value must stay unclassified so the step fails
// generically instead of aborting the task as a credentials problem.
func TestClassifyIgnoresModelControlledText(t *testing.T) {
	vErr := &ValidationError{Field: "done", Reason: `must be a boolean or the string "true"/"false", got "401"`}
	assert.Equal(t, KindUnclassified, Classify(vErr))

	wrapped := fmt.Errorf("output validation failed: %w", vErr)
	assert.Equal(t, KindUnclassified, Classify(wrapped))

	// Bare digits in prose are not a classification signal; only a
	// StatusError code or a word-level phrase is.
	assert.Equal(t, KindUnclassified, Classify(errors.New("page listed 403 items")))
	assert.Equal(t, KindUnclassified, Classify(errors.New("order 400 shipped")))
}

func TestRefine(t *testing.T) {
	t.Run("wraps into the matching typed error", func(t *testing.T) {
		base := &schemas.StatusError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}
		refined := Refine(base)

		var authErr *AuthenticationError
		require.ErrorAs(t, refined, &authErr)
		var statusErr *schemas.StatusError
		assert.ErrorAs(t, refined, &statusErr)
	})

	t.Run("already typed errors pass through unchanged", func(t *testing.T) {
		typed := &CancelledError{Err: context.Canceled}
		assert.Same(t, typed, Refine(typed))
	})

	t.Run("unclassified errors are returned as-is", func(t *testing.T) {
		base := errors.New("mystery failure")
		assert.Same(t, base, Refine(base))
	})

	t.Run("forbidden carries the fixed message", func(t *testing.T) {
		refined := Refine(&schemas.StatusError{StatusCode: http.StatusForbidden, Status: "403 Forbidden", Body: "secret detail"})
		assert.Equal(t, ForbiddenMessage, refined.Error())
		assert.NotContains(t, refined.Error(), "secret detail")
	})

	t.Run("cancelled hides the underlying chain from the message", func(t *testing.T) {
		refined := Refine(fmt.Errorf("step failed: %w", context.Canceled))
		assert.Equal(t, "operation cancelled", refined.Error())
		assert.ErrorIs(t, refined, context.Canceled)
	})
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "done", Reason: "is required and must be a boolean"}
	assert.Contains(t, err.Error(), `"done"`)
	assert.Contains(t, err.Error(), "is required and must be a boolean")
}
