// File: api/schemas/schemas_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageText(t *testing.T) {
	t.Run("plain message returns content", func(t *testing.T) {
		m := Message{Role: RoleUser, Content: "hello"}
		assert.Equal(t, "hello", m.Text())
		assert.False(t, m.IsSegmented())
	})

	t.Run("segmented message concatenates text in order", func(t *testing.T) {
		m := Message{
			Role: RoleUser,
			Segments: []Segment{
				{Type: SegmentText, Text: "first "},
				{Type: SegmentImage, ImageURL: "data:image/png;base64,AAAA"},
				{Type: SegmentText, Text: "second"},
			},
		}
		assert.Equal(t, "first second", m.Text())
		assert.True(t, m.IsSegmented())
	})

	t.Run("empty segment list is still segmented", func(t *testing.T) {
		m := Message{Role: RoleUser, Segments: []Segment{}}
		assert.True(t, m.IsSegmented())
		assert.Empty(t, m.Text())
	})
}

func TestStepOutcomeOK(t *testing.T) {
	assert.True(t, StepOutcome{Result: &PlannerOutput{}}.OK())
	assert.False(t, StepOutcome{Error: "boom"}.OK())
}

func TestStatusErrorMessage(t *testing.T) {
	withBody := &StatusError{StatusCode: 403, Status: "403 Forbidden", Body: "model access denied"}
	assert.Equal(t, "request failed: 403 Forbidden: model access denied", withBody.Error())

	withoutBody := &StatusError{StatusCode: 500, Status: "500 Internal Server Error"}
	assert.Equal(t, "request failed: 500 Internal Server Error", withoutBody.Error())
}
