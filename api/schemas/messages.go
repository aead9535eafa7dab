// File: api/schemas/messages.go
package schemas

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SegmentType distinguishes the kinds of content a message segment can carry.
type SegmentType string

const (
	SegmentText  SegmentType = "text"
	SegmentImage SegmentType = "image"
)

// Segment is one piece of a multi-modal message. Text segments carry Text;
// image segments carry an ImageURL (typically a data URL with a screenshot).
type Segment struct {
	Type     SegmentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`
}

// Message is a single turn in the conversation history handed to a chat
// model. Plain-text messages set Content and leave Segments nil; multi-modal
// messages use Segments and leave Content empty.
type Message struct {
	Role     Role      `json:"role"`
	Content  string    `json:"content,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Text returns the textual payload of the message: Content for plain
// messages, or the text segments concatenated in original order for
// segmented ones. Image segments contribute nothing.
func (m Message) Text() string {
	if m.Segments == nil {
		return m.Content
	}
	var out string
	for _, seg := range m.Segments {
		if seg.Type == SegmentText {
			out += seg.Text
		}
	}
	return out
}

// IsSegmented reports whether the message carries structured segments
// rather than a plain content string.
func (m Message) IsSegmented() bool {
	return m.Segments != nil
}
