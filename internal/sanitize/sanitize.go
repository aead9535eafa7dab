// File: internal/sanitize/sanitize.go

// Package sanitize neutralizes untrusted-origin content markers in free
// text. Page content and third-party messages are wrapped in marker tags
// before they enter the model context; anything echoed back by the model
// must have those markers stripped again so external content cannot spoof
// system-level instructions when it is re-inserted into the conversation
// or surfaced to observers.
package sanitize

import "regexp"

// Marker tags denoting externally sourced content. Matching is
// case-insensitive and tolerates internal whitespace so that model
// paraphrases of the tags are caught as well.
var markerRegex = regexp.MustCompile(`(?i)<\s*/?\s*(untrusted_content|user_request)\s*>`)

// Scrub removes all untrusted-content markers from text, keeping the text
// between them. Scrubbing already-scrubbed text is a no-op.
func Scrub(text string) string {
	if text == "" {
		return text
	}
	return markerRegex.ReplaceAllString(text, "")
}

// WrapUntrusted fences externally sourced text in untrusted-content
// markers before it is handed to the model. The input is scrubbed first so
// embedded markers cannot terminate the fence early.
func WrapUntrusted(text string) string {
	return "<untrusted_content>" + Scrub(text) + "</untrusted_content>"
}
