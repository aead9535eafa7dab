// File: api/schemas/errors.go
package schemas

import "fmt"

// StatusError is a provider-agnostic transport failure carrying the HTTP
// status of the rejected request. Chat-model clients and the plan server
// client both surface non-success responses as StatusError so the error
// classifier can match on the code rather than on provider prose.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed: %s", e.Status)
}
