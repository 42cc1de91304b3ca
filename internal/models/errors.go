package models

import (
	"fmt"
)

// TransportError means a backend could not be reached or answered with a
// non-2xx status. The previous result list stays in place.
type TransportError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DataShapeError is a backend contract violation: the response decoded but
// does not have the expected layout.
type DataShapeError struct {
	Series int
	Row    int
	Reason string
}

func (e *DataShapeError) Error() string {
	if e.Row < 0 {
		return "malformed response: " + e.Reason
	}
	return fmt.Sprintf("malformed row %d in series %d: %s", e.Row, e.Series, e.Reason)
}

// NavigationError is a user-facing warning that stopped a navigation.
type NavigationError struct {
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

func (e *NavigationError) Error() string {
	if e.Message == "" {
		return e.Title
	}
	return e.Title + ": " + e.Message
}
