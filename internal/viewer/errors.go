package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleLoad is returned when a load finishes after a newer one began.
	ErrStaleLoad = errors.New("stale load discarded")
	// ErrNoPointer is returned by Hover and Click when the engine cannot
	// simulate pointer events.
	ErrNoPointer = errors.New("engine does not support pointer events")
)

// AlertKind classifies a UserError.
type AlertKind int

const (
	// AlertEmptyInput is a blank PDB id or custom expression.
	AlertEmptyInput AlertKind = iota
	// AlertFetch is a failed download.
	AlertFetch
	// AlertEngine is a failure inside the rendering engine.
	AlertEngine
)

func (k AlertKind) String() string {
	switch k {
	case AlertEmptyInput:
		return "empty-input"
	case AlertFetch:
		return "fetch"
	default:
		return "engine"
	}
}

// UserError is a failure shown to the user as an alert. The viewer state
// is unchanged when one is returned.
type UserError struct {
	Kind    AlertKind
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *UserError) Unwrap() error { return e.Err }

// Alert is the text shown to the user.
func (e *UserError) Alert() string { return e.Message }

func emptyInput(msg string) *UserError {
	return &UserError{Kind: AlertEmptyInput, Message: msg}
}

func fetchFailed(msg string, err error) *UserError {
	return &UserError{Kind: AlertFetch, Message: msg, Err: err}
}

func engineFailed(err error) *UserError {
	return &UserError{Kind: AlertEngine, Message: "Error: " + err.Error(), Err: err}
}

// AlertOf returns the alert text of err if it is a UserError.
func AlertOf(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Alert(), true
	}
	return "", false
}
