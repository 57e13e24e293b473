package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfiguration means the service cannot evaluate slots (bad generation
	// parameters or availability data). Callers should show a generic failure.
	ErrConfiguration = errors.New("booking: configuration error")

	// ErrNoAvailability is returned for a day without an active window. It is a
	// distinguished empty result, not a failure.
	ErrNoAvailability = errors.New("booking: no availability on this day")

	ErrSlotTaken        = errors.New("booking: slot is no longer available")
	ErrStoreUnavailable = errors.New("booking: store unavailable")

	// ErrOverlapRejected is what a Store returns when its own exclusion guard
	// refuses an overlapping row.
	ErrOverlapRejected = errors.New("booking: store rejected overlapping appointment")
)

// ValidationError carries per-field messages for a malformed request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "booking: invalid request"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "booking: invalid request (" + strings.Join(parts, "; ") + ")"
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}
