package message

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies bridge errors. Callers use it to distinguish
// "host said no" (handler) from "host never answered" (timeout) from
// "could not reach the host at all" (transport).
type ErrorCategory string

const (
	CategoryTransport ErrorCategory = "transport"
	CategoryTimeout   ErrorCategory = "timeout"
	CategoryFraming   ErrorCategory = "framing"
	CategoryHandler   ErrorCategory = "handler"
)

// Numeric error codes surfaced in the message field of error responses.
const (
	CodeConnectionFailed  = 1100
	CodeConnectionTimeout = 1101
	CodeInvalidResponse   = 1102
	CodeCommandFailed     = 1400
	CodeTrackNotFound     = 1401
	CodeClipNotFound      = 1402
	CodeDeviceNotFound    = 1403
	CodeUnknownCommand    = 1404
	CodeCommandTimeout    = 1405
)

// BridgeError is a structured, categorized bridge error. Callers extract it
// with errors.As:
//
//	var bridgeErr *message.BridgeError
//	if errors.As(err, &bridgeErr) {
//	    if bridgeErr.Category == message.CategoryTimeout { ... }
//	}
type BridgeError struct {
	Code     int
	Category ErrorCategory
	Message  string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge: %s (%d): %s", e.Category, e.Code, e.Message)
}

// ErrConnectionFailed reports an unreachable or refused host.
func ErrConnectionFailed(format string, args ...any) *BridgeError {
	return &BridgeError{Code: CodeConnectionFailed, Category: CategoryTransport, Message: fmt.Sprintf(format, args...)}
}

// ErrConnectionTimeout reports a bounded wait that elapsed on the transport.
func ErrConnectionTimeout(format string, args ...any) *BridgeError {
	return &BridgeError{Code: CodeConnectionTimeout, Category: CategoryTimeout, Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidResponse reports an undecodable or oversized frame.
func ErrInvalidResponse(format string, args ...any) *BridgeError {
	return &BridgeError{Code: CodeInvalidResponse, Category: CategoryFraming, Message: fmt.Sprintf(format, args...)}
}

// ErrCommandFailed reports a handler that returned or raised an error.
func ErrCommandFailed(format string, args ...any) *BridgeError {
	return &BridgeError{Code: CodeCommandFailed, Category: CategoryHandler, Message: fmt.Sprintf(format, args...)}
}

// ErrTrackNotFound reports a track index beyond the current track count.
func ErrTrackNotFound(index int) *BridgeError {
	return &BridgeError{Code: CodeTrackNotFound, Category: CategoryHandler, Message: fmt.Sprintf("track not found: index %d", index)}
}

// ErrClipNotFound reports an empty or out-of-range clip slot.
func ErrClipNotFound(trackIndex, clipSlot int) *BridgeError {
	return &BridgeError{Code: CodeClipNotFound, Category: CategoryHandler, Message: fmt.Sprintf("clip not found: track %d slot %d", trackIndex, clipSlot)}
}

// ErrDeviceNotFound reports a missing device on a track.
func ErrDeviceNotFound(trackIndex, deviceIndex int) *BridgeError {
	return &BridgeError{Code: CodeDeviceNotFound, Category: CategoryHandler, Message: fmt.Sprintf("device not found: track %d device %d", trackIndex, deviceIndex)}
}

// ErrUnknownCommand reports a command name absent from the dispatch table.
func ErrUnknownCommand(name string) *BridgeError {
	return &BridgeError{Code: CodeUnknownCommand, Category: CategoryHandler, Message: fmt.Sprintf("unknown command: %s", name)}
}

// ErrCommandTimeout reports a handler that did not complete within the
// bounded wait. Distinct from CategoryHandler so callers can tell the two
// apart.
func ErrCommandTimeout(name string) *BridgeError {
	return &BridgeError{Code: CodeCommandTimeout, Category: CategoryTimeout, Message: fmt.Sprintf("command execution timeout: %s", name)}
}

// ParseError recovers a BridgeError from the formatted message string an
// error response carries ("bridge: <category> (<code>): <message>"). It
// lets the client re-classify a host-side error without a separate wire
// field. Messages not in that form come back as plain handler errors.
func ParseError(s string) *BridgeError {
	var category string
	var code int
	rest := s
	if n, err := fmt.Sscanf(s, "bridge: %s (%d):", &category, &code); err == nil && n == 2 {
		if i := strings.Index(s, "): "); i >= 0 {
			rest = s[i+3:]
		}
		switch ErrorCategory(category) {
		case CategoryTransport, CategoryTimeout, CategoryFraming, CategoryHandler:
			return &BridgeError{Code: code, Category: ErrorCategory(category), Message: rest}
		}
	}
	return &BridgeError{Code: CodeCommandFailed, Category: CategoryHandler, Message: rest}
}

// IsCategory checks whether err is a *BridgeError with the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) {
		return bridgeErr.Category == category
	}
	return false
}
