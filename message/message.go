// Package message defines the command and response envelopes exchanged over
// the bridge's reliable channel.
//
// Command is the "envelope" for every remote operation. It gets serialized by
// the codec layer as one JSON object per line and carried over TCP to the host
// process, which answers with exactly one Response on the same connection.
package message

import "encoding/json"

// Status values carried in the Response "status" field.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Command carries a single operation request.
//
//   - Name is the command name ("set_tempo", "create_midi_track", ...).
//   - Params holds the loosely-typed JSON parameters; never nil after decode.
//   - ID is an optional correlation token echoed verbatim in the response.
//
// A Command is immutable once constructed: it is produced by one caller and
// consumed exactly once by the dispatch table.
type Command struct {
	Name   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
	ID     string         `json:"id,omitempty"`
}

// UnmarshalJSON accepts both the "type" and the legacy "command" key for the
// command name, and guarantees a non-nil Params map.
func (c *Command) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type    string         `json:"type"`
		Command string         `json:"command"`
		Params  map[string]any `json:"params"`
		ID      string         `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Name = wire.Type
	if c.Name == "" {
		c.Name = wire.Command
	}
	c.Params = wire.Params
	if c.Params == nil {
		c.Params = map[string]any{}
	}
	c.ID = wire.ID
	return nil
}

// Response carries the outcome of exactly one handler invocation.
//
//   - On success: Status is "success" and Result holds the handler's value.
//   - On error:   Status is "error" and Message holds a human-readable,
//     categorized description. Raw stack traces never cross the wire.
type Response struct {
	Status  string `json:"status"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// NewSuccess builds a success response echoing the request's correlation id.
func NewSuccess(result any, id string) *Response {
	return &Response{Status: StatusSuccess, Result: result, ID: id}
}

// NewError builds an error response echoing the request's correlation id.
func NewError(msg string, id string) *Response {
	return &Response{Status: StatusError, Message: msg, ID: id}
}

// IsError reports whether the response carries an error status.
func (r *Response) IsError() bool {
	return r.Status == StatusError
}
