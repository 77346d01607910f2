// Package codec implements the wire encoding for both bridge channels.
//
// Reliable channel: each message is a single JSON object terminated by a
// newline. The receive side does not rely on the peer sending the delimiter;
// a FrameBuffer accumulates bytes and retries a whole-buffer parse on every
// append, so a frame split across any number of reads decodes identically to
// one delivered whole.
//
// Low-latency channel: one OSC 1.0 message per UDP datagram (see osc.go).
package codec

import (
	jsoniter "github.com/json-iterator/go"

	"daw-bridge/message"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxFrameSize is the frame-size ceiling for the reliable channel. A buffer
// that grows past this without yielding a complete JSON object is a fatal
// decode error, not a partial-frame artifact.
const MaxFrameSize = 1 << 20

// EncodeCommand serializes a command as one newline-terminated JSON object.
func EncodeCommand(cmd *message.Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// EncodeResponse serializes a response as one newline-terminated JSON object.
func EncodeResponse(resp *message.Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeCommand parses a complete JSON frame into a Command.
func DecodeCommand(data []byte) (*message.Command, error) {
	cmd := &message.Command{}
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// DecodeResponse parses a complete JSON frame into a Response.
func DecodeResponse(data []byte) (*message.Response, error) {
	resp := &message.Response{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
