package codec

import (
	"bytes"
	"fmt"

	"daw-bridge/message"
)

// FrameBuffer accumulates bytes received on the reliable channel until they
// form a complete JSON frame. It is owned exclusively by one connection's read
// loop and is not safe for concurrent use.
//
// Two extraction strategies, matching what each peer guarantees:
//
//   - Next: pops up to the first newline. Used where the peer terminates
//     every frame with '\n'.
//   - NextObject: retries a whole-buffer JSON parse on every call and clears
//     the buffer on success. Used on the server read path, where a peer may
//     omit the delimiter; the strictly request/response protocol guarantees
//     at most one frame is buffered at a time, so a successful parse always
//     consumes the whole buffer.
//
// Either way, exceeding the size ceiling is a fatal decode error: the buffer
// is reset so memory stays bounded, and the caller decides whether the
// connection survives.
type FrameBuffer struct {
	buf      []byte
	maxFrame int
}

// NewFrameBuffer creates a FrameBuffer with the given ceiling.
// A ceiling of 0 means MaxFrameSize.
func NewFrameBuffer(maxFrame int) *FrameBuffer {
	if maxFrame <= 0 {
		maxFrame = MaxFrameSize
	}
	return &FrameBuffer{maxFrame: maxFrame}
}

// Append adds newly received bytes. It returns a fatal error if the
// accumulated buffer exceeds the frame-size ceiling; the buffer is reset
// before returning so the connection can continue.
func (fb *FrameBuffer) Append(data []byte) error {
	fb.buf = append(fb.buf, data...)
	if len(fb.buf) > fb.maxFrame {
		size := len(fb.buf)
		fb.Reset()
		return fmt.Errorf("frame exceeds %d byte ceiling (%d buffered)", fb.maxFrame, size)
	}
	return nil
}

// Next extracts one newline-terminated frame, or nil if no complete frame is
// buffered yet. The returned slice excludes the delimiter.
func (fb *FrameBuffer) Next() []byte {
	i := bytes.IndexByte(fb.buf, '\n')
	if i < 0 {
		return nil
	}
	frame := fb.buf[:i]
	fb.buf = fb.buf[i+1:]
	return frame
}

// NextObject attempts to parse the entire accumulated buffer as one Command.
// A parse failure is treated as "frame incomplete": nil is returned and more
// bytes are awaited. On success the buffer is cleared.
func (fb *FrameBuffer) NextObject() *message.Command {
	trimmed := bytes.TrimSpace(fb.buf)
	if len(trimmed) == 0 {
		return nil
	}
	cmd, err := DecodeCommand(trimmed)
	if err != nil {
		return nil
	}
	fb.buf = fb.buf[:0]
	return cmd
}

// NextResponse is NextObject for the client side of the channel: it attempts
// to parse the accumulated buffer as one Response, returning nil while the
// frame is incomplete and clearing the buffer on success.
func (fb *FrameBuffer) NextResponse() *message.Response {
	trimmed := bytes.TrimSpace(fb.buf)
	if len(trimmed) == 0 {
		return nil
	}
	resp, err := DecodeResponse(trimmed)
	if err != nil {
		return nil
	}
	fb.buf = fb.buf[:0]
	return resp
}

// Len returns the number of buffered bytes not yet forming a complete frame.
func (fb *FrameBuffer) Len() int {
	return len(fb.buf)
}

// Reset discards all buffered bytes. Called on decode failures that cannot be
// a partial-frame artifact, so the buffer is never retained indefinitely.
func (fb *FrameBuffer) Reset() {
	fb.buf = fb.buf[:0]
}
