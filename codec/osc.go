package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// OSC 1.0 message layout for the low-latency channel. One datagram carries
// one address and one numeric argument:
//
//	┌──────────────────┬──────────────┬──────────┐
//	│ address          │ typetag      │ argument │
//	│ "/track/0/vol\0" │ ",f\0\0"     │ float32  │
//	│ padded to 4      │ padded to 4  │ 4 bytes  │
//	└──────────────────┴──────────────┴──────────┘
//
// Strings are null-terminated and padded with nulls to a 4-byte boundary.
// The argument is big-endian. No acknowledgment exists at this layer; loss
// is acceptable because the caller re-issues the latest value on the next
// control tick.

// OSC typetag characters supported by the bridge.
const (
	oscTagFloat = 'f'
	oscTagInt   = 'i'
)

// ParamUpdate is one decoded low-latency parameter write.
//
// Exactly one of Float/Int is meaningful, selected by IsFloat. Value returns
// the argument as a float64 either way, which is what a parameter write
// ultimately needs.
type ParamUpdate struct {
	Address string
	Float   float32
	Int     int32
	IsFloat bool
}

// Value returns the numeric argument widened to float64.
func (u *ParamUpdate) Value() float64 {
	if u.IsFloat {
		return float64(u.Float)
	}
	return float64(u.Int)
}

// oscPad appends s as a null-terminated string padded to a 4-byte boundary.
func oscPad(buf []byte, s string) []byte {
	buf = append(buf, s...)
	buf = append(buf, 0)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// oscString reads one padded string starting at offset and returns the string
// and the offset just past its padding.
func oscString(data []byte, offset int) (string, int, error) {
	end := offset
	for end < len(data) && data[end] != 0 {
		end++
	}
	if end == len(data) {
		return "", 0, fmt.Errorf("osc: unterminated string at offset %d", offset)
	}
	s := string(data[offset:end])
	// Skip the terminator plus padding to the next 4-byte boundary.
	next := end + 1
	for (next-offset)%4 != 0 {
		next++
	}
	if next > len(data) {
		return "", 0, fmt.Errorf("osc: truncated string padding at offset %d", end)
	}
	return s, next, nil
}

// EncodeOSCFloat encodes an address with one float32 argument.
func EncodeOSCFloat(address string, value float32) ([]byte, error) {
	return encodeOSC(address, oscTagFloat, math.Float32bits(value))
}

// EncodeOSCInt encodes an address with one int32 argument.
func EncodeOSCInt(address string, value int32) ([]byte, error) {
	return encodeOSC(address, oscTagInt, uint32(value))
}

func encodeOSC(address string, tag byte, arg uint32) ([]byte, error) {
	if !strings.HasPrefix(address, "/") {
		return nil, fmt.Errorf("osc: address must start with '/': %q", address)
	}
	if strings.IndexByte(address, 0) >= 0 {
		return nil, fmt.Errorf("osc: address contains NUL: %q", address)
	}
	buf := make([]byte, 0, len(address)+12)
	buf = oscPad(buf, address)
	buf = oscPad(buf, ","+string(tag))
	var argBuf [4]byte
	binary.BigEndian.PutUint32(argBuf[:], arg)
	return append(buf, argBuf[:]...), nil
}

// DecodeOSC parses one datagram into a ParamUpdate. It validates the address
// form, the typetag, and that exactly one 4-byte argument follows.
func DecodeOSC(data []byte) (*ParamUpdate, error) {
	address, offset, err := oscString(data, 0)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(address, "/") {
		return nil, fmt.Errorf("osc: invalid address %q", address)
	}

	tags, offset, err := oscString(data, offset)
	if err != nil {
		return nil, err
	}
	if len(tags) != 2 || tags[0] != ',' {
		return nil, fmt.Errorf("osc: unsupported typetag %q", tags)
	}

	if len(data)-offset != 4 {
		return nil, fmt.Errorf("osc: expected 4 argument bytes, got %d", len(data)-offset)
	}
	arg := binary.BigEndian.Uint32(data[offset : offset+4])

	update := &ParamUpdate{Address: address}
	switch tags[1] {
	case oscTagFloat:
		update.IsFloat = true
		update.Float = math.Float32frombits(arg)
	case oscTagInt:
		update.Int = int32(arg)
	default:
		return nil, fmt.Errorf("osc: unsupported argument type %q", tags[1])
	}
	return update, nil
}
