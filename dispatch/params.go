package dispatch

import (
	"daw-bridge/message"
)

// Params is the typed extraction layer over a command's loosely-typed JSON
// parameters. Handlers validate-and-convert once at the boundary and fail
// fast with a classified error instead of scattering per-field checks.
//
// JSON numbers arrive as float64; the integer accessors convert, and a
// fractional value for an integer parameter is a classified error.
type Params map[string]any

func missing(key string) *message.BridgeError {
	return message.ErrCommandFailed("missing required parameter %q", key)
}

func wrongType(key, want string, got any) *message.BridgeError {
	return message.ErrCommandFailed("parameter %q must be a %s, got %T", key, want, got)
}

// Float returns a required float parameter.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, missing(key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, wrongType(key, "number", v)
	}
	return f, nil
}

// FloatOr returns an optional float parameter with a default.
func (p Params) FloatOr(key string, def float64) (float64, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.Float(key)
}

// Int returns a required integer parameter.
func (p Params) Int(key string) (int, error) {
	f, err := p.Float(key)
	if err != nil {
		return 0, err
	}
	i := int(f)
	if float64(i) != f {
		return 0, message.ErrCommandFailed("parameter %q must be an integer, got %v", key, f)
	}
	return i, nil
}

// IntOr returns an optional integer parameter with a default.
func (p Params) IntOr(key string, def int) (int, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.Int(key)
}

// String returns a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(key, "string", v)
	}
	return s, nil
}

// StringOr returns an optional string parameter with a default.
func (p Params) StringOr(key string, def string) (string, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.String(key)
}

// Bool returns a required boolean parameter.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, missing(key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, wrongType(key, "boolean", v)
	}
	return b, nil
}

// BoolOr returns an optional boolean parameter with a default.
func (p Params) BoolOr(key string, def bool) (bool, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	return p.Bool(key)
}
