package session

import (
	"strconv"
	"strings"
)

// ApplyParam performs one low-latency parameter write decoded from the
// unreliable channel. Unknown or malformed addresses are ignored; there is
// no response path to report them on, and the sender re-issues the latest
// value on its next control tick anyway.
//
// Recognized addresses:
//
//	/tempo
//	/track/<index>/volume
//	/track/<index>/pan
func (s *Session) ApplyParam(address string, value float64) {
	if address == "/tempo" {
		s.tempo = clamp(value, MinTempo, MaxTempo)
		return
	}

	parts := strings.Split(strings.TrimPrefix(address, "/"), "/")
	if len(parts) != 3 || parts[0] != "track" {
		return
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}
	track, err := s.track(index)
	if err != nil {
		return
	}
	switch parts[2] {
	case "volume":
		track.Volume = clamp(value, 0.0, 1.0)
	case "pan":
		track.Pan = clamp(value, -1.0, 1.0)
	}
}
