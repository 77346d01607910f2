// Package session provides an in-memory host session model and the command
// handlers over it. It stands in for the host application's scripting
// surface: the daemon registers these handlers into a dispatch table at
// startup, and everything here runs on the host loop, which is why the
// model carries no locks of its own.
package session

import "daw-bridge/message"

// Track kinds.
const (
	KindMIDI  = "midi"
	KindAudio = "audio"
)

// Tempo clamp bounds, in BPM.
const (
	MinTempo = 20.0
	MaxTempo = 999.0
)

// Track is one track in the session.
type Track struct {
	Name   string
	Kind   string
	Volume float64 // normalized [0, 1]
	Pan    float64 // [-1, 1], 0 is center
	Mute   bool
	Solo   bool
}

// Session is the mutable host state. All access happens on the host loop.
type Session struct {
	tempo        float64
	sigNumerator int
	sigDenom     int
	playing      bool
	tracks       []*Track
	returnTracks int
	sceneCount   int
}

// New creates a session with the host's startup defaults.
func New() *Session {
	return &Session{
		tempo:        120.0,
		sigNumerator: 4,
		sigDenom:     4,
		returnTracks: 2,
		sceneCount:   8,
	}
}

// Tempo returns the current tempo in BPM.
func (s *Session) Tempo() float64 {
	return s.tempo
}

// TrackCount returns the number of regular tracks.
func (s *Session) TrackCount() int {
	return len(s.tracks)
}

// track resolves an index or returns an entity-not-found error.
func (s *Session) track(index int) (*Track, error) {
	if index < 0 || index >= len(s.tracks) {
		return nil, message.ErrTrackNotFound(index)
	}
	return s.tracks[index], nil
}

// insertTrack places a track at index, or appends when index is -1.
// Returns the actual index.
func (s *Session) insertTrack(track *Track, index int) int {
	if index < 0 || index >= len(s.tracks) {
		s.tracks = append(s.tracks, track)
		return len(s.tracks) - 1
	}
	s.tracks = append(s.tracks, nil)
	copy(s.tracks[index+1:], s.tracks[index:])
	s.tracks[index] = track
	return index
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
