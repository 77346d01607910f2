package session

import (
	"daw-bridge/dispatch"
	"daw-bridge/message"
)

// RegisterHandlers wires the session's command handlers into the dispatch
// table. Called once at startup; the resulting table is what the server
// executes commands against.
func (s *Session) RegisterHandlers(table *dispatch.Table) {
	table.MustRegister("get_session_info", s.handleGetSessionInfo)
	table.MustRegister("set_tempo", s.handleSetTempo)
	table.MustRegister("set_time_signature", s.handleSetTimeSignature)
	table.MustRegister("start_playback", s.handleStartPlayback)
	table.MustRegister("stop_playback", s.handleStopPlayback)

	table.MustRegister("create_midi_track", s.handleCreateMIDITrack)
	table.MustRegister("create_audio_track", s.handleCreateAudioTrack)
	table.MustRegister("delete_track", s.handleDeleteTrack)
	table.MustRegister("get_track_info", s.handleGetTrackInfo)
	table.MustRegister("set_track_name", s.handleSetTrackName)
	table.MustRegister("set_track_volume", s.handleSetTrackVolume)
	table.MustRegister("set_track_pan", s.handleSetTrackPan)
	table.MustRegister("set_track_mute", s.handleSetTrackMute)
	table.MustRegister("set_track_solo", s.handleSetTrackSolo)
}

func (s *Session) handleGetSessionInfo(p dispatch.Params) (any, error) {
	midi, audio := 0, 0
	for _, t := range s.tracks {
		switch t.Kind {
		case KindMIDI:
			midi++
		case KindAudio:
			audio++
		}
	}
	return map[string]any{
		"tempo": s.tempo,
		"time_signature": map[string]any{
			"numerator":   s.sigNumerator,
			"denominator": s.sigDenom,
		},
		"is_playing": s.playing,
		"track_count": map[string]any{
			"midi":   midi,
			"audio":  audio,
			"return": s.returnTracks,
			"master": 1,
		},
		"scene_count": s.sceneCount,
	}, nil
}

func (s *Session) handleSetTempo(p dispatch.Params) (any, error) {
	bpm, err := p.FloatOr("bpm", 120.0)
	if err != nil {
		return nil, err
	}
	s.tempo = clamp(bpm, MinTempo, MaxTempo)
	return map[string]any{"tempo": s.tempo}, nil
}

func (s *Session) handleSetTimeSignature(p dispatch.Params) (any, error) {
	numerator, err := p.IntOr("numerator", 4)
	if err != nil {
		return nil, err
	}
	denominator, err := p.IntOr("denominator", 4)
	if err != nil {
		return nil, err
	}
	if numerator < 1 || denominator < 1 {
		return nil, message.ErrCommandFailed("time signature must be positive, got %d/%d", numerator, denominator)
	}
	s.sigNumerator = numerator
	s.sigDenom = denominator
	return map[string]any{
		"numerator":   s.sigNumerator,
		"denominator": s.sigDenom,
	}, nil
}

func (s *Session) handleStartPlayback(p dispatch.Params) (any, error) {
	s.playing = true
	return map[string]any{"is_playing": true}, nil
}

func (s *Session) handleStopPlayback(p dispatch.Params) (any, error) {
	s.playing = false
	return map[string]any{"is_playing": false}, nil
}

func (s *Session) createTrack(p dispatch.Params, kind, defaultName string) (any, error) {
	index, err := p.IntOr("index", -1)
	if err != nil {
		return nil, err
	}
	name, err := p.StringOr("name", defaultName)
	if err != nil {
		return nil, err
	}
	track := &Track{Name: name, Kind: kind, Volume: 0.85}
	actual := s.insertTrack(track, index)
	return map[string]any{
		"index": actual,
		"name":  track.Name,
		"type":  track.Kind,
	}, nil
}

func (s *Session) handleCreateMIDITrack(p dispatch.Params) (any, error) {
	return s.createTrack(p, KindMIDI, "MIDI Track")
}

func (s *Session) handleCreateAudioTrack(p dispatch.Params) (any, error) {
	return s.createTrack(p, KindAudio, "Audio Track")
}

func (s *Session) handleDeleteTrack(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	name := track.Name
	s.tracks = append(s.tracks[:index], s.tracks[index+1:]...)
	return map[string]any{
		"deleted_index": index,
		"deleted_name":  name,
	}, nil
}

func (s *Session) handleGetTrackInfo(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"index":  index,
		"name":   track.Name,
		"type":   track.Kind,
		"volume": track.Volume,
		"pan":    track.Pan,
		"mute":   track.Mute,
		"solo":   track.Solo,
	}, nil
}

func (s *Session) handleSetTrackName(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	name, err := p.String("name")
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	track.Name = name
	return map[string]any{"name": track.Name}, nil
}

func (s *Session) handleSetTrackVolume(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	volume, err := p.FloatOr("volume", 0.85)
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	track.Volume = clamp(volume, 0.0, 1.0)
	return map[string]any{"volume": track.Volume}, nil
}

func (s *Session) handleSetTrackPan(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	pan, err := p.FloatOr("pan", 0.0)
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	track.Pan = clamp(pan, -1.0, 1.0)
	return map[string]any{"pan": track.Pan}, nil
}

func (s *Session) handleSetTrackMute(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	mute, err := p.BoolOr("mute", true)
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	track.Mute = mute
	return map[string]any{"muted": track.Mute}, nil
}

func (s *Session) handleSetTrackSolo(p dispatch.Params) (any, error) {
	index, err := p.Int("track_index")
	if err != nil {
		return nil, err
	}
	solo, err := p.BoolOr("solo", true)
	if err != nil {
		return nil, err
	}
	track, err := s.track(index)
	if err != nil {
		return nil, err
	}
	track.Solo = solo
	return map[string]any{"soloed": track.Solo}, nil
}
