package client

// mockResponse produces the deterministic offline result for a command.
// The shape is keyed by command name only, so callers behave identically
// whether or not the host is running; the "offline_mode" marker tells them
// which world they got.
func mockResponse(name string, params map[string]any) map[string]any {
	switch name {
	case "get_session_info":
		return map[string]any{
			"tempo": 120.0,
			"time_signature": map[string]any{
				"numerator":   4,
				"denominator": 4,
			},
			"track_count": map[string]any{
				"midi":   0,
				"audio":  0,
				"return": 2,
				"master": 1,
			},
			"is_playing":   false,
			"offline_mode": true,
		}
	case "create_midi_track":
		return map[string]any{
			"index":        paramOr(params, "index", 0),
			"name":         paramOr(params, "name", "MIDI Track"),
			"type":         "midi",
			"offline_mode": true,
		}
	case "create_audio_track":
		return map[string]any{
			"index":        paramOr(params, "index", 0),
			"name":         paramOr(params, "name", "Audio Track"),
			"type":         "audio",
			"offline_mode": true,
		}
	default:
		return map[string]any{
			"status":       "ok",
			"offline_mode": true,
		}
	}
}

func paramOr(params map[string]any, key string, def any) any {
	if params != nil {
		if v, ok := params[key]; ok {
			return v
		}
	}
	return def
}
