package soundbar

import (
	"sync"

	"github.com/tmholter/lgbar/internal/protocol"
)

// State is the last known device state, assembled from response and
// notification payloads. It is a best-effort cache: fields are only as
// fresh as the last frame that mentioned them.
type State struct {
	Volume    int
	Muted     bool
	Equalizer Equalizer
	Function  Function
	Name      string
}

// stateCache guards the snapshot. Only the receive path writes it;
// callers read copies.
type stateCache struct {
	mu    sync.RWMutex
	state State
}

// snapshot returns a copy of the current state.
func (s *stateCache) snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// absorb folds a device message into the snapshot. Partial payloads are
// common (a volume push carries only i_vol), so each field updates
// independently.
func (s *stateCache) absorb(msg protocol.Message) {
	if len(msg.Data) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Msg {
	case protocol.TargetSpkListViewInfo:
		if v, ok := intField(msg.Data, "i_vol"); ok {
			s.state.Volume = v
		}
		if v, ok := msg.Data["b_mute"].(bool); ok {
			s.state.Muted = v
		}

	case protocol.TargetEQViewInfo:
		if v, ok := intField(msg.Data, "i_curr_eq"); ok {
			s.state.Equalizer = Equalizer(v)
		}

	case protocol.TargetFuncViewInfo:
		if v, ok := intField(msg.Data, "i_curr_func"); ok {
			s.state.Function = Function(v)
		}

	case protocol.TargetSettingViewInfo:
		if v, ok := msg.Data["s_user_name"].(string); ok {
			s.state.Name = v
		}
	}
}

// intField reads a numeric field. JSON unmarshals numbers as float64.
func intField(data map[string]any, key string) (int, bool) {
	v, ok := data[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}
