package chat

import "fmt"

// State is the lifecycle position of a session
type State int

const (
	StateIdle State = iota
	StateAwaiting
	StateStreaming
	StateStreamingWithStatus
	StateErrored
	StateDone
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateAwaiting:            "awaiting",
	StateStreaming:           "streaming",
	StateStreamingWithStatus: "streaming_with_status",
	StateErrored:             "errored",
	StateDone:                "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// InFlight reports whether a response stream is open
func (s State) InFlight() bool {
	switch s {
	case StateAwaiting, StateStreaming, StateStreamingWithStatus:
		return true
	}
	return false
}
