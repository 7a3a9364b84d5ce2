// Package session owns the live-session state machine: connect/disconnect
// lifecycle, the outbound media queue and the inbound message router that
// drives playback, transcripts and clarity feedback.
package session

// State is the connection state of the session manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
