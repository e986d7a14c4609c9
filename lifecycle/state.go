package lifecycle

// State is a lifecycle state
type State int32

const (
	StateIdle State = iota
	StateOpening
	StateConfiguring
	StateActive
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateConfiguring:
		return "configuring"
	case StateActive:
		return "active"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}
