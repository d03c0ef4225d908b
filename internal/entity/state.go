package entity

type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StatePaused
	StateFinished
)

func (that RunState) String() string {
	switch that {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (that RunState) IsRunning() bool {
	return that == StateRunning
}

func (that RunState) IsFinished() bool {
	return that == StateFinished
}
