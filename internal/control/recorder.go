package control

// State is the recording state.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Action is what the caller must do after a transition.
type Action int

const (
	None Action = iota
	Start
	Finish
)

// Recorder is the recording state machine. Signals are applied in the order
// they are drained; the first one to arrive decides the transition.
type Recorder struct {
	state State
}

func (r *Recorder) State() State {
	return r.state
}

// Handle applies a recording signal and returns the resulting action.
// Non-recording signals return None.
func (r *Recorder) Handle(k Kind) Action {
	switch k {
	case ToggleRecording:
		if r.state == Idle {
			r.state = Active
			return Start
		}
		r.state = Idle
		return Finish
	case StartRecording:
		if r.state == Idle {
			r.state = Active
			return Start
		}
	case StopRecording:
		if r.state == Active {
			r.state = Idle
			return Finish
		}
	}
	return None
}

// Revert undoes a Start whose side effect failed.
func (r *Recorder) Revert(a Action) {
	switch a {
	case Start:
		r.state = Idle
	case Finish:
		r.state = Active
	}
}
