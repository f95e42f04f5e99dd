package control

// State is the client-side control mode. AutoRunning is a reflection of the
// server's run loop, reconciled on every auto_status broadcast; the server is
// the source of truth because the loop may start or stop without this client
// asking (other viewers, or server-side completion).
type State int

const (
	ManualIdle State = iota
	AutoRunning
	GameOver
)

// String names the state for logs.
func (s State) String() string {
	switch s {
	case ManualIdle:
		return "manual_idle"
	case AutoRunning:
		return "auto_running"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Controls is the affordance set derived from one state.
type Controls struct {
	StepEnabled      bool
	AutoEnabled      bool
	StopEnabled      bool
	AutoShownRunning bool
	ResetEnabled     bool
}

// Machine tracks the control mode across snapshots and acknowledgements.
type Machine struct {
	state State
}

// NewMachine starts in ManualIdle: a fresh instance never begins in auto mode.
func NewMachine() *Machine {
	return &Machine{state: ManualIdle}
}

// State reports the current mode.
func (m *Machine) State() State {
	return m.state
}

// Reset re-enters ManualIdle unconditionally. Called when a new instance is
// adopted; this is the only way out of GameOver.
func (m *Machine) Reset() {
	m.state = ManualIdle
}

// ObserveSnapshot moves to GameOver the moment a terminal snapshot arrives,
// from either non-terminal state.
func (m *Machine) ObserveSnapshot(gameOver bool) {
	if gameOver {
		m.state = GameOver
	}
}

// AckAutoStart flips to AutoRunning after the server acknowledged the start
// request. Unacknowledged requests never change state.
func (m *Machine) AckAutoStart() {
	if m.state == ManualIdle {
		m.state = AutoRunning
	}
}

// AckAutoStop flips back to ManualIdle after the server acknowledged the stop
// request.
func (m *Machine) AckAutoStop() {
	if m.state == AutoRunning {
		m.state = ManualIdle
	}
}

// ReconcileAutoStatus applies the server-reported run loop state. It fires on
// every auto_status event regardless of what this client last requested.
// GameOver is terminal: reconciliation never leaves it.
func (m *Machine) ReconcileAutoStatus(running bool) {
	if m.state == GameOver {
		return
	}
	if running {
		m.state = AutoRunning
	} else {
		m.state = ManualIdle
	}
}

// IsAutoRunning reports the client's current belief about the run loop.
func (m *Machine) IsAutoRunning() bool {
	return m.state == AutoRunning
}

// ControlsFor maps a control state to its affordance set. Pure: button
// enablement depends on nothing but the state.
func ControlsFor(state State) Controls {
	switch state {
	case AutoRunning:
		return Controls{
			StepEnabled:      false,
			AutoEnabled:      true,
			StopEnabled:      true,
			AutoShownRunning: true,
			ResetEnabled:     true,
		}
	case GameOver:
		return Controls{ResetEnabled: true}
	default:
		return Controls{
			StepEnabled:  true,
			AutoEnabled:  true,
			StopEnabled:  false,
			ResetEnabled: true,
		}
	}
}

// Controls reports the affordance set for the current state.
func (m *Machine) Controls() Controls {
	return ControlsFor(m.state)
}
