package control

import "testing"

func TestControlsForEachState(t *testing.T) {
	tests := []struct {
		state State
		want  Controls
	}{
		{ManualIdle, Controls{StepEnabled: true, AutoEnabled: true, StopEnabled: false, ResetEnabled: true}},
		{AutoRunning, Controls{StepEnabled: false, AutoEnabled: true, StopEnabled: true, AutoShownRunning: true, ResetEnabled: true}},
		{GameOver, Controls{ResetEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := ControlsFor(tt.state); got != tt.want {
				t.Fatalf("ControlsFor(%v) = %+v, want %+v", tt.state, got, tt.want)
			}
		})
	}
}

func TestAckOnlyTransitions(t *testing.T) {
	m := NewMachine()
	if m.State() != ManualIdle {
		t.Fatalf("fresh machine should be manual, got %v", m.State())
	}

	// A start request without an acknowledgement changes nothing; only the
	// ack flips state.
	m.AckAutoStart()
	if m.State() != AutoRunning {
		t.Fatalf("acked start should run, got %v", m.State())
	}
	m.AckAutoStart()
	if m.State() != AutoRunning {
		t.Fatalf("repeated ack should stay running, got %v", m.State())
	}
	m.AckAutoStop()
	if m.State() != ManualIdle {
		t.Fatalf("acked stop should idle, got %v", m.State())
	}
}

func TestServerAutoStatusOverridesLocalBelief(t *testing.T) {
	m := NewMachine()

	// Another viewer started the loop; the broadcast wins.
	m.ReconcileAutoStatus(true)
	if m.State() != AutoRunning {
		t.Fatalf("expected auto after broadcast, got %v", m.State())
	}

	// The loop halted server-side without a client-initiated stop.
	m.ReconcileAutoStatus(false)
	if m.State() != ManualIdle {
		t.Fatalf("expected manual after broadcast, got %v", m.State())
	}
}

func TestGameOverIsTerminal(t *testing.T) {
	m := NewMachine()
	m.AckAutoStart()
	m.ObserveSnapshot(true)
	if m.State() != GameOver {
		t.Fatalf("terminal snapshot should end the machine, got %v", m.State())
	}

	m.ReconcileAutoStatus(true)
	if m.State() != GameOver {
		t.Fatalf("auto_status must not leave game over, got %v", m.State())
	}
	m.AckAutoStart()
	m.AckAutoStop()
	if m.State() != GameOver {
		t.Fatalf("acks must not leave game over, got %v", m.State())
	}

	// Only adopting a new instance re-arms the machine.
	m.Reset()
	if m.State() != ManualIdle {
		t.Fatalf("reset should re-enter manual, got %v", m.State())
	}
}

func TestObserveSnapshotIgnoresNonTerminal(t *testing.T) {
	m := NewMachine()
	m.AckAutoStart()
	m.ObserveSnapshot(false)
	if m.State() != AutoRunning {
		t.Fatalf("non-terminal snapshot must not change state, got %v", m.State())
	}
}
