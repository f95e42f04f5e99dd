// Package gameover turns the terminal snapshot into an outcome summary.
package gameover

import "fire-rescue/viewer/internal/proto"

// Scoreboard targets from the board game. Display-only annotations; the
// simulation service enforces them, this client never does.
const (
	VictimsToWin        = 7
	MaxVictimsLost      = 4
	MaxStructuralDamage = 24
)

// Outcome is the end-of-game summary shown over the board.
type Outcome struct {
	Won          bool
	Reason       string
	Rescued      int
	RescueTarget int
	Lost         int
	LossLimit    int
	Damage       int
	DamageLimit  int
	Rounds       int
}

// Presenter fires exactly once per non-terminal to terminal transition.
// Repeated terminal snapshots keep the overlay up without re-triggering it;
// only a new instance re-arms the edge.
type Presenter struct {
	terminal bool
}

// NewPresenter starts armed, before any terminal snapshot.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// Observe inspects a snapshot. The returned bool is true only on the edge
// into the terminal state; the Outcome is valid only then.
func (p *Presenter) Observe(s *proto.SimulationSnapshot) (Outcome, bool) {
	if !s.GameOver {
		p.terminal = false
		return Outcome{}, false
	}
	if p.terminal {
		return Outcome{}, false
	}
	p.terminal = true
	return Outcome{
		Won:          s.GameWon,
		Reason:       s.EndReason,
		Rescued:      s.RescuedVictims,
		RescueTarget: VictimsToWin,
		Lost:         s.LostVictims,
		LossLimit:    MaxVictimsLost,
		Damage:       s.DamageCount,
		DamageLimit:  MaxStructuralDamage,
		Rounds:       s.RoundCount,
	}, true
}

// Active reports whether the overlay should stay visible.
func (p *Presenter) Active() bool {
	return p.terminal
}

// Reset re-arms the presenter when a new instance is adopted.
func (p *Presenter) Reset() {
	p.terminal = false
}
