// Package session owns the identity of the displayed simulation instance and
// keeps the live channel's joined room consistent with it.
package session

import (
	"context"
	"errors"
	"log"

	"fire-rescue/viewer/internal/control"
	"fire-rescue/viewer/internal/gameover"
	"fire-rescue/viewer/internal/proto"
	"fire-rescue/viewer/internal/render"
	"fire-rescue/viewer/internal/transport"
)

// ChannelState tracks the live channel's lifecycle for the active instance.
type ChannelState int

const (
	Disconnected ChannelState = iota
	Connected
	Joined
)

// SimulationAPI is the one-shot request surface of the simulation service.
type SimulationAPI interface {
	CreateInstance(ctx context.Context) (string, *proto.SimulationSnapshot, error)
	FetchSnapshot(ctx context.Context, id string) (*proto.SimulationSnapshot, error)
	Step(ctx context.Context, id string) (*proto.SimulationSnapshot, error)
	StartAuto(ctx context.Context, id string) error
	StopAuto(ctx context.Context, id string) error
	DeleteInstance(ctx context.Context, id string) error
}

// LiveChannel is the bidirectional event surface of the simulation service.
type LiveChannel interface {
	Connect(ctx context.Context) error
	Join(id string) error
	Leave(id string)
	Events() <-chan proto.ServerEvent
}

// Config wires a controller to its collaborators.
type Config struct {
	API     SimulationAPI
	Channel LiveChannel
	// SimulationID is the externally supplied instance id, empty when the
	// viewer should create a fresh instance.
	SimulationID string
	Logger       *log.Logger
}

type resultKind int

const (
	resultStep resultKind = iota
	resultAutoStart
	resultAutoStop
	resultCreated
	resultReconnected
)

// result carries a command outcome back onto the event loop. id is the
// instance the command was issued against, so stale results can be discarded
// after an instance switch.
type result struct {
	kind  resultKind
	id    string
	newID string
	snap  *proto.SimulationSnapshot
	err   error
}

// Controller is the single owner of the displayed snapshot and session
// state. All mutation happens on the caller's loop via Start, Tick and the
// apply helpers; Request* methods only launch I/O goroutines that post
// results back into the loop.
type Controller struct {
	api     SimulationAPI
	channel LiveChannel
	logger  *log.Logger
	ctx     context.Context

	simID     string
	chanState ChannelState
	snapshot  *proto.SimulationSnapshot
	tree      *render.Tree
	machine   *control.Machine
	presenter *gameover.Presenter
	outcome   *gameover.Outcome
	notice    string

	results chan result
}

// NewController builds a controller; no I/O happens until Start.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		api:       cfg.API,
		channel:   cfg.Channel,
		logger:    logger,
		simID:     cfg.SimulationID,
		machine:   control.NewMachine(),
		presenter: gameover.NewPresenter(),
		results:   make(chan result, 8),
	}
}

// Start connects the live channel and resolves the active instance: adopt
// the externally supplied id when the server still knows it, otherwise fall
// back to creating a fresh instance. Connect always precedes join.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx = ctx

	if err := c.channel.Connect(ctx); err != nil {
		c.logger.Printf("live channel connect failed: %v", err)
		c.notice = "Live channel unavailable"
	} else {
		c.chanState = Connected
	}

	if c.simID != "" {
		snap, err := c.api.FetchSnapshot(ctx, c.simID)
		switch {
		case err == nil:
			c.adopt(c.simID, snap)
			return nil
		case errors.Is(err, transport.ErrNotFound):
			// Abandon the stale id and start over with a new instance.
			c.logger.Printf("simulation %s unknown to server, creating a new one", c.simID)
			c.simID = ""
		default:
			c.notice = "Failed to load simulation"
			return err
		}
	}

	id, snap, err := c.api.CreateInstance(ctx)
	if err != nil {
		c.notice = "Failed to create simulation"
		return err
	}
	c.adopt(id, snap)
	return nil
}

// Tick drains pending channel events and command results without blocking.
// Call it once per frame from the owning loop.
func (c *Controller) Tick() {
	for {
		select {
		case ev := <-c.channel.Events():
			c.applyEvent(ev)
		case res := <-c.results:
			c.applyResult(res)
		default:
			return
		}
	}
}

// RequestStep sends a manual step. Low-stakes: failures are logged and the
// user may simply retry.
func (c *Controller) RequestStep() {
	if !c.machine.Controls().StepEnabled || c.simID == "" {
		return
	}
	id := c.simID
	go func() {
		snap, err := c.api.Step(c.ctx, id)
		c.results <- result{kind: resultStep, id: id, snap: snap, err: err}
	}()
}

// RequestAutoToggle starts or stops the server-side run loop depending on
// the current belief about it.
func (c *Controller) RequestAutoToggle() {
	if c.machine.IsAutoRunning() {
		c.RequestAutoStop()
		return
	}
	if !c.machine.Controls().AutoEnabled || c.simID == "" {
		return
	}
	id := c.simID
	go func() {
		err := c.api.StartAuto(c.ctx, id)
		c.results <- result{kind: resultAutoStart, id: id, err: err}
	}()
}

// RequestAutoStop asks the server to halt its run loop.
func (c *Controller) RequestAutoStop() {
	if !c.machine.Controls().StopEnabled || c.simID == "" {
		return
	}
	id := c.simID
	go func() {
		err := c.api.StopAuto(c.ctx, id)
		c.results <- result{kind: resultAutoStop, id: id, err: err}
	}()
}

// RequestReset creates a brand-new instance and, once it exists, switches
// the session over to it. On failure the current instance stays displayed.
func (c *Controller) RequestReset() {
	id := c.simID
	go func() {
		newID, snap, err := c.api.CreateInstance(c.ctx)
		c.results <- result{kind: resultCreated, id: id, newID: newID, snap: snap, err: err}
	}()
}

// RequestReconnect re-dials a dropped live channel. Re-joining is explicit:
// it happens only here, never implicitly inside the transport.
func (c *Controller) RequestReconnect() {
	if c.chanState != Disconnected {
		return
	}
	id := c.simID
	go func() {
		err := c.channel.Connect(c.ctx)
		c.results <- result{kind: resultReconnected, id: id, err: err}
	}()
}

func (c *Controller) applyEvent(ev proto.ServerEvent) {
	switch ev.Event {
	case proto.EventSimulationUpdate:
		// Broadcasts carry no instance id; the joined room scopes them.
		// Last write wins, the snapshot is replaced wholesale.
		c.applySnapshot(ev.Snapshot)
	case proto.EventAutoStatus:
		c.machine.ReconcileAutoStatus(ev.AutoRunning)
	case proto.EventJoined:
		if ev.SimulationID == c.simID {
			c.chanState = Joined
		}
	case proto.EventError:
		c.logger.Printf("channel error: %s", ev.Message)
		c.notice = ev.Message
	case transport.EventTransportError:
		c.logger.Printf("live channel dropped: %s", ev.Message)
		c.notice = "Live channel dropped"
		c.chanState = Disconnected
	}
}

func (c *Controller) applyResult(res result) {
	switch res.kind {
	case resultStep:
		if res.id != c.simID {
			return
		}
		if res.err != nil {
			c.logger.Printf("step failed: %v", res.err)
			return
		}
		c.applySnapshot(res.snap)
	case resultAutoStart:
		if res.id != c.simID {
			return
		}
		if res.err != nil {
			c.logger.Printf("auto start failed: %v", res.err)
			return
		}
		c.machine.AckAutoStart()
	case resultAutoStop:
		if res.id != c.simID {
			return
		}
		if res.err != nil {
			c.logger.Printf("auto stop failed: %v", res.err)
			return
		}
		c.machine.AckAutoStop()
	case resultCreated:
		c.applyCreated(res)
	case resultReconnected:
		if res.err != nil {
			c.logger.Printf("reconnect failed: %v", res.err)
			c.notice = "Reconnect failed"
			return
		}
		c.chanState = Connected
		c.notice = ""
		if c.simID != "" {
			c.join(c.simID)
		}
	}
}

func (c *Controller) applyCreated(res result) {
	if res.err != nil {
		// The prior instance stays on screen untouched.
		c.logger.Printf("create simulation failed: %v", res.err)
		c.notice = "Failed to create simulation"
		return
	}
	if res.id != c.simID {
		// A competing switch landed first; this instance is an orphan.
		c.deleteQuietly(res.newID)
		return
	}

	old := res.id
	if old != "" {
		if c.chanState == Joined {
			c.channel.Leave(old)
			c.chanState = Connected
		}
		c.deleteQuietly(old)
	}
	c.adopt(res.newID, res.snap)
}

// adopt switches the session to a new instance: replace the snapshot, drop
// any auto-run belief, re-arm the presenter, and join the room. A late leave
// of the previous room must already have happened.
func (c *Controller) adopt(id string, snap *proto.SimulationSnapshot) {
	c.simID = id
	c.machine.Reset()
	c.presenter.Reset()
	c.outcome = nil
	c.notice = ""
	c.applySnapshot(snap)
	c.join(id)
}

func (c *Controller) join(id string) {
	if c.chanState == Disconnected {
		c.notice = "Live updates unavailable"
		return
	}
	if err := c.channel.Join(id); err != nil {
		c.logger.Printf("join %s failed: %v", id, err)
		c.notice = "Failed to join live updates"
	}
}

func (c *Controller) deleteQuietly(id string) {
	go func() {
		if err := c.api.DeleteInstance(c.ctx, id); err != nil {
			c.logger.Printf("delete %s: %v", id, err)
		}
	}()
}

func (c *Controller) applySnapshot(snap *proto.SimulationSnapshot) {
	if snap == nil {
		return
	}
	c.snapshot = snap
	c.tree = render.Build(snap)
	c.machine.ObserveSnapshot(snap.GameOver)
	if outcome, fired := c.presenter.Observe(snap); fired {
		c.outcome = &outcome
	}
}

// SimulationID reports the active instance id, empty before resolution.
func (c *Controller) SimulationID() string {
	return c.simID
}

// Channel reports the live channel state for the active instance.
func (c *Controller) ChannelState() ChannelState {
	return c.chanState
}

// Snapshot exposes the current server-authoritative state, nil before the
// first snapshot arrives.
func (c *Controller) Snapshot() *proto.SimulationSnapshot {
	return c.snapshot
}

// Tree exposes the render tree built from the current snapshot.
func (c *Controller) Tree() *render.Tree {
	return c.tree
}

// Controls reports the affordance set of the control machine.
func (c *Controller) Controls() control.Controls {
	return c.machine.Controls()
}

// ControlState exposes the control machine's state.
func (c *Controller) ControlState() control.State {
	return c.machine.State()
}

// Outcome returns the end-of-game summary while the overlay is up.
func (c *Controller) Outcome() (gameover.Outcome, bool) {
	if !c.presenter.Active() || c.outcome == nil {
		return gameover.Outcome{}, false
	}
	return *c.outcome, true
}

// Notice returns the current user-visible notification, empty when clear.
func (c *Controller) Notice() string {
	return c.notice
}
