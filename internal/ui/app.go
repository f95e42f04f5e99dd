// Package ui hosts the ebiten front end. It owns no simulation state: every
// frame it ticks the session controller, forwards key intents, and paints the
// controller's current render tree.
package ui

import (
	"log"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"

	"fire-rescue/viewer/internal/session"
)

// Logical layout constants. The board panel is sized for the standard 8x6
// building; larger boards scale the cell size down in Draw.
const (
	cellSize    = 72
	boardMargin = 24
	panelWidth  = 330
	screenW     = boardMargin*2 + 8*cellSize + panelWidth
	screenH     = boardMargin*2 + 6*cellSize + 40
)

var watchedKeys = []ebiten.Key{
	ebiten.KeySpace,
	ebiten.KeyA,
	ebiten.KeyS,
	ebiten.KeyR,
	ebiten.KeyC,
	ebiten.KeyN,
	ebiten.KeyEscape,
}

// App is the ebiten game loop around a session controller.
type App struct {
	controller *session.Controller
	logger     *log.Logger

	prevKeys    map[ebiten.Key]bool
	copiedUntil time.Time
}

// New wires the viewer window to a started session controller.
func New(controller *session.Controller, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	return &App{
		controller: controller,
		logger:     logger,
		prevKeys:   make(map[ebiten.Key]bool),
	}
}

// Update drains session events and maps key edges onto control intents.
func (a *App) Update() error {
	a.controller.Tick()

	pressed := func(key ebiten.Key) bool {
		down := ebiten.IsKeyPressed(key)
		edge := down && !a.prevKeys[key]
		a.prevKeys[key] = down
		return edge
	}

	for _, key := range watchedKeys {
		if !pressed(key) {
			continue
		}
		switch key {
		case ebiten.KeySpace:
			a.controller.RequestStep()
		case ebiten.KeyA:
			a.controller.RequestAutoToggle()
		case ebiten.KeyS:
			a.controller.RequestAutoStop()
		case ebiten.KeyR:
			a.controller.RequestReset()
		case ebiten.KeyN:
			a.controller.RequestReconnect()
		case ebiten.KeyC:
			a.copySimulationID()
		case ebiten.KeyEscape:
			return ebiten.Termination
		}
	}
	return nil
}

func (a *App) copySimulationID() {
	id := a.controller.SimulationID()
	if id == "" {
		return
	}
	if err := clipboard.WriteAll(id); err != nil {
		a.logger.Printf("copy simulation id: %v", err)
		return
	}
	a.copiedUntil = time.Now().Add(2 * time.Second)
}

// WindowSize reports the preferred window size for ebiten.SetWindowSize.
func WindowSize() (int, int) {
	return screenW, screenH
}

// Layout reports the fixed logical screen size.
func (a *App) Layout(_, _ int) (int, int) {
	return screenW, screenH
}
