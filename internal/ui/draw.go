package ui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"fire-rescue/viewer/internal/gameover"
	"fire-rescue/viewer/internal/proto"
	"fire-rescue/viewer/internal/render"
	"fire-rescue/viewer/internal/session"
)

var (
	colBackground = color.RGBA{R: 24, G: 26, B: 30, A: 255}
	colClear      = color.RGBA{R: 225, G: 222, B: 210, A: 255}
	colSmoke      = color.RGBA{R: 140, G: 140, B: 150, A: 255}
	colFire       = color.RGBA{R: 226, G: 88, B: 34, A: 255}
	colGridLine   = color.RGBA{R: 60, G: 62, B: 68, A: 255}
	colWall       = color.RGBA{R: 35, G: 30, B: 28, A: 255}
	colDoorOpen   = color.RGBA{R: 110, G: 170, B: 90, A: 255}
	colDoorClosed = color.RGBA{R: 150, G: 100, B: 50, A: 255}

	colCarrying     = color.RGBA{R: 235, G: 120, B: 180, A: 255}
	colRescuer      = color.RGBA{R: 200, G: 50, B: 50, A: 255}
	colExtinguisher = color.RGBA{R: 60, G: 110, B: 220, A: 255}
	colPlainAgent   = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	colCurrentRing  = color.RGBA{R: 250, G: 210, B: 60, A: 255}
	colKnockedOut   = color.RGBA{R: 70, G: 70, B: 70, A: 200}

	colVictim     = color.RGBA{R: 210, G: 60, B: 60, A: 255}
	colFalseAlarm = color.RGBA{R: 230, G: 190, B: 70, A: 255}
	colHiddenPOI  = color.RGBA{R: 120, G: 120, B: 130, A: 255}

	colOverlay = color.RGBA{R: 0, G: 0, B: 0, A: 190}
)

// Draw paints the current render tree, the side panels, and, when the
// simulation has ended, the outcome overlay.
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)

	tree := a.controller.Tree()
	if tree == nil {
		ebitenutil.DebugPrintAt(screen, "Waiting for simulation...", boardMargin, boardMargin)
		a.drawStatusLine(screen)
		return
	}

	cell := a.cellPixels(tree)
	a.drawBoard(screen, tree, cell)
	a.drawPanel(screen, tree)
	a.drawStatusLine(screen)

	if outcome, ok := a.controller.Outcome(); ok {
		a.drawOverlay(screen, outcome, cell, tree)
	}
}

// cellPixels shrinks cells when the instance's board is larger than the
// standard one, so the whole grid always fits the fixed panel.
func (a *App) cellPixels(tree *render.Tree) float32 {
	size := float32(cellSize)
	if w := float32(screenW-panelWidth-2*boardMargin) / float32(tree.Width); w < size {
		size = w
	}
	if h := float32(screenH-2*boardMargin-40) / float32(tree.Height); h < size {
		size = h
	}
	return size
}

func (a *App) drawBoard(screen *ebiten.Image, tree *render.Tree, cell float32) {
	ox, oy := float32(boardMargin), float32(boardMargin)

	for y := 0; y < tree.Height; y++ {
		for x := 0; x < tree.Width; x++ {
			c := tree.CellAt(x, y)
			px := ox + float32(x)*cell
			py := oy + float32(y)*cell

			fill := colClear
			switch c.Fire {
			case render.FireClassSmoke:
				fill = colSmoke
			case render.FireClassFire:
				fill = colFire
			}
			vector.DrawFilledRect(screen, px, py, cell, cell, fill, false)
			vector.StrokeRect(screen, px, py, cell, cell, 1, colGridLine, false)

			a.drawWalls(screen, c, px, py, cell)

			for _, token := range c.Agents {
				a.drawAgentToken(screen, token, px, py, cell)
			}
			for _, token := range c.POIs {
				a.drawPOIToken(screen, token, px, py, cell)
			}
		}
	}
}

func (a *App) drawWalls(screen *ebiten.Image, c *render.Cell, px, py, cell float32) {
	sides := [4][4]float32{
		{px, py, px + cell, py},                 // top
		{px + cell, py, px + cell, py + cell},   // right
		{px, py + cell, px + cell, py + cell},   // bottom
		{px, py, px, py + cell},                 // left
	}
	for side, class := range c.Walls {
		if class == render.WallClassNone {
			continue
		}
		col := colWall
		width := float32(4)
		switch class {
		case render.WallClassDoorOpen:
			col = colDoorOpen
		case render.WallClassDoorClosed:
			col = colDoorClosed
		}
		s := sides[side]
		vector.StrokeLine(screen, s[0], s[1], s[2], s[3], width, col, false)
	}
}

func (a *App) drawAgentToken(screen *ebiten.Image, token render.AgentToken, px, py, cell float32) {
	radius := cell / 6
	cx := px + radius + 4 + float32(token.Col)*(radius*2+4)
	cy := py + radius + 4 + float32(token.Row)*(radius*2+4)

	col := colPlainAgent
	switch token.Style {
	case render.StyleCarrying:
		col = colCarrying
	case render.StyleRescuer:
		col = colRescuer
	case render.StyleExtinguisher:
		col = colExtinguisher
	}
	vector.DrawFilledCircle(screen, cx, cy, radius, col, true)
	if token.KnockedOut {
		vector.DrawFilledCircle(screen, cx, cy, radius, colKnockedOut, true)
	}
	if token.Current {
		vector.StrokeCircle(screen, cx, cy, radius+2, 2, colCurrentRing, true)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d", token.ID), int(cx)-3, int(cy)-8)
}

func (a *App) drawPOIToken(screen *ebiten.Image, token render.POIToken, px, py, cell float32) {
	size := cell / 4
	x := px + cell - size - 4
	y := py + cell - size - 4

	col := colHiddenPOI
	label := "?"
	if token.Revealed {
		label = "!"
		if token.Type == proto.POIVictim {
			col = colVictim
		} else {
			col = colFalseAlarm
		}
	}
	vector.DrawFilledRect(screen, x, y, size, size, col, false)
	ebitenutil.DebugPrintAt(screen, label, int(x)+int(size)/2-3, int(y)+int(size)/2-8)
}

func (a *App) drawPanel(screen *ebiten.Image, tree *render.Tree) {
	x := screenW - panelWidth + 10
	y := boardMargin
	line := func(format string, args ...any) {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf(format, args...), x, y)
		y += 16
	}

	s := tree.Summary
	line("Simulation %s", a.controller.SimulationID())
	line("Round %d  Step %d  %s", s.Round, s.Step, s.PhaseLabel)
	line("Rescued %d  Lost %d  Damage %d", s.Rescued, s.Lost, s.Damage)
	line("Fire %d  Smoke %d  Clear %d", s.FireCount, s.SmokeCount, s.ClearCount)
	y += 8

	line("Agents")
	for _, row := range tree.Agents {
		marker := "  "
		if row.Current {
			marker = "> "
		}
		extra := ""
		if row.Carrying {
			extra += " carrying"
		}
		if row.KnockedOut {
			extra += fmt.Sprintf(" KO(%d)", row.KnockoutTimer)
		}
		line("%sAgent %d  %s  %d AP%s", marker, row.ID, row.RoleLabel, row.ActionPoints, extra)
	}
	y += 8

	line("POIs")
	if tree.POIEmpty != "" {
		line("  %s", tree.POIEmpty)
	}
	for _, row := range tree.POIs {
		state := "hidden"
		if row.Revealed {
			state = "revealed"
		}
		line("  POI %d (%d,%d)  %s  %s", row.ID, row.X, row.Y, row.TypeLabel, state)
	}
	y += 8

	controls := a.controller.Controls()
	line("Controls")
	line("  %s", keyLabel("Space", "step", controls.StepEnabled))
	auto := "auto"
	if controls.AutoShownRunning {
		auto = "auto (running)"
	}
	line("  %s", keyLabel("A", auto, controls.AutoEnabled))
	line("  %s", keyLabel("S", "stop", controls.StopEnabled))
	line("  %s", keyLabel("R", "reset", controls.ResetEnabled))
	line("  [C] copy id   [N] reconnect   [Esc] quit")
}

func keyLabel(key, name string, enabled bool) string {
	if !enabled {
		return fmt.Sprintf("[%s] %s (disabled)", key, name)
	}
	return fmt.Sprintf("[%s] %s", key, name)
}

func (a *App) drawStatusLine(screen *ebiten.Image) {
	y := screenH - 24
	status := ""
	switch a.controller.ChannelState() {
	case session.Disconnected:
		status = "live updates: disconnected"
	case session.Connected:
		status = "live updates: connected"
	case session.Joined:
		status = "live updates: joined"
	}
	if notice := a.controller.Notice(); notice != "" {
		status += "   " + notice
	}
	if time.Now().Before(a.copiedUntil) {
		status += "   simulation id copied"
	}
	ebitenutil.DebugPrintAt(screen, status, boardMargin, y)
}

// drawOverlay dims the board and shows the outcome. Every control except
// reset is disabled by the control machine while it is up.
func (a *App) drawOverlay(screen *ebiten.Image, outcome gameover.Outcome, cell float32, tree *render.Tree) {
	bw := float32(tree.Width) * cell
	bh := float32(tree.Height) * cell
	vector.DrawFilledRect(screen, boardMargin, boardMargin, bw, bh, colOverlay, false)

	x := boardMargin + int(bw)/2 - 110
	y := boardMargin + int(bh)/2 - 48
	line := func(text string) {
		ebitenutil.DebugPrintAt(screen, text, x, y)
		y += 16
	}

	if outcome.Won {
		line("*** VICTORY ***")
	} else {
		line("*** DEFEAT ***")
	}
	line(outcome.Reason)
	y += 8
	line(fmt.Sprintf("Victims rescued  %d/%d", outcome.Rescued, outcome.RescueTarget))
	line(fmt.Sprintf("Victims lost     %d/%d", outcome.Lost, outcome.LossLimit))
	line(fmt.Sprintf("Structural dmg   %d/%d", outcome.Damage, outcome.DamageLimit))
	line(fmt.Sprintf("Rounds played    %d", outcome.Rounds))
	y += 8
	line("Press R to start a new simulation")
}
