// Package render maps a simulation snapshot to a UI tree. Build is pure and
// total: the tree is fully rebuilt from scratch on every call, so rendering
// the same snapshot twice yields identical trees.
package render

import (
	"fmt"

	"fire-rescue/viewer/internal/proto"
)

// FireClass is the visual class of a cell's fire condition.
type FireClass string

const (
	FireClassClear FireClass = "clear"
	FireClassSmoke FireClass = "smoke"
	FireClassFire  FireClass = "fire"
)

// WallClass is the visual class of one cell side.
type WallClass string

const (
	WallClassNone       WallClass = ""
	WallClassWall       WallClass = "wall"
	WallClassDoorOpen   WallClass = "door-open"
	WallClassDoorClosed WallClass = "door-closed"
)

// Cell side indices, matching the grid_data tuple order.
const (
	SideTop = iota
	SideRight
	SideBottom
	SideLeft
)

// TokenStyle is the mutually exclusive agent styling; knocked-out is an
// orthogonal flag on top of it.
type TokenStyle string

const (
	StyleCarrying     TokenStyle = "carrying"
	StyleRescuer      TokenStyle = "rescuer"
	StyleExtinguisher TokenStyle = "extinguisher"
	StylePlain        TokenStyle = "plain"
)

// AgentToken is one agent marker inside a cell. Col/Row place the token in
// the fixed two-column occupancy layout, in agent sequence order.
type AgentToken struct {
	ID         int
	Col        int
	Row        int
	Style      TokenStyle
	KnockedOut bool
	Current    bool
	Tooltip    string
}

// POIToken is one point-of-interest marker inside a cell.
type POIToken struct {
	ID       int
	Type     proto.POIType
	Revealed bool
	Tooltip  string
}

// Cell is one board position with everything drawn at it.
type Cell struct {
	X      int
	Y      int
	Fire   FireClass
	Walls  [4]WallClass
	Agents []AgentToken
	POIs   []POIToken
}

// Summary projects the snapshot counters. No computation happens here.
type Summary struct {
	Round      int
	Step       int
	PhaseLabel string
	Rescued    int
	Lost       int
	Damage     int
	FireCount  int
	SmokeCount int
	ClearCount int
}

// AgentRow is one side-panel entry for an agent.
type AgentRow struct {
	ID            int
	RoleLabel     string
	Carrying      bool
	ActionPoints  int
	KnockoutTimer int
	KnockedOut    bool
	Current       bool
}

// POIRow is one side-panel entry for a point of interest.
type POIRow struct {
	ID        int
	X         int
	Y         int
	TypeLabel string
	IsVictim  bool
	Revealed  bool
}

// POIEmptyMessage is shown instead of an empty list when no POIs remain.
const POIEmptyMessage = "No active POIs"

// Tree is the full UI model for one snapshot.
type Tree struct {
	Width    int
	Height   int
	Cells    []Cell // row-major, y*Width+x
	Summary  Summary
	Agents   []AgentRow
	POIs     []POIRow
	POIEmpty string // POIEmptyMessage when POIs is empty, otherwise ""
	GameOver bool
}

// CellAt returns the cell for board coordinates (x, y).
func (t *Tree) CellAt(x, y int) *Cell {
	return &t.Cells[y*t.Width+x]
}

// Build renders a snapshot into a UI tree.
func Build(s *proto.SimulationSnapshot) *Tree {
	width, height := s.Width(), s.Height()
	tree := &Tree{
		Width:    width,
		Height:   height,
		Cells:    make([]Cell, width*height),
		GameOver: s.GameOver,
		Summary: Summary{
			Round:      s.RoundCount,
			Step:       s.StepCount,
			PhaseLabel: PhaseLabel(s.Phase),
			Rescued:    s.RescuedVictims,
			Lost:       s.LostVictims,
			Damage:     s.DamageCount,
			FireCount:  s.Stats.FireCount,
			SmokeCount: s.Stats.SmokeCount,
			ClearCount: s.Stats.ClearCount,
		},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cell := tree.CellAt(x, y)
			cell.X, cell.Y = x, y
			cell.Fire = fireClass(s.FireStates[y][x])
			for side, seg := range s.GridData[y][x] {
				cell.Walls[side] = wallClass(seg)
			}
		}
	}

	// The current-agent highlight is meaningless once the game is over.
	current := s.CurrentAgentIndex
	if s.GameOver {
		current = -1
	}

	for _, agent := range s.Agents {
		tree.Agents = append(tree.Agents, AgentRow{
			ID:            agent.ID,
			RoleLabel:     RoleLabel(agent.Role),
			Carrying:      bool(agent.CarryingVictim),
			ActionPoints:  agent.ActionPoints,
			KnockoutTimer: agent.KnockoutTimer,
			KnockedOut:    agent.IsKnockedOut,
			Current:       agent.ID == current,
		})

		if agent.Pos == nil {
			continue
		}
		cell := tree.CellAt(agent.Pos[0], agent.Pos[1])
		slot := len(cell.Agents)
		cell.Agents = append(cell.Agents, AgentToken{
			ID:         agent.ID,
			Col:        slot % 2,
			Row:        slot / 2,
			Style:      tokenStyle(agent),
			KnockedOut: agent.IsKnockedOut,
			Current:    agent.ID == current,
			Tooltip:    agentTooltip(agent),
		})
	}

	for _, poi := range s.POIs {
		tree.POIs = append(tree.POIs, POIRow{
			ID:        poi.ID,
			X:         poi.X,
			Y:         poi.Y,
			TypeLabel: poiLabel(poi.Type),
			IsVictim:  poi.Type == proto.POIVictim,
			Revealed:  poi.Revealed,
		})
		cell := tree.CellAt(poi.X, poi.Y)
		cell.POIs = append(cell.POIs, POIToken{
			ID:       poi.ID,
			Type:     poi.Type,
			Revealed: poi.Revealed,
			Tooltip:  poiTooltip(poi),
		})
	}

	if len(tree.POIs) == 0 {
		tree.POIEmpty = POIEmptyMessage
	}

	return tree
}

func fireClass(state proto.FireState) FireClass {
	switch state {
	case proto.FireSmoke:
		return FireClassSmoke
	case proto.FireFire:
		return FireClassFire
	default:
		return FireClassClear
	}
}

func wallClass(seg proto.WallSegment) WallClass {
	switch seg {
	case proto.SegmentWallIntact, proto.SegmentWallDamaged:
		return WallClassWall
	case proto.SegmentDoorOpen:
		return WallClassDoorOpen
	case proto.SegmentDoorClosed:
		return WallClassDoorClosed
	default:
		return WallClassNone
	}
}

// tokenStyle picks the agent styling, first match wins:
// carrying a victim beats role, rescuer beats extinguisher.
func tokenStyle(agent proto.Agent) TokenStyle {
	switch {
	case bool(agent.CarryingVictim):
		return StyleCarrying
	case agent.Role == proto.RoleRescuer:
		return StyleRescuer
	case agent.Role == proto.RoleExtinguisher:
		return StyleExtinguisher
	default:
		return StylePlain
	}
}

func agentTooltip(agent proto.Agent) string {
	role := string(agent.Role)
	if role == "" {
		role = "No Role"
	}
	return fmt.Sprintf("Agent %d - %s - AP: %d", agent.ID, role, agent.ActionPoints)
}

func poiTooltip(poi proto.POI) string {
	state := "Hidden"
	if poi.Revealed {
		state = "Revealed"
	}
	return fmt.Sprintf("POI %d - %s - %s", poi.ID, poi.Type, state)
}

func poiLabel(t proto.POIType) string {
	if t == proto.POIVictim {
		return "Victim"
	}
	return "False"
}

// PhaseLabel translates a wire phase into its display name.
func PhaseLabel(p proto.Phase) string {
	switch p {
	case proto.PhaseAgentTurn:
		return "Agent Turn"
	case proto.PhaseFireSpread:
		return "Fire Spread"
	default:
		return string(p)
	}
}

// RoleLabel translates a wire role into its display name.
func RoleLabel(r proto.Role) string {
	switch r {
	case proto.RoleRescuer:
		return "Rescuer"
	case proto.RoleExtinguisher:
		return "Extinguisher"
	default:
		return "No Role"
	}
}
