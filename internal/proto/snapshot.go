package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSnapshot marks a payload that is missing required fields or
// carries values outside the wire contract. Callers treat it the same as an
// unreachable service and never render the payload.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// FireState enumerates the per-cell fire condition.
type FireState int

const (
	FireClear FireState = 0
	FireSmoke FireState = 1
	FireFire  FireState = 2
)

// WallSegment enumerates one side of a cell in grid_data order.
type WallSegment int

const (
	SegmentNone        WallSegment = 0
	SegmentWallIntact  WallSegment = 1
	SegmentWallDamaged WallSegment = 2
	SegmentDoorOpen    WallSegment = 3
	SegmentDoorClosed  WallSegment = 4
)

// Phase enumerates the simulation round phases.
type Phase string

const (
	PhaseAgentTurn  Phase = "AGENT_TURN"
	PhaseFireSpread Phase = "FIRE_SPREAD"
)

// Role enumerates agent specializations. The empty string means no role.
type Role string

const (
	RoleRescuer      Role = "rescuer"
	RoleExtinguisher Role = "extinguisher"
	RoleNone         Role = ""
)

// POIType enumerates point-of-interest kinds.
type POIType string

const (
	POIVictim POIType = "victim"
	POIFalse  POIType = "false"
)

// CarryFlag reports whether an agent is carrying a victim. Some service
// builds serialize the field as the carried victim's integer id, or null for
// empty hands, instead of a boolean; decoding tolerates all three shapes.
type CarryFlag bool

// UnmarshalJSON accepts true/false, null, and a victim id. Any id counts as
// carrying, including id 0.
func (c *CarryFlag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null", "false":
		*c = false
		return nil
	case "true":
		*c = true
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("carrying_victim: %w", err)
	}
	*c = true
	return nil
}

// Agent mirrors one firefighter agent as served by the simulation service.
// Pos is nil once the agent has been removed from the board.
type Agent struct {
	ID             int       `json:"id"`
	Pos            *[2]int   `json:"pos"`
	Role           Role      `json:"role"`
	ActionPoints   int       `json:"action_points"`
	CarryingVictim CarryFlag `json:"carrying_victim"`
	KnockoutTimer  int       `json:"knockout_timer"`
	IsKnockedOut   bool      `json:"is_knocked_out"`
}

// POI mirrors one point-of-interest marker.
type POI struct {
	ID       int     `json:"id"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Type     POIType `json:"type"`
	Revealed bool    `json:"revealed"`
}

// FireStats carries derived cell counts, informational only.
type FireStats struct {
	FireCount  int `json:"fire_count"`
	SmokeCount int `json:"smoke_count"`
	ClearCount int `json:"clear_count"`
}

// SimulationSnapshot is the complete server-authoritative state payload.
// A snapshot always replaces the previous one wholesale; the client never
// merges partial updates.
type SimulationSnapshot struct {
	StepCount         int             `json:"step_count"`
	RoundCount        int             `json:"round_count"`
	Phase             Phase           `json:"phase"`
	CurrentAgentIndex int             `json:"current_agent_index"`
	FireStates        [][]FireState   `json:"fire_states"`
	GridData          [][][]WallSegment `json:"grid_data"`
	Agents            []Agent         `json:"agents"`
	POIs              []POI           `json:"pois"`
	RescuedVictims    int             `json:"rescued_victims"`
	LostVictims       int             `json:"lost_victims"`
	DamageCount       int             `json:"damage_count"`
	GameOver          bool            `json:"game_over"`
	GameWon           bool            `json:"game_won"`
	EndReason         string          `json:"end_reason"`
	Stats             FireStats       `json:"stats"`
}

// Height returns the number of grid rows.
func (s *SimulationSnapshot) Height() int {
	return len(s.FireStates)
}

// Width returns the number of grid columns.
func (s *SimulationSnapshot) Width() int {
	if len(s.FireStates) == 0 {
		return 0
	}
	return len(s.FireStates[0])
}

// DecodeSnapshot parses and validates a snapshot payload.
func DecodeSnapshot(data []byte) (*SimulationSnapshot, error) {
	var snap SimulationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks the invariants the renderer relies on: rectangular grids of
// matching dimensions, four wall segments per cell, in-range enums,
// non-negative counters, and agent and POI positions inside the board.
func (s *SimulationSnapshot) Validate() error {
	height := len(s.FireStates)
	if height == 0 {
		return fmt.Errorf("%w: empty fire_states", ErrMalformedSnapshot)
	}
	width := len(s.FireStates[0])
	if width == 0 {
		return fmt.Errorf("%w: empty fire_states row", ErrMalformedSnapshot)
	}
	for y, row := range s.FireStates {
		if len(row) != width {
			return fmt.Errorf("%w: ragged fire_states row %d", ErrMalformedSnapshot, y)
		}
		for x, cell := range row {
			if cell < FireClear || cell > FireFire {
				return fmt.Errorf("%w: fire state %d at (%d,%d)", ErrMalformedSnapshot, cell, x, y)
			}
		}
	}

	if len(s.GridData) != height {
		return fmt.Errorf("%w: grid_data height %d, want %d", ErrMalformedSnapshot, len(s.GridData), height)
	}
	for y, row := range s.GridData {
		if len(row) != width {
			return fmt.Errorf("%w: ragged grid_data row %d", ErrMalformedSnapshot, y)
		}
		for x, cell := range row {
			if len(cell) != 4 {
				return fmt.Errorf("%w: cell (%d,%d) has %d wall segments", ErrMalformedSnapshot, x, y, len(cell))
			}
			for _, seg := range cell {
				if seg < SegmentNone || seg > SegmentDoorClosed {
					return fmt.Errorf("%w: wall segment %d at (%d,%d)", ErrMalformedSnapshot, seg, x, y)
				}
			}
		}
	}

	switch s.Phase {
	case PhaseAgentTurn, PhaseFireSpread:
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrMalformedSnapshot, s.Phase)
	}

	for _, agent := range s.Agents {
		if agent.Pos == nil {
			continue
		}
		x, y := agent.Pos[0], agent.Pos[1]
		if x < 0 || x >= width || y < 0 || y >= height {
			return fmt.Errorf("%w: agent %d at (%d,%d) outside %dx%d board", ErrMalformedSnapshot, agent.ID, x, y, width, height)
		}
	}

	for _, poi := range s.POIs {
		if poi.X < 0 || poi.X >= width || poi.Y < 0 || poi.Y >= height {
			return fmt.Errorf("%w: poi %d at (%d,%d) outside %dx%d board", ErrMalformedSnapshot, poi.ID, poi.X, poi.Y, width, height)
		}
	}

	if s.StepCount < 0 || s.RoundCount < 0 {
		return fmt.Errorf("%w: negative step/round count", ErrMalformedSnapshot)
	}
	if s.RescuedVictims < 0 || s.LostVictims < 0 || s.DamageCount < 0 {
		return fmt.Errorf("%w: negative tally", ErrMalformedSnapshot)
	}

	return nil
}
