package simtest

import "fire-rescue/viewer/internal/proto"

// NewSnapshot returns a small but fully populated board: an 8x6 grid with a
// burning corner, a smoke pocket, outer walls, one door, two agents sharing a
// cell with a third elsewhere, and two points of interest.
func NewSnapshot() *proto.SimulationSnapshot {
	const width, height = 8, 6

	snap := &proto.SimulationSnapshot{
		Phase:             proto.PhaseAgentTurn,
		CurrentAgentIndex: 0,
		FireStates:        make([][]proto.FireState, height),
		GridData:          make([][][]proto.WallSegment, height),
		Agents: []proto.Agent{
			{ID: 0, Pos: &[2]int{1, 1}, Role: proto.RoleRescuer, ActionPoints: 4},
			{ID: 1, Pos: &[2]int{1, 1}, Role: proto.RoleExtinguisher, ActionPoints: 4},
			{ID: 2, Pos: &[2]int{5, 3}, ActionPoints: 4},
		},
		POIs: []proto.POI{
			{ID: 0, X: 6, Y: 4, Type: proto.POIVictim},
			{ID: 1, X: 2, Y: 0, Type: proto.POIFalse, Revealed: true},
		},
		Stats: proto.FireStats{FireCount: 1, SmokeCount: 1, ClearCount: width*height - 2},
	}

	for y := 0; y < height; y++ {
		snap.FireStates[y] = make([]proto.FireState, width)
		snap.GridData[y] = make([][]proto.WallSegment, width)
		for x := 0; x < width; x++ {
			cell := []proto.WallSegment{0, 0, 0, 0}
			if y == 0 {
				cell[0] = proto.SegmentWallIntact
			}
			if x == width-1 {
				cell[1] = proto.SegmentWallIntact
			}
			if y == height-1 {
				cell[2] = proto.SegmentWallIntact
			}
			if x == 0 {
				cell[3] = proto.SegmentWallIntact
			}
			snap.GridData[y][x] = cell
		}
	}

	snap.FireStates[2][4] = proto.FireFire
	snap.FireStates[2][5] = proto.FireSmoke
	snap.GridData[1][3][1] = proto.SegmentDoorClosed

	return snap
}
