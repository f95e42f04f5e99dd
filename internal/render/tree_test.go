package render

import (
	"reflect"
	"testing"

	"fire-rescue/viewer/internal/proto"
	"fire-rescue/viewer/internal/simtest"
)

func TestBuildIsIdempotent(t *testing.T) {
	snap := simtest.NewSnapshot()
	first := Build(snap)
	second := Build(snap)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rendering the same snapshot twice produced different trees")
	}
}

func TestBuildProjectsSummary(t *testing.T) {
	snap := simtest.NewSnapshot()
	snap.RoundCount = 3
	snap.StepCount = 17
	snap.Phase = proto.PhaseFireSpread
	snap.RescuedVictims = 2
	snap.LostVictims = 1
	snap.DamageCount = 6

	tree := Build(snap)
	want := Summary{
		Round:      3,
		Step:       17,
		PhaseLabel: "Fire Spread",
		Rescued:    2,
		Lost:       1,
		Damage:     6,
		FireCount:  snap.Stats.FireCount,
		SmokeCount: snap.Stats.SmokeCount,
		ClearCount: snap.Stats.ClearCount,
	}
	if tree.Summary != want {
		t.Fatalf("summary = %+v, want %+v", tree.Summary, want)
	}
}

func TestBuildCellClasses(t *testing.T) {
	snap := simtest.NewSnapshot()
	tree := Build(snap)

	if got := tree.CellAt(4, 2).Fire; got != FireClassFire {
		t.Fatalf("expected fire at (4,2), got %q", got)
	}
	if got := tree.CellAt(5, 2).Fire; got != FireClassSmoke {
		t.Fatalf("expected smoke at (5,2), got %q", got)
	}
	if got := tree.CellAt(0, 0).Fire; got != FireClassClear {
		t.Fatalf("expected clear at (0,0), got %q", got)
	}

	corner := tree.CellAt(0, 0)
	if corner.Walls[SideTop] != WallClassWall || corner.Walls[SideLeft] != WallClassWall {
		t.Fatalf("expected outer walls at corner, got %v", corner.Walls)
	}
	if corner.Walls[SideRight] != WallClassNone || corner.Walls[SideBottom] != WallClassNone {
		t.Fatalf("expected open inner sides at corner, got %v", corner.Walls)
	}
	if got := tree.CellAt(3, 1).Walls[SideRight]; got != WallClassDoorClosed {
		t.Fatalf("expected closed door right of (3,1), got %q", got)
	}
}

func TestBuildTreatsDamagedWallAsWall(t *testing.T) {
	snap := simtest.NewSnapshot()
	snap.GridData[0][0][SideTop] = proto.SegmentWallDamaged
	tree := Build(snap)
	if got := tree.CellAt(0, 0).Walls[SideTop]; got != WallClassWall {
		t.Fatalf("damaged wall should render as wall, got %q", got)
	}
}

func TestMultiOccupancyLayoutIsDeterministic(t *testing.T) {
	snap := simtest.NewSnapshot()
	// Stack four agents on one cell, in sequence order.
	snap.Agents = []proto.Agent{
		{ID: 0, Pos: &[2]int{2, 2}, ActionPoints: 4},
		{ID: 1, Pos: &[2]int{2, 2}, ActionPoints: 4},
		{ID: 2, Pos: &[2]int{2, 2}, ActionPoints: 4},
		{ID: 3, Pos: &[2]int{2, 2}, ActionPoints: 4},
	}

	tokens := Build(snap).CellAt(2, 2).Agents
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	wantSlots := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, token := range tokens {
		if token.ID != i {
			t.Fatalf("token %d should be agent %d in sequence order, got %d", i, i, token.ID)
		}
		if token.Col != wantSlots[i][0] || token.Row != wantSlots[i][1] {
			t.Fatalf("token %d at (%d,%d), want (%d,%d)", i, token.Col, token.Row, wantSlots[i][0], wantSlots[i][1])
		}
	}
}

func TestTokenStylePriority(t *testing.T) {
	tests := []struct {
		name  string
		agent proto.Agent
		want  TokenStyle
	}{
		{"carrying beats role", proto.Agent{CarryingVictim: true, Role: proto.RoleRescuer}, StyleCarrying},
		{"rescuer", proto.Agent{Role: proto.RoleRescuer}, StyleRescuer},
		{"extinguisher", proto.Agent{Role: proto.RoleExtinguisher}, StyleExtinguisher},
		{"no role", proto.Agent{}, StylePlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenStyle(tt.agent); got != tt.want {
				t.Fatalf("tokenStyle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKnockedOutIsOrthogonalToStyle(t *testing.T) {
	snap := simtest.NewSnapshot()
	snap.Agents = []proto.Agent{
		{ID: 0, Pos: &[2]int{1, 1}, Role: proto.RoleRescuer, CarryingVictim: true, IsKnockedOut: true},
	}
	token := Build(snap).CellAt(1, 1).Agents[0]
	if token.Style != StyleCarrying {
		t.Fatalf("knocked-out must not displace carrying style, got %q", token.Style)
	}
	if !token.KnockedOut {
		t.Fatalf("knocked-out flag should be set")
	}
}

func TestCurrentAgentHighlight(t *testing.T) {
	snap := simtest.NewSnapshot()
	snap.CurrentAgentIndex = 1

	tree := Build(snap)
	var current []int
	for _, row := range tree.Agents {
		if row.Current {
			current = append(current, row.ID)
		}
	}
	if len(current) != 1 || current[0] != 1 {
		t.Fatalf("expected exactly agent 1 highlighted, got %v", current)
	}

	// The highlight is ignored once the game is over.
	snap.GameOver = true
	snap.EndReason = "All victims lost"
	for _, row := range Build(snap).Agents {
		if row.Current {
			t.Fatalf("terminal snapshot must not highlight agent %d", row.ID)
		}
	}
}

func TestRemovedAgentKeepsPanelRowOnly(t *testing.T) {
	snap := simtest.NewSnapshot()
	snap.Agents[2].Pos = nil
	tree := Build(snap)
	if len(tree.Agents) != 3 {
		t.Fatalf("panel should list all agents, got %d rows", len(tree.Agents))
	}
	for _, cell := range tree.Cells {
		for _, token := range cell.Agents {
			if token.ID == 2 {
				t.Fatalf("removed agent must not appear on the board")
			}
		}
	}
}

func TestPOIPanelAndTokens(t *testing.T) {
	snap := simtest.NewSnapshot()
	tree := Build(snap)

	if tree.POIEmpty != "" {
		t.Fatalf("non-empty POI list should have no empty-state message")
	}
	if len(tree.POIs) != 2 {
		t.Fatalf("expected 2 POI rows, got %d", len(tree.POIs))
	}
	victim := tree.POIs[0]
	if !victim.IsVictim || victim.TypeLabel != "Victim" || victim.Revealed {
		t.Fatalf("unexpected victim row %+v", victim)
	}
	tokens := tree.CellAt(2, 0).POIs
	if len(tokens) != 1 || tokens[0].Type != proto.POIFalse || !tokens[0].Revealed {
		t.Fatalf("unexpected false-alarm token %+v", tokens)
	}

	snap.POIs = nil
	tree = Build(snap)
	if tree.POIEmpty != POIEmptyMessage {
		t.Fatalf("empty POI list should carry %q, got %q", POIEmptyMessage, tree.POIEmpty)
	}
}

func TestTooltips(t *testing.T) {
	snap := simtest.NewSnapshot()
	token := Build(snap).CellAt(1, 1).Agents[0]
	if token.Tooltip != "Agent 0 - rescuer - AP: 4" {
		t.Fatalf("unexpected agent tooltip %q", token.Tooltip)
	}

	snap.Agents[0].Role = proto.RoleNone
	token = Build(snap).CellAt(1, 1).Agents[0]
	if token.Tooltip != "Agent 0 - No Role - AP: 4" {
		t.Fatalf("unexpected no-role tooltip %q", token.Tooltip)
	}

	poi := Build(snap).CellAt(6, 4).POIs[0]
	if poi.Tooltip != "POI 0 - victim - Hidden" {
		t.Fatalf("unexpected poi tooltip %q", poi.Tooltip)
	}
}
