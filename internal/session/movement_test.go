package session

import (
	"errors"
	"testing"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// fakeWorld reports tile type 0 (walkable) everywhere except positions
// explicitly listed as blocked.
type fakeWorld struct {
	blocked map[geometry.Position]byte
}

func (w fakeWorld) GetTileType(pos geometry.Position, _ geometry.RoomCoordinates) (byte, bool) {
	if tt, ok := w.blocked[pos]; ok {
		return tt, true
	}
	return 0, true
}

func openWorld() fakeWorld { return fakeWorld{blocked: map[geometry.Position]byte{}} }

func TestUpdatePositionFirstMovementMustMatchSpawn(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	wrong := protocol.ClientSpawnPosition.East(5)

	_, err := c.UpdatePosition([]geometry.Position{wrong}, openWorld(), MovementLimits{})
	var target FirstMovementError
	if !errors.As(err, &target) {
		t.Fatalf("err = %v, want FirstMovementError", err)
	}
	if c.HasMoved {
		t.Error("HasMoved should stay false after a rejected first movement")
	}
}

func TestUpdatePositionFirstMovementSetsHasMoved(t *testing.T) {
	c := New(1, protocol.ColorGreen)

	dist, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{})
	if err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if dist != 0 {
		t.Errorf("dist = %d, want 0 for the spawn-reconciling first movement", dist)
	}
	if !c.HasMoved {
		t.Error("HasMoved should be true after the first movement lands on spawn")
	}
	if c.Soaprunner.TeleportTrigger != 1 {
		t.Errorf("TeleportTrigger = %d, want 1", c.Soaprunner.TeleportTrigger)
	}
}

func TestUpdatePositionStraightLineWalk(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}

	dest := protocol.ClientSpawnPosition.East(3)
	dist, err := c.UpdatePosition([]geometry.Position{dest}, openWorld(), MovementLimits{})
	if err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if dist != 3 {
		t.Errorf("dist = %d, want 3", dist)
	}
	if got := c.Soaprunner.Position(); got != dest {
		t.Errorf("position = %v, want %v", got, dest)
	}
}

func TestUpdatePositionRejectsDiagonalSegment(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}

	diagonal := geometry.Position{
		X: protocol.ClientSpawnPosition.X + 2,
		Y: protocol.ClientSpawnPosition.Y + 2,
	}
	_, err := c.UpdatePosition([]geometry.Position{diagonal}, openWorld(), MovementLimits{})
	var target MisalignedNodesError
	if !errors.As(err, &target) {
		t.Fatalf("err = %v, want MisalignedNodesError", err)
	}
}

func TestUpdatePositionRejectsBlockedTile(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}

	blockedAt := protocol.ClientSpawnPosition.East(1)
	w := fakeWorld{blocked: map[geometry.Position]byte{blockedAt: 1}}

	dest := protocol.ClientSpawnPosition.East(2)
	_, err := c.UpdatePosition([]geometry.Position{dest}, w, MovementLimits{})
	var target InvalidTileTypeError
	if !errors.As(err, &target) {
		t.Fatalf("err = %v, want InvalidTileTypeError", err)
	}
}

func TestUpdatePositionGhostIgnoresTileType(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}
	c.SetSprite(protocol.SpriteGhost)

	blockedAt := protocol.ClientSpawnPosition.East(1)
	w := fakeWorld{blocked: map[geometry.Position]byte{blockedAt: 1}}

	dest := protocol.ClientSpawnPosition.East(2)
	dist, err := c.UpdatePosition([]geometry.Position{dest}, w, MovementLimits{})
	if err != nil {
		t.Fatalf("ghost should pass through blocked tiles, got: %v", err)
	}
	if dist != 2 {
		t.Errorf("dist = %d, want 2", dist)
	}
}

func TestUpdatePositionEnforcesPerNodeDistanceLimit(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}

	dest := protocol.ClientSpawnPosition.East(10)
	_, err := c.UpdatePosition([]geometry.Position{dest}, openWorld(), MovementLimits{MaxDistancePerNode: 5})
	var target NodesTooFarError
	if !errors.As(err, &target) {
		t.Fatalf("err = %v, want NodesTooFarError", err)
	}
}

func TestUpdatePositionEnforcesNodeCountLimit(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}

	movements := []geometry.Position{
		protocol.ClientSpawnPosition.East(1),
		protocol.ClientSpawnPosition.East(2),
		protocol.ClientSpawnPosition.East(3),
	}
	_, err := c.UpdatePosition(movements, openWorld(), MovementLimits{MaxNodesPerPacket: 2})
	var target TooManyNodesError
	if !errors.As(err, &target) {
		t.Fatalf("err = %v, want TooManyNodesError", err)
	}
}

func TestUpdatePositionEnforcesTotalDistanceLimit(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	if _, err := c.UpdatePosition([]geometry.Position{protocol.ClientSpawnPosition}, openWorld(), MovementLimits{}); err != nil {
		t.Fatalf("spawn move: %v", err)
	}

	movements := []geometry.Position{
		protocol.ClientSpawnPosition.East(3),
		protocol.ClientSpawnPosition.East(6),
	}
	_, err := c.UpdatePosition(movements, openWorld(), MovementLimits{MaxDistancePerPacket: 4})
	var target TotalTooFarError
	if !errors.As(err, &target) {
		t.Fatalf("err = %v, want TotalTooFarError", err)
	}
}

func TestUpdatePositionEmptyMovementsIsNoop(t *testing.T) {
	c := New(1, protocol.ColorGreen)
	dist, err := c.UpdatePosition(nil, openWorld(), MovementLimits{})
	if err != nil || dist != 0 {
		t.Fatalf("dist, err = %d, %v; want 0, nil", dist, err)
	}
	if c.HasMoved {
		t.Error("an empty movement packet must not count as the first movement")
	}
}
