package worldstore

import (
	"testing"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
)

type recordingSink struct {
	calls []struct {
		room geometry.RoomCoordinates
		pos  geometry.Position
		tile byte
	}
}

func (s *recordingSink) BroadcastTileChange(room geometry.RoomCoordinates, pos geometry.Position, tile byte) {
	s.calls = append(s.calls, struct {
		room geometry.RoomCoordinates
		pos  geometry.Position
		tile byte
	}{room, pos, tile})
}

func newTestStore() (*Store, geometry.RoomCoordinates) {
	rc := geometry.RoomCoordinates{X: 1, Y: 1}
	var room Room
	room.Data[0] = 28 // CANVAS_TILES member
	var def Room
	attrs := &MapAttributes{Width: 1, Height: 32, Attributes: make([]byte, 32)}
	return NewStore(map[geometry.RoomCoordinates]*Room{rc: &room}, &def, attrs), rc
}

// Adjacent rooms share their border row/column, so a room's own origin in
// world-position space is offset by (RoomWidth-1, RoomHeight-1) per step,
// not by RoomWidth/RoomHeight (see geometry.Position.ToIndex).
func roomOrigin(rc geometry.RoomCoordinates) geometry.Position {
	return geometry.Position{
		X: int16(rc.X) * (RoomWidth - 1),
		Y: int16(rc.Y) * (RoomHeight - 1),
	}
}

func TestGetTileFallsBackToDefault(t *testing.T) {
	store, _ := newTestStore()
	missing := geometry.RoomCoordinates{X: 9, Y: 9}
	tile, err := store.GetTile(roomOrigin(missing), missing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tile != 0 {
		t.Errorf("expected default room's zero byte, got %d", tile)
	}
}

func TestTryUpdateTileAppliesAndBroadcasts(t *testing.T) {
	store, rc := newTestStore()
	sink := &recordingSink{}
	store.SetSink(sink)

	pos := roomOrigin(rc) // room's (0,0) tile, index 0

	changed := store.TryUpdateTile(pos, CanvasTiles, func(b byte) byte {
		return (b & 16) | 13
	})
	if changed != 1 {
		t.Fatalf("expected exactly one room changed, got %d", changed)
	}

	newTile, err := store.GetTile(pos, rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTile != 29 {
		t.Errorf("tile = %d, want 29 (28&16)|13=29", newTile)
	}
	if len(sink.calls) != 1 || sink.calls[0].tile != 29 {
		t.Errorf("expected one broadcast with tile 29, got %+v", sink.calls)
	}
}

func TestTryUpdateTileRejectsTileNotInValidSet(t *testing.T) {
	store, rc := newTestStore()
	pos := roomOrigin(rc)

	changed := store.TryUpdateTile(pos, MakeCorpseTiles, func(b byte) byte { return b + 16 })
	if changed != 0 {
		t.Fatalf("tile 28 is not in MakeCorpseTiles, expected 0 changes, got %d", changed)
	}
}
