package worldstore

import (
	"testing"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
)

func TestVerifyRoomsPassesForConsistentGrid(t *testing.T) {
	// Two rooms side by side (0,0) west of (1,0): (0,0)'s east edge must
	// equal (1,0)'s west edge. Build them consistently.
	var a, b Room
	for i := range a.Data {
		a.Data[i] = 5
	}
	for i := range b.Data {
		b.Data[i] = 5
	}

	rooms := map[geometry.RoomCoordinates]*Room{
		{X: 0, Y: 0}: &a,
		{X: 1, Y: 0}: &b,
	}
	var defaultRoom Room

	if err := VerifyRooms(rooms, &defaultRoom, BoundsInBounds, nil); err != nil {
		t.Fatalf("expected consistent grid to verify, got %v", err)
	}
}

func TestVerifyRoomsFailsOnMismatch(t *testing.T) {
	var a, b Room
	for i := range a.Data {
		a.Data[i] = 5
	}
	// b's west edge (what a's east edge must match) differs.
	for i := range b.Data {
		b.Data[i] = 9
	}

	rooms := map[geometry.RoomCoordinates]*Room{
		{X: 0, Y: 0}: &a,
		{X: 1, Y: 0}: &b,
	}
	var defaultRoom Room

	if err := VerifyRooms(rooms, &defaultRoom, BoundsInBounds, nil); err == nil {
		t.Fatal("expected a verification error for mismatched edges")
	}
}

func TestVerifyRoomsNoneSkips(t *testing.T) {
	var a Room
	rooms := map[geometry.RoomCoordinates]*Room{{X: 0, Y: 0}: &a}
	var defaultRoom Room
	if err := VerifyRooms(rooms, &defaultRoom, BoundsNone, nil); err != nil {
		t.Fatalf("BoundsNone should never fail, got %v", err)
	}
}
