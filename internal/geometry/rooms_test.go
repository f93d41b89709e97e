package geometry

import (
	"math"
	"testing"
)

func singleRoom(t *testing.T, rooms map[RoomCoordinates]struct{}) RoomCoordinates {
	t.Helper()
	if len(rooms) != 1 {
		t.Fatalf("want exactly one affected room, got %d: %v", len(rooms), rooms)
	}
	for rc := range rooms {
		return rc
	}
	panic("unreachable")
}

func TestGetAffectedRoomsSpawn(t *testing.T) {
	spawn := Position{X: 30, Y: 22}
	got := singleRoom(t, spawn.GetAffectedRooms())
	want := RoomCoordinates{X: 1, Y: 1}
	if got != want {
		t.Errorf("spawn affected room = %v, want %v", got, want)
	}
}

// Mirrors original_source/src/soaprun/rooms.rs::get_affected_rooms_works'
// four corner-of-the-world cases.
func TestGetAffectedRoomsWorldCorners(t *testing.T) {
	cases := []struct {
		name string
		pos  Position
		want RoomCoordinates
	}{
		{"north-west", Position{X: MinXCoord, Y: MinYCoord}, RoomCoordinates{X: math.MinInt8, Y: math.MinInt8}},
		{"north-east", Position{X: MaxXCoord, Y: MinYCoord}, RoomCoordinates{X: math.MaxInt8, Y: math.MinInt8}},
		{"south-west", Position{X: MinXCoord, Y: MaxYCoord}, RoomCoordinates{X: math.MinInt8, Y: math.MaxInt8}},
		{"south-east", Position{X: MaxXCoord, Y: MaxYCoord}, RoomCoordinates{X: math.MaxInt8, Y: math.MaxInt8}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := singleRoom(t, c.pos.GetAffectedRooms())
			if got != c.want {
				t.Errorf("%v affected room = %v, want %v", c.pos, got, c.want)
			}
		})
	}
}

// Mirrors to_index_0_0_works / to_index_1_1_works / to_index_neg_1_neg_1_works.
func TestToIndexSweep(t *testing.T) {
	rooms := []RoomCoordinates{{0, 0}, {1, 1}, {-1, -1}}
	for _, rc := range rooms {
		xOffset := int(rc.X) * roomStrideX
		yOffset := int(rc.Y) * roomStrideY
		for x := 0; x < clientRoomWidth; x++ {
			for y := 0; y < clientRoomHeight; y++ {
				p := Position{X: int16(xOffset + x), Y: int16(yOffset + y)}
				want := y*clientRoomWidth + x
				got, ok := p.ToIndex(rc)
				if !ok {
					t.Fatalf("ToIndex(%v, %v) unexpectedly failed", p, rc)
				}
				if got != want {
					t.Errorf("ToIndex(%v, %v) = %d, want %d", p, rc, got, want)
				}
			}
		}
	}
}

// Mirrors oob_to_index_errors.
func TestToIndexOutOfBounds(t *testing.T) {
	rc := RoomCoordinates{0, 0}
	for x := int16(-1); x < clientRoomWidth+1; x++ {
		if _, ok := (Position{X: x, Y: -1}).ToIndex(rc); ok {
			t.Errorf("ToIndex should fail for y=-1, x=%d", x)
		}
		if _, ok := (Position{X: x, Y: clientRoomHeight}).ToIndex(rc); ok {
			t.Errorf("ToIndex should fail for y=%d, x=%d", clientRoomHeight, x)
		}
	}
}

// Mirrors the "first crawl in november map" regression case in to_index_works.
func TestToIndexRegression(t *testing.T) {
	r1 := RoomCoordinates{X: 1, Y: 0}
	r2 := RoomCoordinates{X: 1, Y: 1}
	p1 := Position{X: 36, Y: 15}

	got1, ok := p1.ToIndex(r1)
	if !ok || got1 != clientRoomHeight*clientRoomWidth-5 {
		t.Errorf("ToIndex(%v, %v) = %d,%v, want %d", p1, r1, got1, ok, clientRoomHeight*clientRoomWidth-5)
	}
	got2, ok := p1.ToIndex(r2)
	if !ok || got2 != clientRoomWidth-5 {
		t.Errorf("ToIndex(%v, %v) = %d,%v, want %d", p1, r2, got2, ok, clientRoomWidth-5)
	}
}
