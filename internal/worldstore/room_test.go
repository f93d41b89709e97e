package worldstore

import (
	"bytes"
	"testing"
)

// Mirrors original_source/src/soaprun/rooms.rs::compare_works: on two
// all-zero rooms, every corner/edge pairing trivially matches its opposite.
func TestRoomCornersAndEdgesSymmetric(t *testing.T) {
	var r1, r2 Room

	if r1.NorthWestCorner() != r2.SouthEastCorner() {
		t.Error("north-west should equal south-east on matching rooms")
	}
	if r1.NorthEastCorner() != r2.SouthWestCorner() {
		t.Error("north-east should equal south-west on matching rooms")
	}
	if r1.SouthWestCorner() != r2.NorthEastCorner() {
		t.Error("south-west should equal north-east on matching rooms")
	}
	if r1.SouthEastCorner() != r2.NorthWestCorner() {
		t.Error("south-east should equal north-west on matching rooms")
	}

	if !bytes.Equal(r1.WestEdge(), r2.EastEdge()) {
		t.Error("west edge should equal east edge on matching rooms")
	}
	if !bytes.Equal(r1.NorthEdge(), r2.SouthEdge()) {
		t.Error("north edge should equal south edge on matching rooms")
	}
	if !bytes.Equal(r1.EastEdge(), r2.WestEdge()) {
		t.Error("east edge should equal west edge on matching rooms")
	}
	if !bytes.Equal(r1.SouthEdge(), r2.NorthEdge()) {
		t.Error("south edge should equal north edge on matching rooms")
	}
}

func TestParseRoomFileName(t *testing.T) {
	cases := []struct {
		name    string
		wantX   int8
		wantY   int8
		wantOK  bool
	}{
		{"1,-2.room", 1, -2, true},
		{"-128,127.room", -128, 127, true},
		{"notaroom.txt", 0, 0, false},
		{"default.room", 0, 0, false},
	}
	for _, c := range cases {
		x, y, ok := parseRoomFileName(c.name)
		if ok != c.wantOK {
			t.Fatalf("parseRoomFileName(%q) ok = %v, want %v", c.name, ok, c.wantOK)
		}
		if ok && (x != c.wantX || y != c.wantY) {
			t.Errorf("parseRoomFileName(%q) = (%d,%d), want (%d,%d)", c.name, x, y, c.wantX, c.wantY)
		}
	}
}
