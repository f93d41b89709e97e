package worldstore

import (
	"fmt"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
)

// RoomVerificationBounds controls which neighbour pairs boot-time
// verification considers.
type RoomVerificationBounds int

const (
	// BoundsNone skips verification entirely.
	BoundsNone RoomVerificationBounds = iota
	// BoundsInBounds compares only neighbours that are themselves present
	// in the room topology.
	BoundsInBounds
	// BoundsAll substitutes the default room for any missing neighbour.
	BoundsAll
)

func (b RoomVerificationBounds) String() string {
	switch b {
	case BoundsNone:
		return "None"
	case BoundsInBounds:
		return "InBounds"
	case BoundsAll:
		return "All"
	default:
		return fmt.Sprintf("RoomVerificationBounds(%d)", int(b))
	}
}

// ParseRoomVerificationBounds parses the JSON config string form.
func ParseRoomVerificationBounds(s string) (RoomVerificationBounds, error) {
	switch s {
	case "None":
		return BoundsNone, nil
	case "InBounds":
		return BoundsInBounds, nil
	case "All":
		return BoundsAll, nil
	default:
		return 0, fmt.Errorf("unknown room_verification_bounds %q", s)
	}
}

// RoomVerificationMode controls whether verification compares raw tile bytes
// or the tile types those bytes map to.
type RoomVerificationMode int

const (
	ModeTiles RoomVerificationMode = iota
	ModeTileTypes
)

func (m RoomVerificationMode) String() string {
	switch m {
	case ModeTiles:
		return "Tiles"
	case ModeTileTypes:
		return "TileTypes"
	default:
		return fmt.Sprintf("RoomVerificationMode(%d)", int(m))
	}
}

// ParseRoomVerificationMode parses the JSON config string form.
func ParseRoomVerificationMode(s string) (RoomVerificationMode, error) {
	switch s {
	case "Tiles":
		return ModeTiles, nil
	case "TileTypes":
		return ModeTileTypes, nil
	default:
		return 0, fmt.Errorf("unknown room_verification_mode %q", s)
	}
}

// getRoomForVerification mirrors original_source/src/server/rooms.rs::get_room:
// None never yields a neighbour to compare against; InBounds only yields one
// actually present in rooms; All substitutes defaultRoom for anything absent.
func getRoomForVerification(rooms map[geometry.RoomCoordinates]*Room, coords geometry.RoomCoordinates, defaultRoom *Room, bounds RoomVerificationBounds) *Room {
	if bounds == BoundsNone {
		return nil
	}
	room, present := rooms[coords]
	if bounds == BoundsInBounds && !present {
		return nil
	}
	if present {
		return room
	}
	return defaultRoom
}

func compareCorners(c1, c2 byte, attributes *MapAttributes) bool {
	if attributes != nil {
		return attributes.Attributes[c1] == attributes.Attributes[c2]
	}
	return c1 == c2
}

func compareEdges(e1, e2 []byte, attributes *MapAttributes) bool {
	if len(e1) != len(e2) {
		return false
	}
	if attributes != nil {
		for i := range e1 {
			if attributes.Attributes[e1[i]] != attributes.Attributes[e2[i]] {
				return false
			}
		}
		return true
	}
	for i := range e1 {
		if e1[i] != e2[i] {
			return false
		}
	}
	return true
}

func saturatingAdd8(a int8, b int) int8 {
	sum := int(a) + b
	if sum > 127 {
		return 127
	}
	if sum < -128 {
		return -128
	}
	return int8(sum)
}

// VerifyRooms is the boot-time adjacency check (C8): for every present room,
// compares each of its 8 neighbours' facing edge/corner for equality (raw
// bytes, or mapped tile types when attributes is non-nil). Returns a
// descriptive error on the first mismatch found.
//
// The south-west and south-east pairings below are ported bug-for-bug from
// original_source/src/server/rooms.rs::verify_rooms: both compare against the
// neighbour's north_west_corner rather than the geometrically "obvious"
// north_east_corner / north_west_corner split one might expect. This is
// preserved intentionally rather than "corrected" since real map data was
// authored and verified against this exact asymmetry.
func VerifyRooms(rooms map[geometry.RoomCoordinates]*Room, defaultRoom *Room, bounds RoomVerificationBounds, attributes *MapAttributes) error {
	if bounds == BoundsNone {
		return nil
	}

	for pos, room := range rooms {
		nw := geometry.RoomCoordinates{X: saturatingAdd8(pos.X, -1), Y: saturatingAdd8(pos.Y, -1)}
		if other := getRoomForVerification(rooms, nw, defaultRoom, bounds); other != nil {
			if !compareCorners(room.NorthWestCorner(), other.SouthEastCorner(), attributes) {
				return verificationError(pos, nw, "north west corner", "south east corner")
			}
		}

		n := geometry.RoomCoordinates{X: pos.X, Y: saturatingAdd8(pos.Y, -1)}
		if other := getRoomForVerification(rooms, n, defaultRoom, bounds); other != nil {
			if !compareEdges(room.NorthEdge(), other.SouthEdge(), attributes) {
				return verificationError(pos, n, "north edge", "south edge")
			}
		}

		ne := geometry.RoomCoordinates{X: saturatingAdd8(pos.X, 1), Y: saturatingAdd8(pos.Y, -1)}
		if other := getRoomForVerification(rooms, ne, defaultRoom, bounds); other != nil {
			if !compareCorners(room.NorthEastCorner(), other.SouthWestCorner(), attributes) {
				return verificationError(pos, ne, "north east corner", "south west corner")
			}
		}

		w := geometry.RoomCoordinates{X: saturatingAdd8(pos.X, -1), Y: pos.Y}
		if other := getRoomForVerification(rooms, w, defaultRoom, bounds); other != nil {
			if !compareEdges(room.WestEdge(), other.EastEdge(), attributes) {
				return verificationError(pos, w, "west edge", "east edge")
			}
		}

		e := geometry.RoomCoordinates{X: saturatingAdd8(pos.X, 1), Y: pos.Y}
		if other := getRoomForVerification(rooms, e, defaultRoom, bounds); other != nil {
			if !compareEdges(room.EastEdge(), other.WestEdge(), attributes) {
				return verificationError(pos, e, "east edge", "west edge")
			}
		}

		sw := geometry.RoomCoordinates{X: saturatingAdd8(pos.X, -1), Y: saturatingAdd8(pos.Y, 1)}
		if other := getRoomForVerification(rooms, sw, defaultRoom, bounds); other != nil {
			if !compareCorners(room.SouthWestCorner(), other.NorthWestCorner(), attributes) {
				return verificationError(pos, sw, "south west corner", "north west corner")
			}
		}

		s := geometry.RoomCoordinates{X: pos.X, Y: saturatingAdd8(pos.Y, 1)}
		if other := getRoomForVerification(rooms, s, defaultRoom, bounds); other != nil {
			if !compareEdges(room.SouthEdge(), other.NorthEdge(), attributes) {
				return verificationError(pos, s, "south edge", "north edge")
			}
		}

		se := geometry.RoomCoordinates{X: saturatingAdd8(pos.X, 1), Y: saturatingAdd8(pos.Y, 1)}
		if other := getRoomForVerification(rooms, se, defaultRoom, bounds); other != nil {
			if !compareCorners(room.SouthEastCorner(), other.NorthWestCorner(), attributes) {
				return verificationError(pos, se, "south east corner", "north west corner")
			}
		}
	}
	return nil
}

func verificationError(room1, room2 geometry.RoomCoordinates, item1, item2 string) error {
	return fmt.Errorf("room bounds failed: room %v's %s doesn't match room %v's %s", room1, item1, room2, item2)
}
