package geometry

import (
	"fmt"
	"math"
)

const (
	clientRoomWidth  = 21
	clientRoomHeight = 16

	MinXCoord = (clientRoomWidth - 1) * math.MinInt8
	MinYCoord = (clientRoomHeight - 1) * math.MinInt8
	MaxXCoord = (clientRoomWidth - 1) * (math.MaxInt8 + 1)
	MaxYCoord = (clientRoomHeight - 1) * (math.MaxInt8 + 1)
)

// RoomCoordinates identifies one 21x16 room in the world grid.
type RoomCoordinates struct {
	X, Y int8
}

func (r RoomCoordinates) String() string {
	return fmt.Sprintf("(%d,%d)", r.X, r.Y)
}

// Adjacent rooms share their border row/column of tiles, so the coordinate
// stride between two rooms' origins is one less than the room's tile
// dimension. Grounded on rooms.rs::to_index/on_horizontal_edge/
// on_vertical_edge/get_affected_rooms, all of which divide or mod by
// CLIENT_ROOM_WIDTH-1 / CLIENT_ROOM_HEIGHT-1, not the raw dimension.
const (
	roomStrideX = clientRoomWidth - 1
	roomStrideY = clientRoomHeight - 1
)

// ToIndex resolves p's in-room tile index within room, or ok=false if p does
// not fall inside room's 21x16 window.
func (p Position) ToIndex(room RoomCoordinates) (index int, ok bool) {
	x := int(p.X) - int(room.X)*roomStrideX
	y := int(p.Y) - int(room.Y)*roomStrideY
	if x < 0 || x >= clientRoomWidth || y < 0 || y >= clientRoomHeight {
		return 0, false
	}
	return y*clientRoomWidth + x, true
}

// OnHorizontalEdge reports whether p sits on a west/east room border.
func (p Position) OnHorizontalEdge() bool {
	return mod16(p.X, roomStrideX) == 0
}

// OnVerticalEdge reports whether p sits on a north/south room border.
func (p Position) OnVerticalEdge() bool {
	return mod16(p.Y, roomStrideY) == 0
}

// OnEdge reports whether p sits on any room border.
func (p Position) OnEdge() bool {
	return p.OnHorizontalEdge() || p.OnVerticalEdge()
}

func mod16(v int16, m int16) int16 {
	return v % m
}

// GetAffectedRooms returns the 1-4 rooms whose tile grid contains p: the
// primary (north-west-biased) room, plus any neighbours shared along the
// edge/corner p sits on. Grounded on
// original_source/src/soaprun/rooms.rs::get_affected_rooms, including its
// south-east-only bias correction.
func (p Position) GetAffectedRooms() map[RoomCoordinates]struct{} {
	result := make(map[RoomCoordinates]struct{}, 4)

	// This method of determining the room is biased towards the north west...
	x := int(p.X) / roomStrideX
	y := int(p.Y) / roomStrideY
	base := RoomCoordinates{
		X: clampInt8(x),
		Y: clampInt8(y),
	}
	result[base] = struct{}{}

	// ...so we need an extra check here for the south east case.
	onHorizontalEdge := p.X < MaxXCoord && p.OnHorizontalEdge()
	onVerticalEdge := p.Y < MaxYCoord && p.OnVerticalEdge()

	if onHorizontalEdge {
		result[RoomCoordinates{X: satSub8(base.X, 1), Y: base.Y}] = struct{}{}
	}
	if onVerticalEdge {
		result[RoomCoordinates{X: base.X, Y: satSub8(base.Y, 1)}] = struct{}{}
	}
	if onHorizontalEdge && onVerticalEdge {
		result[RoomCoordinates{X: satSub8(base.X, 1), Y: satSub8(base.Y, 1)}] = struct{}{}
	}
	return result
}

func clampInt8(v int) int8 {
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	if v < math.MinInt8 {
		return math.MinInt8
	}
	return int8(v)
}

func satSub8(a int8, b int8) int8 {
	sum := int(a) - int(b)
	if sum > math.MaxInt8 {
		return math.MaxInt8
	}
	if sum < math.MinInt8 {
		return math.MinInt8
	}
	return int8(sum)
}
