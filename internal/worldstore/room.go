// Package worldstore owns the static and semi-static world data: fixed-size
// rooms, the map-attribute lookup table, and the boot-time adjacency check
// that ties neighbouring rooms together.
package worldstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
)

const (
	RoomWidth  = 21
	RoomHeight = 16
	RoomBytes  = RoomWidth * RoomHeight

	roomFileExtension = ".room"
	defaultRoomName   = "default.room"
)

// Room is a fixed 21x16 grid of tile bytes. Each byte indexes into a
// MapAttributes table to yield a tile type.
type Room struct {
	Data [RoomBytes]byte
}

func (r *Room) NorthWestCorner() byte { return r.Data[0] }
func (r *Room) NorthEastCorner() byte { return r.Data[RoomWidth-1] }
func (r *Room) SouthWestCorner() byte { return r.Data[RoomWidth*(RoomHeight-1)] }
func (r *Room) SouthEastCorner() byte { return r.Data[RoomBytes-1] }

// NorthEdge returns the top row, west to east.
func (r *Room) NorthEdge() []byte {
	return r.Data[:RoomWidth]
}

// SouthEdge returns the bottom row, west to east.
func (r *Room) SouthEdge() []byte {
	return r.Data[RoomWidth*(RoomHeight-1):]
}

// WestEdge returns the left column, north to south.
func (r *Room) WestEdge() []byte {
	col := make([]byte, RoomHeight)
	for i := range col {
		col[i] = r.Data[i*RoomWidth]
	}
	return col
}

// EastEdge returns the right column, north to south.
func (r *Room) EastEdge() []byte {
	col := make([]byte, RoomHeight)
	for i := range col {
		col[i] = r.Data[i*RoomWidth+(RoomWidth-1)]
	}
	return col
}

// LoadRoom reads a room file. It must be exactly RoomBytes long.
func LoadRoom(path string) (*Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", path, err)
	}
	if len(data) != RoomBytes {
		return nil, fmt.Errorf("room %s: want %d bytes, got %d", path, RoomBytes, len(data))
	}
	var r Room
	copy(r.Data[:], data)
	return &r, nil
}

// parseRoomFileName parses the "X,Y.room" stem into room coordinates.
func parseRoomFileName(name string) (x, y int8, ok bool) {
	if !strings.HasSuffix(name, roomFileExtension) {
		return 0, 0, false
	}
	stem := strings.TrimSuffix(name, roomFileExtension)
	before, after, found := strings.Cut(stem, ",")
	if !found {
		return 0, 0, false
	}
	xi, err := strconv.ParseInt(before, 10, 8)
	if err != nil {
		return 0, 0, false
	}
	yi, err := strconv.ParseInt(after, 10, 8)
	if err != nil {
		return 0, 0, false
	}
	return int8(xi), int8(yi), true
}

// LoadRooms scans dir for "X,Y.room" files and loads a default.room
// alongside them. Grounded on original_source/src/server/rooms.rs::load_rooms.
func LoadRooms(dir string) (rooms map[geometry.RoomCoordinates]*Room, defaultRoom *Room, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read room directory %s: %w", dir, err)
	}

	rooms = make(map[geometry.RoomCoordinates]*Room)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == defaultRoomName {
			continue
		}
		x, y, ok := parseRoomFileName(name)
		if !ok {
			continue
		}
		room, err := LoadRoom(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		rooms[geometry.RoomCoordinates{X: x, Y: y}] = room
	}

	defaultRoom, err = LoadRoom(filepath.Join(dir, defaultRoomName))
	if err != nil {
		return nil, nil, fmt.Errorf("load default room: %w", err)
	}
	return rooms, defaultRoom, nil
}
