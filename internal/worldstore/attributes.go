package worldstore

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Tile type bytes. TileWalkable is safe for anyone; TileBlockedWithShield is
// blocked only while the player carries the shield item; TileEntityWalkable
// is passable by AI entities but not by players; every other value blocks
// players outright.
const (
	TileWalkable          = 0
	TileBlockedWithShield = 2
	TileEntityWalkable    = 3
)

// Canvas/corpse tile sets, grounded on
// original_source/src/soaprun/map_attributes.rs's lazy_static HashSets.
var (
	CanvasTiles      = toSet(12, 13, 14, 15, 27, 28, 29, 30, 31)
	DrawTiles        = toSet(12, 13, 14, 15)
	MakeCorpseTiles  = toSet(2, 4, 5, 11, 12, 13, 14, 15)
	RemoveCorpseTiles = toSet(18, 20, 21, 27, 28, 29, 30, 31)
)

func toSet(vals ...byte) map[byte]struct{} {
	s := make(map[byte]struct{}, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// MapAttributes maps a raw tile byte (the value stored in a Room) to a tile
// type byte (TileWalkable/TileBlockedWithShield/TileEntityWalkable/other).
type MapAttributes struct {
	Width, Height uint16
	Attributes    []byte
}

// LoadMapAttributes reads the little-endian u16 width, u16 height, then
// width*height attribute bytes.
func LoadMapAttributes(path string) (*MapAttributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map attributes %s: %w", path, err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("map attributes %s: too short for header", path)
	}
	width := binary.LittleEndian.Uint16(data[0:2])
	height := binary.LittleEndian.Uint16(data[2:4])
	attrs := data[4:]
	if len(attrs) != int(width)*int(height) {
		return nil, fmt.Errorf("map attributes %s: want %d bytes, got %d", path, int(width)*int(height), len(attrs))
	}
	return &MapAttributes{Width: width, Height: height, Attributes: attrs}, nil
}

// TileType maps a raw tile byte to its tile type, or false if tile is out of
// range for this attribute table.
func (m *MapAttributes) TileType(tile byte) (byte, bool) {
	if int(tile) >= len(m.Attributes) {
		return 0, false
	}
	return m.Attributes[tile], true
}
