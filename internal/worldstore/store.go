package worldstore

import (
	"fmt"
	"sync"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
)

// TileChangeSink receives every tile byte mutated by TryUpdateTile so it can
// be pushed into each connected client's pending-delta cache (C9). The
// gameserver package implements this over the live player roster; worldstore
// stays ignorant of sessions to avoid an import cycle.
type TileChangeSink interface {
	BroadcastTileChange(room geometry.RoomCoordinates, pos geometry.Position, tile byte)
}

type lockedRoom struct {
	mu   sync.RWMutex
	room *Room
}

// Store is the shared, mostly-immutable world: a topology of rooms (fixed
// after boot, each value independently RW-locked so concurrent connections
// can read and mutate tiles in different rooms without contending), a
// default room, and the tile-attribute lookup table.
type Store struct {
	rooms       map[geometry.RoomCoordinates]*lockedRoom
	defaultRoom *Room
	attributes  *MapAttributes
	sink        TileChangeSink
}

// NewStore wraps already-loaded rooms/default room/attributes. sink may be
// nil until the gameserver has a player roster to broadcast into; it must be
// set via SetSink before the listener starts accepting connections.
func NewStore(rooms map[geometry.RoomCoordinates]*Room, defaultRoom *Room, attributes *MapAttributes) *Store {
	wrapped := make(map[geometry.RoomCoordinates]*lockedRoom, len(rooms))
	for rc, r := range rooms {
		wrapped[rc] = &lockedRoom{room: r}
	}
	return &Store{
		rooms:       wrapped,
		defaultRoom: defaultRoom,
		attributes:  attributes,
	}
}

func (s *Store) SetSink(sink TileChangeSink) {
	s.sink = sink
}

func (s *Store) Attributes() *MapAttributes {
	return s.attributes
}

func (s *Store) DefaultRoom() *Room {
	return s.defaultRoom
}

// RoomAt returns a snapshot copy of the room at rc, falling back to the
// default room if rc has no room of its own. Used for RoomRequest responses.
func (s *Store) RoomAt(rc geometry.RoomCoordinates) *Room {
	if lr, ok := s.rooms[rc]; ok {
		lr.mu.RLock()
		defer lr.mu.RUnlock()
		cp := *lr.room
		return &cp
	}
	cp := *s.defaultRoom
	return &cp
}

// GetTile resolves pos's in-room tile byte within room, falling back to the
// default room's byte if room is absent from the topology. Only fails if pos
// does not actually fall inside room's 21x16 window — an internal bug, since
// callers are expected to only ask about rooms returned by
// GetAffectedInboundsRooms / Position.GetAffectedRooms.
func (s *Store) GetTile(pos geometry.Position, room geometry.RoomCoordinates) (byte, error) {
	index, ok := pos.ToIndex(room)
	if !ok {
		return 0, fmt.Errorf("position %v is not within room %v", pos, room)
	}
	if lr, present := s.rooms[room]; present {
		lr.mu.RLock()
		defer lr.mu.RUnlock()
		return lr.room.Data[index], nil
	}
	return s.defaultRoom.Data[index], nil
}

// GetTileType resolves pos's tile type (via the attribute table) within
// room (an absent room falls back to the default room, as in GetTile).
// Returns false if pos is outside room's window or the tile byte has no
// entry in the attribute table.
func (s *Store) GetTileType(pos geometry.Position, room geometry.RoomCoordinates) (byte, bool) {
	tile, err := s.GetTile(pos, room)
	if err != nil {
		return 0, false
	}
	return s.attributes.TileType(tile)
}

// GetAffectedInboundsRooms returns only the room coordinates from
// pos.GetAffectedRooms() that actually exist in this store's topology.
// Out-of-bounds/absent rooms are silently excluded here; callers needing
// "is this position valid at all" must check separately.
func (s *Store) GetAffectedInboundsRooms(pos geometry.Position) []geometry.RoomCoordinates {
	affected := pos.GetAffectedRooms()
	result := make([]geometry.RoomCoordinates, 0, len(affected))
	for rc := range affected {
		if _, ok := s.rooms[rc]; ok {
			result = append(result, rc)
		}
	}
	return result
}

// TryUpdateTile is the sole mutator of room bytes after boot. For every
// in-bounds room containing pos, it write-locks that room, and if the
// current tile byte is a member of validSet, replaces it with f(tile) and
// pushes the new value to every connected client's per-room delta cache.
// Returns the number of rooms whose tile was actually changed.
func (s *Store) TryUpdateTile(pos geometry.Position, validSet map[byte]struct{}, f func(byte) byte) int {
	changed := 0
	for _, rc := range s.GetAffectedInboundsRooms(pos) {
		lr := s.rooms[rc]
		index, ok := pos.ToIndex(rc)
		if !ok {
			continue
		}

		lr.mu.Lock()
		current := lr.room.Data[index]
		if _, valid := validSet[current]; !valid {
			lr.mu.Unlock()
			continue
		}
		newValue := f(current)
		lr.room.Data[index] = newValue
		lr.mu.Unlock()

		changed++
		if s.sink != nil {
			s.sink.BroadcastTileChange(rc, pos, newValue)
		}
	}
	return changed
}
