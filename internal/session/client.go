// Package session holds one connected player's state: the Soaprunner
// projection broadcast to everyone else, movement validation, item
// claim/return bookkeeping, and the per-room pending tile-delta cache.
// Grounded on original_source/src/server/clients.rs.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/entity"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// Client is one connected player and its own lock, matching the per-client
// RWMutex the concurrency model calls for.
type Client struct {
	mu sync.RWMutex

	Number        int
	HasMoved      bool
	HasMadeCorpse bool
	Kills         int
	ClaimedSword  *int
	ClaimedShield *int
	Room          map[geometry.RoomCoordinates]struct{}
	Soaprunner    protocol.Soaprunner
	CachedTiles   map[geometry.RoomCoordinates]map[geometry.Position]byte
}

// New constructs a freshly spawned client. Its sprite starts Walking, not
// Idle, matching clients.rs::Client::new exactly - the client software
// itself transitions to Idle once it has rendered the spawn frame.
func New(number int, color protocol.SoaprunnerColor) *Client {
	return &Client{
		Number: number,
		Room:   map[geometry.RoomCoordinates]struct{}{protocol.ClientSpawnRoom: {}},
		Soaprunner: protocol.Soaprunner{
			Sprite:    protocol.SpriteWalking,
			Color:     color,
			Movements: []geometry.Position{protocol.ClientSpawnPosition},
		},
		CachedTiles: make(map[geometry.RoomCoordinates]map[geometry.Position]byte),
	}
}

// Sprite returns the client's current sprite.
func (c *Client) Sprite() protocol.SoaprunnerSprite {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Soaprunner.Sprite
}

// SetSprite forces the client's sprite, used for the Dying/Winning/Ghost
// transitions driven outside of normal movement processing.
func (c *Client) SetSprite(s protocol.SoaprunnerSprite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Soaprunner.Sprite = s
}

// SetColorIfWalking applies color if the client is currently Walking (idle
// players may not change color), returning whether the request was legal.
// Grounded on clients.rs's ChangeColor handler.
func (c *Client) SetColorIfWalking(color byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Soaprunner.Sprite != protocol.SpriteWalking {
		return false
	}
	if color <= byte(protocol.ColorYellow) {
		c.Soaprunner.Color = protocol.SoaprunnerColor(color)
	}
	return true
}

// MarkCorpseMadeIfDying records that this client has made their corpse, but
// only if they are Dying and have not already made one. Grounded on
// clients.rs's MakeCorpse handler.
func (c *Client) MarkCorpseMadeIfDying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.HasMadeCorpse || c.Soaprunner.Sprite != protocol.SpriteDying {
		return false
	}
	c.HasMadeCorpse = true
	return true
}

// Kill puts the client into the Dying sprite. Grounded on
// clients.rs::Client::kill.
func (c *Client) Kill() {
	c.SetSprite(protocol.SpriteDying)
}

// AddKill records a kill, awarding a Crown (and forcing the sword to be
// returned) on every tenth. Grounded on clients.rs::Client::add_kill.
func (c *Client) AddKill(lookupSword func(index int) *entity.Entity) {
	c.mu.Lock()
	c.Kills++
	earnedCrown := c.Kills%10 == 0
	if earnedCrown {
		c.Soaprunner.Items |= protocol.ItemCrown
	}
	c.mu.Unlock()

	if earnedCrown {
		c.ReturnSword(lookupSword)
	}
}

// ClaimSword claims entity e (at index) as this client's sword, if the
// client doesn't already hold one and e is Active. Grounded on
// clients.rs::Client::claim_sword.
func (c *Client) ClaimSword(e *entity.Entity, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Soaprunner.Items.Has(protocol.ItemSword) || e == nil {
		return
	}
	claimed := false
	e.Mutate(func(u *protocol.Unit) {
		if u.State == protocol.UnitActive {
			u.State = protocol.UnitCorpse
			claimed = true
		}
	})
	if claimed {
		idx := index
		c.ClaimedSword = &idx
		c.Soaprunner.Items |= protocol.ItemSword
	}
}

// ReturnSword releases this client's claimed sword back to Active, if they
// hold one. lookup resolves a claimed index back to its entity. Grounded on
// clients.rs::Client::return_sword.
func (c *Client) ReturnSword(lookup func(index int) *entity.Entity) {
	c.mu.Lock()
	if !c.Soaprunner.Items.Has(protocol.ItemSword) {
		c.mu.Unlock()
		return
	}
	c.Soaprunner.Items &^= protocol.ItemSword
	index := c.ClaimedSword
	c.ClaimedSword = nil
	c.mu.Unlock()

	if index == nil {
		return
	}
	if e := lookup(*index); e != nil {
		e.Mutate(func(u *protocol.Unit) {
			u.State = protocol.UnitActive
			u.TeleportTrigger++
		})
	}
}

// ClaimShield claims entity e (at index) as this client's shield, bumping
// the server-wide shield counter. Grounded on
// clients.rs::Client::claim_shield.
func (c *Client) ClaimShield(e *entity.Entity, index int, shieldCount *atomic.Int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Soaprunner.Items.Has(protocol.ItemShield) || e == nil {
		return
	}
	claimed := false
	e.Mutate(func(u *protocol.Unit) {
		if u.State == protocol.UnitActive {
			u.State = protocol.UnitCorpse
			claimed = true
		}
	})
	if claimed {
		idx := index
		c.ClaimedShield = &idx
		shieldCount.Add(1)
		c.Soaprunner.Items |= protocol.ItemShield
	}
}

// DropShield releases this client's claimed shield back to Active at their
// current position, unless another entity already stands there, in which
// case it teleports home instead. Grounded on
// clients.rs::Client::drop_shield.
func (c *Client) DropShield(entities []*entity.Entity, shieldCount *atomic.Int64) {
	c.mu.Lock()
	if !c.Soaprunner.Items.Has(protocol.ItemShield) {
		c.mu.Unlock()
		return
	}
	shieldCount.Add(-1)
	c.Soaprunner.Items &^= protocol.ItemShield
	dropPos := c.Soaprunner.Position()
	index := c.ClaimedShield
	c.ClaimedShield = nil
	c.mu.Unlock()

	if index == nil || *index < 0 || *index >= len(entities) {
		return
	}
	shield := entities[*index]

	occupied := false
	for n, e := range entities {
		if n != *index && e.Position() == dropPos {
			occupied = true
			break
		}
	}

	shield.Mutate(func(u *protocol.Unit) {
		if occupied {
			u.Movements = []geometry.Position{shield.SpawnPosition}
		} else {
			u.Movements = []geometry.Position{dropPos}
		}
		u.State = protocol.UnitActive
		u.TeleportTrigger++
	})
}

func (c *Client) canMoveOnTileType(tt byte) bool {
	return c.Soaprunner.Sprite == protocol.SpriteGhost ||
		tt == 0 ||
		(tt == 2 && !c.Soaprunner.Items.Has(protocol.ItemShield))
}

// Snapshot returns a deep copy of the client's player number and
// projection, safe to read outside of the client's own lock.
func (c *Client) Snapshot() (int, protocol.Soaprunner) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.Soaprunner
	s.Movements = append([]geometry.Position(nil), c.Soaprunner.Movements...)
	return c.Number, s
}

// RoomSet returns a copy of the rooms this client's current position
// affects.
func (c *Client) RoomSet() map[geometry.RoomCoordinates]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[geometry.RoomCoordinates]struct{}, len(c.Room))
	for rc := range c.Room {
		out[rc] = struct{}{}
	}
	return out
}

// CacheTileChange records a tile mutation for later delivery, used by the
// gameserver's TileChangeSink implementation fanning out worldstore writes
// to every connected client.
func (c *Client) CacheTileChange(room geometry.RoomCoordinates, pos geometry.Position, tile byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.CachedTiles[room]
	if !ok {
		m = make(map[geometry.Position]byte)
		c.CachedTiles[room] = m
	}
	m[pos] = tile
}

// ClearCachedRoom drops any pending tile deltas for room, used when the
// client explicitly re-requests that room's full data.
func (c *Client) ClearCachedRoom(room geometry.RoomCoordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.CachedTiles[room]; ok {
		for k := range m {
			delete(m, k)
		}
	}
}

// DrainRoomTileChanges pops every pending tile delta for rooms the client
// currently occupies, for inclusion in the next Fields snapshot. Grounded
// on clients.rs::update_client_and_send_fields's tile-draining loop.
func (c *Client) DrainRoomTileChanges() []protocol.TileDelta {
	c.mu.Lock()
	defer c.mu.Unlock()
	var tiles []protocol.TileDelta
	for rc := range c.Room {
		m, ok := c.CachedTiles[rc]
		if !ok {
			continue
		}
		for pos, tile := range m {
			tiles = append(tiles, protocol.TileDelta{Position: pos, Tile: tile})
			delete(m, pos)
		}
	}
	return tiles
}
