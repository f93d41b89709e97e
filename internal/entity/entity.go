// Package entity implements the twelve AI-driven unit kinds that populate
// a room: their lifecycle state and the per-tick behavior that moves,
// sleeps, and kills them. Grounded on
// original_source/src/server/entities.rs.
package entity

import (
	"sync"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// KillCounter tracks a Closer's three-kill transformation into a Wuss.
type KillCounter struct {
	Kills int
}

// SwitchedDirection holds a Gate's open/closed facing and the switch
// positions that must each have a targetable player standing on them to
// open it.
type SwitchedDirection struct {
	OffDir, OnDir byte
	Switches      []geometry.Position
}

// Entity is one AI-driven unit and its own lock, matching the per-entity
// RWMutex the concurrency model calls for.
type Entity struct {
	mu sync.RWMutex

	SpawnPosition geometry.Position
	Counter       int

	// At most one of these is non-nil, depending on Unit.Kind: KillCounter
	// for Closer/Wuss, SwitchedDir for Gate, neither for everything else.
	KillCounter *KillCounter
	SwitchedDir *SwitchedDirection

	Unit protocol.Unit
}

// New constructs an entity in its kind's initial lifecycle state.
// Grounded on entities.rs::Entity::new, including its note that Crawl is
// never seen sleeping and so starts Active rather than Sleeping like the
// other predator kinds.
func New(pos geometry.Position, kind protocol.UnitKind, direction byte, kc *KillCounter, sd *SwitchedDirection) *Entity {
	return &Entity{
		SpawnPosition: pos,
		KillCounter:   kc,
		SwitchedDir:   sd,
		Unit: protocol.Unit{
			State:     initialState(kind),
			Kind:      kind,
			Direction: direction,
			Movements: []geometry.Position{pos},
		},
	}
}

func initialState(kind protocol.UnitKind) protocol.UnitState {
	switch kind {
	case protocol.KindCloser, protocol.KindWuss, protocol.KindChase, protocol.KindSnail:
		return protocol.UnitSleeping
	default:
		return protocol.UnitActive
	}
}

// Snapshot returns a copy of the unit's current wire projection, safe to
// read outside of the entity's own lock.
func (e *Entity) Snapshot() protocol.Unit {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u := e.Unit
	u.Movements = append([]geometry.Position(nil), e.Unit.Movements...)
	return u
}

// Position returns the entity's current (last-known) position.
func (e *Entity) Position() geometry.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Unit.Position()
}

// Kill transitions the entity to Corpse for the given number of AI ticks,
// clearing a Closer/Wuss kill counter and flipping a Wuss back into a
// Closer. Grounded on entities.rs::Entity::kill.
func (e *Entity) Kill(ticks int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Unit.State = protocol.UnitCorpse
	e.Counter = ticks
	if e.Unit.Kind == protocol.KindWuss {
		e.Unit.Kind = protocol.KindCloser
	}
	if e.KillCounter != nil {
		e.KillCounter.Kills = 0
	}
}

// AddKill increments a Closer's kill counter, turning it into a Wuss on
// its third kill. Grounded on entities.rs::Entity::add_kill.
func (e *Entity) AddKill() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Unit.Kind != protocol.KindCloser || e.KillCounter == nil {
		return
	}
	e.KillCounter.Kills++
	if e.KillCounter.Kills == 3 {
		e.KillCounter.Kills = 0
		e.Unit.Kind = protocol.KindWuss
	}
}

// Wait decrements the entity's tick counter (saturating at zero) and
// reports whether it has just reached zero, i.e. whether this tick should
// act on the entity. Grounded on entities.rs::Entity::wait.
func (e *Entity) Wait() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Counter > 0 {
		e.Counter--
	}
	return e.Counter == 0
}

// CanMoveOnTileType reports whether any unit may stand on tile type tt.
// Grounded on entities.rs::Entity::can_move_on_tile_type.
func CanMoveOnTileType(tt byte) bool {
	return tt == 0 || tt == 3
}

// Kind returns the entity's current unit kind (mutable: a Closer becomes a
// Wuss and vice versa).
func (e *Entity) Kind() protocol.UnitKind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Unit.Kind
}

// State returns the entity's current lifecycle state.
func (e *Entity) State() protocol.UnitState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Unit.State
}

// SwitchPositions returns a copy of a Gate's switch set, valid to call on
// any entity (returns nil for non-Gate kinds).
func (e *Entity) SwitchPositions() []geometry.Position {
	if e.SwitchedDir == nil {
		return nil
	}
	return append([]geometry.Position(nil), e.SwitchedDir.Switches...)
}

// Mutate runs fn under the entity's write lock, for AI steps that need to
// change several unit fields atomically.
func (e *Entity) Mutate(fn func(u *protocol.Unit)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.Unit)
}

// SetCounter arms the tick counter directly, for AI steps that change it
// without otherwise mutating the unit.
func (e *Entity) SetCounter(ticks int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Counter = ticks
}

// TeleportHome resets the entity to its spawn position, bumps its teleport
// trigger, sets state, and arms the tick counter - the shared tail of every
// kind's Corpse recovery.
func (e *Entity) TeleportHome(state protocol.UnitState, ticks int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Unit.State = state
	e.Unit.TeleportTrigger++
	e.Unit.Movements = []geometry.Position{e.SpawnPosition}
	e.Counter = ticks
}
