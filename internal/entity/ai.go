package entity

import (
	"math/rand"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/worldstore"
)

// World is the subset of internal/worldstore.Store that AI steps need:
// tile-type lookups and the corpse-fading mutator Snails use.
type World interface {
	GetTileType(pos geometry.Position, room geometry.RoomCoordinates) (byte, bool)
	TryUpdateTile(pos geometry.Position, validSet map[byte]struct{}, f func(byte) byte) int
}

// PlayerSnapshot is a point-in-time read of one connected player's relevant
// state, gathered by the gameserver under its own locks before an AI tick
// runs so entity AI never has to reach into session state directly.
type PlayerSnapshot struct {
	Position geometry.Position
	Sprite   protocol.SoaprunnerSprite
	Items    protocol.SoaprunnerItems
}

func (p PlayerSnapshot) isTargetable() bool {
	return p.Sprite == protocol.SpriteIdle || p.Sprite == protocol.SpriteWalking
}

const allDirections = geometry.North | geometry.South | geometry.West | geometry.East

// DelayTicks converts a wall-clock delay into a tick count at the given
// tick interval, matching entities.rs::SoaprunServer::get_entity_delay.
func DelayTicks(tickIntervalMs, delayMs int) int {
	return delayMs / tickIntervalMs
}

func satSubI16(a, b int16) int16 {
	sum := int32(a) - int32(b)
	if sum < -32768 {
		return -32768
	}
	return int16(sum)
}

func satAddI16(a, b int16) int16 {
	sum := int32(a) + int32(b)
	if sum > 32767 {
		return 32767
	}
	return int16(sum)
}

// getInvalidTileMovements reports, per cardinal direction, whether stepping
// one tile that way from pos would land somewhere cmp rejects in any room
// that step affects. Grounded on entities.rs::get_invalid_tile_movements.
func getInvalidTileMovements(world World, pos geometry.Position, cmp func(byte) bool) geometry.DirectionFlags {
	var flags geometry.DirectionFlags
	test := func(next geometry.Position, dir geometry.DirectionFlags) {
		for rc := range next.GetAffectedRooms() {
			tt, ok := world.GetTileType(next, rc)
			if !ok || !cmp(tt) {
				flags |= dir
				return
			}
		}
	}
	test(pos.West(1), geometry.West)
	test(pos.North(1), geometry.North)
	test(pos.East(1), geometry.East)
	test(pos.South(1), geometry.South)
	return flags
}

// getInvalidEntityMovements reports the direction(s) that would step onto
// another entity's current tile, so two entities never try to share a
// square. Grounded on entities.rs::get_invalid_entity_movements.
func getInvalidEntityMovements(entities []*Entity, pos geometry.Position) geometry.DirectionFlags {
	var dir geometry.DirectionFlags
	for _, e := range entities {
		ep := e.Position()
		if pos.AdjacentExclusive(ep) {
			dir |= pos.RelativeDirection(ep)
		}
	}
	return dir
}

// closerRadius is the Chebyshev box within which a Closer/Wuss notices
// players, per entities.rs's CLOSER_RADIUS constant.
const closerRadius = 3

// getCloserMovementOptions implements the Closer/Wuss predator-prey choice:
// chase any prey in range (avoiding adjacent predators), flee when only
// predator-looking players are in range, else drift home. The returned bool is false only for the Rust original's None
// case (nobody in range and already at spawn) - every other branch reports
// true even when the resulting slice of directions is empty, since those
// are masked-out Some(vec![]) results, not "nothing going on here" ones.
// Grounded on entities.rs::get_closer_movement_options.
func getCloserMovementOptions(world World, entities []*Entity, players []PlayerSnapshot, e *Entity) ([]geometry.Position, bool) {
	pos := e.Position()
	spawn := e.SpawnPosition
	scared := e.Kind() == protocol.KindWuss

	invalid := getInvalidTileMovements(world, pos, CanMoveOnTileType) | getInvalidEntityMovements(entities, pos)

	w := satSubI16(pos.X, closerRadius)
	n := satSubI16(pos.Y, closerRadius)
	east := satAddI16(pos.X, closerRadius)
	s := satAddI16(pos.Y, closerRadius)

	var predators, prey []geometry.Position
	for _, p := range players {
		if !p.isTargetable() {
			continue
		}
		pp := p.Position
		if n <= pp.Y && pp.Y <= s && w <= pp.X && pp.X <= east {
			if scared || p.Items.Has(protocol.ItemSword) || p.Items.Has(protocol.ItemCrown) {
				predators = append(predators, pp)
			} else {
				prey = append(prey, pp)
			}
		}
	}

	switch {
	case len(predators) == 0 && len(prey) == 0:
		if pos == spawn {
			return nil, false
		}
		spawnDir := pos.RelativeDirection(spawn) &^ invalid
		if spawnDir == 0 {
			spawnDir = allDirections &^ invalid
		}
		return spawnDir.ToPositions(pos), true

	case len(predators) > 0 && len(prey) == 0:
		var runDirs geometry.DirectionFlags
		for _, p := range predators {
			runDirs |= (allDirections &^ pos.RelativeDirection(p))
		}
		runDirs &^= invalid
		return runDirs.ToPositions(pos), true

	default:
		var preyDirs geometry.DirectionFlags
		for _, p := range prey {
			preyDirs |= pos.RelativeDirection(p)
		}
		for _, p := range predators {
			if pos.AdjacentExclusive(p) {
				preyDirs &^= pos.RelativeDirection(p)
			}
		}
		preyDirs &^= invalid
		return preyDirs.ToPositions(pos), true
	}
}

// getCrawlAttackLocations returns the orthogonal squares exactly one tile
// from pos, in an unblocked direction, where a targetable player currently
// stands. Grounded on entities.rs::get_crawl_attack_locations.
func getCrawlAttackLocations(world World, players []PlayerSnapshot, pos geometry.Position) []geometry.Position {
	includeFlags := getInvalidTileMovements(world, pos, CanMoveOnTileType)
	var adj []geometry.Position
	if includeFlags == allDirections {
		return adj
	}

	for _, p := range players {
		if includeFlags == allDirections {
			break
		}
		if !p.isTargetable() {
			continue
		}
		pp := p.Position

		if includeFlags&geometry.Vertical != geometry.Vertical && pp.X == pos.X {
			if !includeFlags.Has(geometry.North) && pp.Y == pos.Y-1 {
				includeFlags |= geometry.North
				adj = append(adj, pos.North(1))
			} else if !includeFlags.Has(geometry.South) && pp.Y == pos.Y+1 {
				includeFlags |= geometry.South
				adj = append(adj, pos.South(1))
			}
		} else if includeFlags&geometry.Horizontal != geometry.Horizontal && pp.Y == pos.Y {
			if !includeFlags.Has(geometry.West) && pp.X == pos.X-1 {
				includeFlags |= geometry.West
				adj = append(adj, pos.West(1))
			} else if !includeFlags.Has(geometry.East) && pp.X == pos.X+1 {
				includeFlags |= geometry.East
				adj = append(adj, pos.East(1))
			}
		}
	}
	return adj
}

// getChaseMovementOptions targets any shield-holding player and moves
// toward the union of their directions. Grounded on
// entities.rs::get_chase_movement_options.
func getChaseMovementOptions(world World, entities []*Entity, players []PlayerSnapshot, pos geometry.Position) []geometry.Position {
	var targets []geometry.Position
	for _, p := range players {
		if p.isTargetable() && p.Items.Has(protocol.ItemShield) {
			targets = append(targets, p.Position)
		}
	}

	invalid := getInvalidTileMovements(world, pos, CanMoveOnTileType) | getInvalidEntityMovements(entities, pos)
	var valid geometry.DirectionFlags
	for _, t := range targets {
		valid |= pos.RelativeDirection(t)
	}
	valid &^= invalid
	return valid.ToPositions(pos)
}

// getSnailMovementOptions scans a radius box (1 while Sleeping, 2 while
// Active) for targetable players and moves toward their union. The returned
// bool is false only when no player is in range at all; when a player is in
// range but every direction toward them is masked invalid, it reports true
// with an empty slice, matching entities.rs's None-only-when-nobody-in-range
// split between "no target" and "target but boxed in". Grounded on
// entities.rs::get_snail_movement_options.
func getSnailMovementOptions(world World, players []PlayerSnapshot, pos geometry.Position, radius int16) ([]geometry.Position, bool) {
	invalid := getInvalidTileMovements(world, pos, CanMoveOnTileType)

	w := satSubI16(pos.X, radius)
	n := satSubI16(pos.Y, radius)
	e := satAddI16(pos.X, radius)
	s := satAddI16(pos.Y, radius)

	var valid geometry.DirectionFlags
	for _, p := range players {
		if !p.isTargetable() {
			continue
		}
		pp := p.Position
		if n <= pp.Y && pp.Y <= s && w <= pp.X && pp.X <= e {
			valid |= pos.RelativeDirection(pp)
		}
	}
	if valid == 0 {
		return nil, false
	}
	valid &^= invalid
	return valid.ToPositions(pos), true
}

func choose(rng *rand.Rand, options []geometry.Position) (geometry.Position, bool) {
	if len(options) == 0 {
		return geometry.Position{}, false
	}
	return options[rng.Intn(len(options))], true
}

// Tick advances every entity in entities by one AI step. tickIntervalMs is
// the AI loop's own period (used to convert the wall-clock delays below
// into tick counts); world and players are the point-in-time reads every
// kind's logic needs. Grounded on entities.rs::entity_handler's per-kind
// match arms - ported here as one pass over the roster rather than an
// infinite sleep loop, so the gameserver owns the ticker.
func Tick(rng *rand.Rand, world World, entities []*Entity, players []PlayerSnapshot, tickIntervalMs int) {
	delay := func(ms int) int { return DelayTicks(tickIntervalMs, ms) }

	for _, e := range entities {
		switch e.Kind() {
		case protocol.KindGoal, protocol.KindSword, protocol.KindShield, protocol.KindHummer, protocol.KindRounder:
			// Static decoration/pickups; nothing to tick.

		case protocol.KindCloser, protocol.KindWuss:
			tickCloserOrWuss(rng, world, entities, players, e, delay)

		case protocol.KindCrawl:
			tickCrawl(rng, world, players, e, delay)

		case protocol.KindChase:
			tickChase(rng, world, entities, players, e, delay)

		case protocol.KindGate:
			tickGate(players, e, delay)

		case protocol.KindCross:
			tickCross(e, delay)

		case protocol.KindSnail:
			tickSnail(rng, world, players, e, delay)
		}
	}
}

func tickCloserOrWuss(rng *rand.Rand, world World, entities []*Entity, players []PlayerSnapshot, e *Entity, delay func(int) int) {
	switch e.State() {
	case protocol.UnitSleeping, protocol.UnitActive:
		if !e.Wait() {
			return
		}
		currPos := e.Position()
		options, found := getCloserMovementOptions(world, entities, players, e)
		e.Mutate(func(u *protocol.Unit) {
			if found {
				if newPos, ok := choose(rng, options); ok {
					u.Movements = []geometry.Position{currPos, newPos}
				} else {
					u.Movements = []geometry.Position{currPos}
				}
				u.State = protocol.UnitActive
			} else {
				u.State = protocol.UnitSleeping
				u.Movements = []geometry.Position{currPos}
			}
		})
		e.SetCounter(delay(500))

	case protocol.UnitCorpse:
		if e.Wait() {
			e.TeleportHome(protocol.UnitSleeping, delay(1000))
		}
	}
}

func tickCrawl(rng *rand.Rand, world World, players []PlayerSnapshot, e *Entity, delay func(int) int) {
	switch e.State() {
	case protocol.UnitSleeping:
		// No footage of a sleeping Crawl exists; this is a failsafe.
		e.Mutate(func(u *protocol.Unit) { u.State = protocol.UnitActive })

	case protocol.UnitActive:
		lastPos := e.Position()
		spawn := e.SpawnPosition
		if !e.Wait() {
			return
		}
		if lastPos != spawn {
			e.Mutate(func(u *protocol.Unit) {
				u.Movements = []geometry.Position{lastPos, spawn}
			})
			e.SetCounter(delay(1000))
			return
		}
		targets := getCrawlAttackLocations(world, players, lastPos)
		if attackPos, ok := choose(rng, targets); ok {
			e.Mutate(func(u *protocol.Unit) {
				u.Movements = []geometry.Position{lastPos, attackPos}
			})
			e.SetCounter(delay(1000))
		}

	case protocol.UnitCorpse:
		if e.Wait() {
			e.TeleportHome(protocol.UnitActive, delay(1000))
		}
	}
}

func tickChase(rng *rand.Rand, world World, entities []*Entity, players []PlayerSnapshot, e *Entity, delay func(int) int) {
	shieldsUp := anyShield(players)
	switch e.State() {
	case protocol.UnitSleeping:
		if e.Wait() && shieldsUp {
			e.Mutate(func(u *protocol.Unit) { u.State = protocol.UnitActive })
		}

	case protocol.UnitActive:
		if shieldsUp {
			pos := e.Position()
			options := getChaseMovementOptions(world, entities, players, pos)
			e.Mutate(func(u *protocol.Unit) {
				if opt, ok := choose(rng, options); ok {
					u.Movements = []geometry.Position{pos, opt}
				} else {
					u.Movements = []geometry.Position{pos}
				}
			})
		} else {
			e.Mutate(func(u *protocol.Unit) {
				u.State = protocol.UnitSleeping
				u.Movements = []geometry.Position{u.Position()}
			})
		}

	case protocol.UnitCorpse:
		if e.Wait() {
			e.TeleportHome(protocol.UnitSleeping, delay(5000))
		}
	}
}

func anyShield(players []PlayerSnapshot) bool {
	for _, p := range players {
		if p.Items.Has(protocol.ItemShield) {
			return true
		}
	}
	return false
}

func tickGate(players []PlayerSnapshot, e *Entity, delay func(int) int) {
	if !e.Wait() {
		return
	}
	remaining := make(map[geometry.Position]struct{})
	for _, sw := range e.SwitchPositions() {
		remaining[sw] = struct{}{}
	}
	for _, p := range players {
		if len(remaining) == 0 {
			break
		}
		if p.isTargetable() {
			delete(remaining, p.Position)
		}
	}
	sd := e.SwitchedDir
	e.Mutate(func(u *protocol.Unit) {
		if len(remaining) == 0 {
			u.Direction = sd.OnDir
		} else {
			u.Direction = sd.OffDir
		}
	})
	if len(remaining) == 0 {
		e.SetCounter(delay(5000))
	}
}

func tickCross(e *Entity, delay func(int) int) {
	if !e.Wait() {
		return
	}
	e.Mutate(func(u *protocol.Unit) {
		u.Direction = (u.Direction + 1) % 4
	})
	e.SetCounter(delay(10000))
}

func tickSnail(rng *rand.Rand, world World, players []PlayerSnapshot, e *Entity, delay func(int) int) {
	switch e.State() {
	case protocol.UnitSleeping, protocol.UnitActive:
		pos := e.Position()
		radius := int16(2)
		if e.State() == protocol.UnitSleeping {
			radius = 1
		}
		world.TryUpdateTile(pos, worldstore.RemoveCorpseTiles, func(t byte) byte { return t - 16 })

		if !e.Wait() {
			return
		}
		options, found := getSnailMovementOptions(world, players, pos, radius)
		e.Mutate(func(u *protocol.Unit) {
			if found {
				u.State = protocol.UnitActive
				if newPos, ok := choose(rng, options); ok {
					u.Movements = []geometry.Position{pos, newPos}
				}
			} else {
				u.State = protocol.UnitSleeping
				if len(u.Movements) > 1 {
					u.Movements = []geometry.Position{pos}
				}
			}
		})
		if found {
			e.SetCounter(delay(1000))
		}

	case protocol.UnitCorpse:
		if e.Wait() {
			e.TeleportHome(protocol.UnitSleeping, delay(1000))
		}
	}
}
