// Package protocol is Soaprun's wire-model layer: the value types that are
// literally serialized onto the network (soaprunner/unit projections, the
// tagged packet unions) plus their codec. It mirrors the split in
// original_source/src/soaprun/ (position, rooms, map_attributes, units,
// soaprunners, packets) as distinct from original_source/src/server/, which
// is server-only logic (entities.rs AI, clients.rs session state) built on
// top of these shared types.
package protocol

import "github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"

// SoaprunnerSprite is the visible animation/behavioral state of a player.
type SoaprunnerSprite byte

const (
	SpriteIdle SoaprunnerSprite = iota
	SpriteWalking
	SpriteDying
	SpriteWinning
	SpriteGhost
)

func (s SoaprunnerSprite) String() string {
	switch s {
	case SpriteIdle:
		return "Idle"
	case SpriteWalking:
		return "Walking"
	case SpriteDying:
		return "Dying"
	case SpriteWinning:
		return "Winning"
	case SpriteGhost:
		return "Ghost"
	default:
		return "Unknown"
	}
}

// SoaprunnerColor is a player's chosen/assigned color.
type SoaprunnerColor byte

const (
	ColorGreen SoaprunnerColor = iota
	ColorPink
	ColorBlue
	ColorYellow
)

// SoaprunnerItems is a bitset of held items.
type SoaprunnerItems byte

const (
	ItemSword  SoaprunnerItems = 1
	ItemCrown  SoaprunnerItems = 2
	ItemShield SoaprunnerItems = 4
)

func (i SoaprunnerItems) Has(item SoaprunnerItems) bool {
	return i&item == item
}

// Weather is derived from the global shield counter.
type Weather byte

const (
	WeatherClear Weather = iota
	WeatherRainy
)

// ClientSpawnPosition and ClientSpawnRoom are where every new client starts.
var (
	ClientSpawnPosition = geometry.Position{X: 30, Y: 22}
	ClientSpawnRoom     = geometry.RoomCoordinates{X: 1, Y: 1}
)

// Soaprunner is the per-client projection broadcast to every other client in
// a Fields snapshot.
type Soaprunner struct {
	TeleportTrigger byte
	Sprite          SoaprunnerSprite
	Color           SoaprunnerColor
	Items           SoaprunnerItems
	Movements       []geometry.Position // non-empty; last element is the current position
}

// Position returns the soaprunner's current (authoritative) position.
func (s *Soaprunner) Position() geometry.Position {
	return s.Movements[len(s.Movements)-1]
}

// UnitState is a unit's lifecycle state.
type UnitState byte

const (
	UnitSleeping UnitState = iota
	UnitActive
	UnitCorpse
	UnitFlickering
	UnitGone
)

func (s UnitState) String() string {
	switch s {
	case UnitSleeping:
		return "Sleeping"
	case UnitActive:
		return "Active"
	case UnitCorpse:
		return "Corpse"
	case UnitFlickering:
		return "Flickering"
	case UnitGone:
		return "Gone"
	default:
		return "Unknown"
	}
}

// UnitKind is one of the twelve AI-driven entity kinds.
type UnitKind byte

const (
	KindGoal UnitKind = iota
	KindCloser
	KindSword
	KindCrawl
	KindHummer
	KindRounder
	KindWuss
	KindChase
	KindGate
	KindShield
	KindCross
	KindSnail
)

func (k UnitKind) String() string {
	names := [...]string{"Goal", "Closer", "Sword", "Crawl", "Hummer", "Rounder", "Wuss", "Chase", "Gate", "Shield", "Cross", "Snail"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Unit is the per-entity projection broadcast to clients in a Fields
// snapshot.
type Unit struct {
	TeleportTrigger byte
	State           UnitState
	Kind            UnitKind
	Direction       byte
	Movements       []geometry.Position // 1-2 positions: current, or [from,to]
}

func (u *Unit) Position() geometry.Position {
	return u.Movements[len(u.Movements)-1]
}
