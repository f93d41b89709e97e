package entity

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// rawEntity is the tagged-union wire shape of one entities.json element.
// Grounded on original_source/src/server/config.rs's EntityInitInfo: a
// "type" discriminator plus fields that only some kinds use.
type rawEntity struct {
	Type string `json:"type"`
	X    int16  `json:"x"`
	Y    int16  `json:"y"`

	// Flame kinds (Hummer, Rounder, Cross) only.
	Direction *byte `json:"direction,omitempty"`

	// Gate only.
	OpenDirection *byte              `json:"open_direction,omitempty"`
	Switches      []geometry.Position `json:"switches,omitempty"`
}

var kindsByName = map[string]protocol.UnitKind{
	"Goal":    protocol.KindGoal,
	"Closer":  protocol.KindCloser,
	"Sword":   protocol.KindSword,
	"Crawl":   protocol.KindCrawl,
	"Hummer":  protocol.KindHummer,
	"Rounder": protocol.KindRounder,
	"Wuss":    protocol.KindWuss,
	"Chase":   protocol.KindChase,
	"Gate":    protocol.KindGate,
	"Shield":  protocol.KindShield,
	"Cross":   protocol.KindCross,
	"Snail":   protocol.KindSnail,
}

// LoadEntitiesError reports a malformed entities.json entry, surfaced as a
// fatal boot error.
type LoadEntitiesError struct {
	Index int
	Err   error
}

func (e LoadEntitiesError) Error() string {
	return fmt.Sprintf("entity %d: %v", e.Index, e.Err)
}

func (e LoadEntitiesError) Unwrap() error { return e.Err }

// defaultFlameDirection and defaultGateOpenDirection match config.rs's
// default_flame_direction/default_gate_direction: a flame torch starts
// facing north, a gate starts facing east.
const (
	defaultFlameDirection    byte = 0
	defaultGateOpenDirection byte = 2

	// gateOffDirection is hardcoded in config.rs::load_entities rather than
	// read from the wire format — every gate closes to face south
	// regardless of its configured open_direction.
	gateOffDirection byte = 1
)

// LoadEntities reads path's JSON array of tagged entity records and builds
// the live roster in file order, so each entity's slice index is also its
// wire Index in HitNonPlayerUnit/EntityRecord. Grounded on
// config.rs::load_entities.
func LoadEntities(path string) ([]*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entities %s: %w", path, err)
	}

	var raw []rawEntity
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse entities %s: %w", path, err)
	}

	entities := make([]*Entity, 0, len(raw))
	for i, r := range raw {
		e, err := buildEntity(r)
		if err != nil {
			return nil, LoadEntitiesError{Index: i, Err: err}
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func buildEntity(r rawEntity) (*Entity, error) {
	kind, ok := kindsByName[r.Type]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", r.Type)
	}
	pos := geometry.Position{X: r.X, Y: r.Y}

	switch kind {
	case protocol.KindCloser, protocol.KindWuss:
		return New(pos, kind, 0, &KillCounter{}, nil), nil

	case protocol.KindHummer, protocol.KindRounder, protocol.KindCross:
		dir := defaultFlameDirection
		if r.Direction != nil {
			dir = *r.Direction
		}
		return New(pos, kind, dir, nil, nil), nil

	case protocol.KindGate:
		openDir := defaultGateOpenDirection
		if r.OpenDirection != nil {
			openDir = *r.OpenDirection
		}
		sd := &SwitchedDirection{
			OffDir:   gateOffDirection,
			OnDir:    openDir,
			Switches: append([]geometry.Position(nil), r.Switches...),
		}
		return New(pos, kind, gateOffDirection, nil, sd), nil

	default:
		return New(pos, kind, 0, nil, nil), nil
	}
}
