package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

func writeEntities(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEntitiesKindsAndIndices(t *testing.T) {
	path := writeEntities(t, `[
		{"type":"Goal","x":1,"y":1},
		{"type":"Closer","x":2,"y":2},
		{"type":"Hummer","x":3,"y":3,"direction":5},
		{"type":"Gate","x":4,"y":4,"open_direction":7,"switches":[{"x":5,"y":5}]}
	]`)

	entities, err := LoadEntities(path)
	if err != nil {
		t.Fatalf("LoadEntities: %v", err)
	}
	if len(entities) != 4 {
		t.Fatalf("got %d entities, want 4", len(entities))
	}

	if k := entities[0].Kind(); k != protocol.KindGoal {
		t.Errorf("entity 0 kind = %v, want Goal", k)
	}
	if k := entities[1].Kind(); k != protocol.KindCloser {
		t.Errorf("entity 1 kind = %v, want Closer", k)
	}
	if entities[1].KillCounter == nil {
		t.Error("Closer should have a KillCounter")
	}

	if entities[2].Unit.Direction != 5 {
		t.Errorf("Hummer direction = %d, want 5 (explicit)", entities[2].Unit.Direction)
	}

	gate := entities[3]
	if gate.SwitchedDir == nil {
		t.Fatal("Gate should have a SwitchedDirection")
	}
	if gate.SwitchedDir.OnDir != 7 {
		t.Errorf("Gate OnDir = %d, want 7 (explicit open_direction)", gate.SwitchedDir.OnDir)
	}
	if gate.SwitchedDir.OffDir != gateOffDirection {
		t.Errorf("Gate OffDir = %d, want hardcoded %d", gate.SwitchedDir.OffDir, gateOffDirection)
	}
	if want := []geometry.Position{{X: 5, Y: 5}}; len(gate.SwitchedDir.Switches) != 1 || gate.SwitchedDir.Switches[0] != want[0] {
		t.Errorf("Gate switches = %v, want %v", gate.SwitchedDir.Switches, want)
	}
}

func TestLoadEntitiesDefaultsDirection(t *testing.T) {
	path := writeEntities(t, `[{"type":"Rounder","x":0,"y":0}]`)
	entities, err := LoadEntities(path)
	if err != nil {
		t.Fatalf("LoadEntities: %v", err)
	}
	if entities[0].Unit.Direction != defaultFlameDirection {
		t.Errorf("Rounder direction = %d, want default %d", entities[0].Unit.Direction, defaultFlameDirection)
	}
}

func TestLoadEntitiesDefaultsGateOpenDirection(t *testing.T) {
	path := writeEntities(t, `[{"type":"Gate","x":0,"y":0}]`)
	entities, err := LoadEntities(path)
	if err != nil {
		t.Fatalf("LoadEntities: %v", err)
	}
	if entities[0].SwitchedDir.OnDir != defaultGateOpenDirection {
		t.Errorf("Gate OnDir = %d, want default %d", entities[0].SwitchedDir.OnDir, defaultGateOpenDirection)
	}
}

func TestLoadEntitiesUnknownType(t *testing.T) {
	path := writeEntities(t, `[{"type":"Bogus","x":0,"y":0}]`)
	if _, err := LoadEntities(path); err == nil {
		t.Error("LoadEntities should reject an unknown type")
	}
}
