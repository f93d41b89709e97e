// Package config loads the server's boot-time settings from a flat JSON
// document, overlaying it onto a set of built-in defaults so a config file
// only needs to name the fields it wants to change.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/worldstore"
)

// Config is the fully-resolved server configuration. Timeouts are held in
// whole seconds and the tick interval in milliseconds, as in the wire JSON;
// the ConnectionTimeout/IdleTimeout/TickInterval methods convert them to
// time.Duration.
type Config struct {
	RoomDirectory    string `json:"room_directory"`
	EntityPath       string `json:"entity_path"`
	AttributesPath   string `json:"attributes_path"`
	Address          string `json:"address"`

	RoomVerificationBounds string `json:"room_verification_bounds"`
	RoomVerificationMode   string `json:"room_verification_mode"`

	ConnectionTimeoutSeconds int `json:"connection_timeout"`
	IdleTimeoutSeconds       int `json:"idle_timeout"`

	MaxPlayers int `json:"max_players"`

	MaxPlayerMovementNodesPerPacket    int `json:"max_player_movement_nodes_per_packet"`
	MaxPlayerDistancePerMovementNode   int `json:"max_player_distance_per_movement_node"`
	MaxPlayerDistancePerPacket         int `json:"max_player_distance_per_packet"`

	TickIntervalMillis int `json:"tick_interval_ms"`

	Logging LoggingConfig `json:"logging"`
}

// LoggingConfig controls the zap logger cmd/soaprund builds, grounded on
// cmd/l1jgo/main.go's newLogger.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" or "console"
}

// ConnectionTimeout is ConnectionTimeoutSeconds as a time.Duration; zero
// means disabled.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds) * time.Second
}

// IdleTimeout is IdleTimeoutSeconds as a time.Duration; zero means disabled.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// TickInterval is TickIntervalMillis as a time.Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMillis) * time.Millisecond
}

// VerificationBounds parses RoomVerificationBounds.
func (c *Config) VerificationBounds() (worldstore.RoomVerificationBounds, error) {
	return worldstore.ParseRoomVerificationBounds(c.RoomVerificationBounds)
}

// VerificationMode parses RoomVerificationMode.
func (c *Config) VerificationMode() (worldstore.RoomVerificationMode, error) {
	return worldstore.ParseRoomVerificationMode(c.RoomVerificationMode)
}

// Load reads path, overlaying its JSON onto defaults() so an omitted field
// keeps its default value rather than zeroing out.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		RoomDirectory:          "rooms",
		EntityPath:             "entities.json",
		AttributesPath:         "map_attributes.dat",
		Address:                "0.0.0.0:8888",
		RoomVerificationBounds: "InBounds",
		RoomVerificationMode:   "TileTypes",

		ConnectionTimeoutSeconds: 60,
		IdleTimeoutSeconds:       300,

		MaxPlayers: 63,

		MaxPlayerMovementNodesPerPacket:  32,
		MaxPlayerDistancePerMovementNode: 20,
		MaxPlayerDistancePerPacket:       64,

		TickIntervalMillis: 10,

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
