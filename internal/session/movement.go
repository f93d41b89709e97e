package session

import (
	"fmt"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// World is the tile lookup movement verification needs, satisfied
// structurally by *worldstore.Store.
type World interface {
	GetTileType(pos geometry.Position, room geometry.RoomCoordinates) (byte, bool)
}

// MovementLimits bounds how far a single movement node, a whole packet's
// node count, and a whole packet's total distance may go. A zero field
// means unlimited. Grounded on config.rs's ServerConfig movement fields.
type MovementLimits struct {
	MaxDistancePerNode   int
	MaxNodesPerPacket    int
	MaxDistancePerPacket int
}

// MisalignedNodesError reports a movement segment that isn't purely
// horizontal or vertical.
type MisalignedNodesError struct{}

func (MisalignedNodesError) Error() string { return "movement nodes aren't in a straight line" }

// NodesTooFarError reports a single segment exceeding MaxDistancePerNode.
type NodesTooFarError struct{ Actual, Max int }

func (e NodesTooFarError) Error() string {
	return fmt.Sprintf("movement node %d tiles away exceeds max of %d", e.Actual, e.Max)
}

// OutOfBoundsError reports a movement segment leaving the playable grid.
type OutOfBoundsError struct{}

func (OutOfBoundsError) Error() string { return "movement left the playable area" }

// MoveAlongEdgeError reports a segment running along a room border instead
// of crossing it, which the client should never produce.
type MoveAlongEdgeError struct{}

func (MoveAlongEdgeError) Error() string { return "movement ran along a room edge" }

// InvalidTileTypeError reports a segment stepping onto a tile this client
// may not currently occupy.
type InvalidTileTypeError struct {
	Position geometry.Position
	TileType byte
}

func (e InvalidTileTypeError) Error() string {
	return fmt.Sprintf("tile type %d at %s isn't walkable", e.TileType, e.Position)
}

// TooManyNodesError reports a packet with more nodes than MaxNodesPerPacket.
type TooManyNodesError struct{ Actual, Max int }

func (e TooManyNodesError) Error() string {
	return fmt.Sprintf("%d movement nodes exceeds max of %d", e.Actual, e.Max)
}

// TotalTooFarError reports a packet whose combined distance exceeds
// MaxDistancePerPacket.
type TotalTooFarError struct{ Actual, Max int }

func (e TotalTooFarError) Error() string {
	return fmt.Sprintf("total movement of %d tiles exceeds max of %d", e.Actual, e.Max)
}

// FirstMovementError reports a client's very first movement packet not
// ending exactly at their last-known (spawn) position.
type FirstMovementError struct{}

func (FirstMovementError) Error() string {
	return "first movement must end at the client's last-known position"
}

func (c *Client) canMoveOnTile(pos geometry.Position, world World) error {
	if c.Soaprunner.Sprite == protocol.SpriteGhost {
		return nil
	}
	var blocked error
	for rc := range pos.GetAffectedRooms() {
		tt, ok := world.GetTileType(pos, rc)
		if !ok {
			continue
		}
		if !c.canMoveOnTileType(tt) {
			blocked = InvalidTileTypeError{Position: pos, TileType: tt}
		} else {
			return nil
		}
	}
	return blocked
}

// verifyNodes checks one movement segment from p1 to p2 and returns the
// taxicab distance it covers. Grounded on clients.rs::verify_nodes.
func (c *Client) verifyNodes(p1, p2 geometry.Position, world World, limits MovementLimits) (int, error) {
	if p1 == p2 {
		return 0, nil
	}
	if !p1.InLine(p2) {
		return 0, MisalignedNodesError{}
	}

	dist := p1.TaxicabDistance(p2)
	if limits.MaxDistancePerNode > 0 && dist > limits.MaxDistancePerNode {
		return 0, NodesTooFarError{Actual: dist, Max: limits.MaxDistancePerNode}
	}

	var step func(geometry.Position, int16) geometry.Position
	switch p1.RelativeDirection(p2) {
	case geometry.West:
		step = geometry.Position.West
	case geometry.East:
		step = geometry.Position.East
	case geometry.North:
		step = geometry.Position.North
	case geometry.South:
		step = geometry.Position.South
	default:
		return 0, MisalignedNodesError{}
	}

	for i := 0; i < dist; i++ {
		prevPos := step(p1, int16(i))
		currPos := step(p1, int16(i+1))

		if currPos.X < geometry.MinXCoord || geometry.MaxXCoord < currPos.X ||
			currPos.Y < geometry.MinYCoord || geometry.MaxYCoord < currPos.Y {
			return 0, OutOfBoundsError{}
		}
		if prevPos.OnEdge() && currPos.OnEdge() {
			return 0, MoveAlongEdgeError{}
		}
		if !prevPos.OnEdge() {
			if err := c.canMoveOnTile(currPos, world); err != nil {
				return 0, err
			}
		}
	}
	return dist, nil
}

// UpdatePosition verifies and applies a full movement packet's node chain,
// returning the total taxicab distance covered. Grounded on
// clients.rs::update_position, including its has_moved spawn-reconciliation
// branch for a client's very first movement packet.
func (c *Client) UpdatePosition(movements []geometry.Position, world World, limits MovementLimits) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(movements) == 0 {
		return 0, nil
	}

	total := 0
	if c.HasMoved {
		if limits.MaxNodesPerPacket > 0 && len(movements) > limits.MaxNodesPerPacket {
			return 0, TooManyNodesError{Actual: len(movements), Max: limits.MaxNodesPerPacket}
		}

		last := c.Soaprunner.Position()
		t, err := c.verifyNodes(last, movements[0], world, limits)
		if err != nil {
			return 0, err
		}
		total += t

		for i := 0; i+1 < len(movements); i++ {
			t, err := c.verifyNodes(movements[i], movements[i+1], world, limits)
			if err != nil {
				return 0, err
			}
			total += t
		}

		if limits.MaxDistancePerPacket > 0 && total > limits.MaxDistancePerPacket {
			return 0, TotalTooFarError{Actual: total, Max: limits.MaxDistancePerPacket}
		}
	} else {
		dest := movements[len(movements)-1]
		if c.Soaprunner.Position() != dest {
			return 0, FirstMovementError{}
		}
		c.Soaprunner.Movements = []geometry.Position{dest}
		c.Soaprunner.TeleportTrigger++
		c.HasMoved = true
	}

	c.Room = movements[len(movements)-1].GetAffectedRooms()
	c.Soaprunner.Movements = append([]geometry.Position(nil), movements...)
	return total, nil
}
