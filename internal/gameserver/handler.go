// serve implements one connection's full packet loop: the per-client
// dispatch table clients.rs::client_handler drives, plus its
// update_client_and_send_fields / try_spawn_corpse / try_draw_on_field /
// handle_collision helpers.
package gameserver

import (
	"time"

	"go.uber.org/zap"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/entity"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/session"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/transport"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/worldstore"
)

// collisionDistanceLimit rejects a HitNonPlayerUnit claim against an entity
// farther than this many tiles from the client's reported position, the
// anti-cheat gate from clients.rs::handle_collision.
const collisionDistanceLimit = 15

func (s *Server) serve(stream transport.Stream) {
	c, ok := s.borrowPlayer()
	if !ok {
		s.Log.Debug("no player slots available", zap.Stringer("remote", stream.RemoteAddr()))
		return
	}
	defer func() {
		c.ReturnSword(s.entityLookup)
		c.DropShield(s.Entities, &s.playersWithShield)
		s.returnPlayer(c)
	}()

	if err := s.writePacket(stream, protocol.Welcome{}); err != nil {
		s.Log.Debug("welcome write failed", zap.Error(err), zap.Stringer("remote", stream.RemoteAddr()))
		return
	}

	idleSince := time.Now()
	for {
		if s.Limits.IdleTimeout > 0 && time.Since(idleSince) >= s.Limits.IdleTimeout {
			s.Log.Debug("client idle timeout", zap.Stringer("remote", stream.RemoteAddr()))
			return
		}

		if s.Limits.ConnectionTimeout > 0 {
			stream.SetDeadline(time.Now().Add(s.Limits.ConnectionTimeout))
		}

		body, err := stream.ReadPacket()
		if err != nil {
			s.Log.Debug("read packet failed", zap.Error(err), zap.Stringer("remote", stream.RemoteAddr()))
			return
		}

		pkt, err := protocol.DecodeClientPacket(body)
		if err != nil {
			s.Log.Debug("decode packet failed", zap.Error(err), zap.Stringer("remote", stream.RemoteAddr()))
			return
		}

		resetIdle, ok := s.dispatch(stream, c, pkt)
		if !ok {
			return
		}
		if resetIdle {
			idleSince = time.Now()
		}
	}
}

// dispatch handles one decoded client packet, returning whether the idle
// timer should reset and whether the connection should stay open. Grounded
// on clients.rs::client_handler's match over packet types, including which
// sprite each packet is legal in and which packets reset the idle timer.
func (s *Server) dispatch(stream transport.Stream, c *session.Client, pkt protocol.ClientPacket) (resetIdle, keepOpen bool) {
	switch p := pkt.(type) {
	case protocol.ProtocolRequest:
		err := s.writePacket(stream, protocol.ProtocolResponse{Protocol: protocol.ProtocolName, Version: protocol.ProtocolVersion})
		return false, err == nil

	case protocol.ConnectionTest:
		err := s.writePacket(stream, protocol.ConnectionTestResponse{Data: p.Data})
		return false, err == nil

	case protocol.LogDebugMessage:
		s.Log.Debug("client debug message", zap.String("message", p.Message), zap.Stringer("remote", stream.RemoteAddr()))
		err := s.writePacket(stream, protocol.Void{})
		return false, err == nil

	case protocol.MapAttributeRequest:
		attrs := s.World.Attributes()
		err := s.writePacket(stream, protocol.MapAttributeResponse{Width: attrs.Width, Height: attrs.Height, Attributes: attrs.Attributes})
		return false, err == nil

	case protocol.RoomRequest:
		c.ClearCachedRoom(p.Room)
		room := s.World.RoomAt(p.Room)
		err := s.writePacket(stream, protocol.RoomResponse{Room: p.Room, Data: room.Data})
		return false, err == nil

	case protocol.ChangeColor:
		if c.Sprite() != protocol.SpriteWalking {
			return false, false
		}
		c.SetColorIfWalking(byte(p.Color))
		_, err := s.updateClientAndSendFields(stream, c, p.Movements)
		return true, err == nil

	case protocol.MyPosition:
		dist, err := s.updateClientAndSendFields(stream, c, p.Movements)
		return dist > 0, err == nil

	case protocol.DrawOnField:
		if c.Sprite() != protocol.SpriteWalking {
			return false, false
		}
		s.World.TryUpdateTile(p.Position, restrictDrawTiles(p.Tile), func(t byte) byte {
			return (t & 16) | p.Tile
		})
		_, err := s.updateClientAndSendFields(stream, c, p.Movements)
		return true, err == nil

	case protocol.HitNonPlayerUnit:
		sp := c.Sprite()
		if sp != protocol.SpriteIdle && sp != protocol.SpriteWalking {
			return false, false
		}
		s.handleCollision(c, int(p.Index))
		_, err := s.updateClientAndSendFields(stream, c, p.Movements)
		return true, err == nil

	case protocol.MakeCorpse:
		if !c.MarkCorpseMadeIfDying() {
			s.Log.Debug("illegal MakeCorpse", zap.Stringer("remote", stream.RemoteAddr()))
			return false, false
		}
		s.World.TryUpdateTile(p.Position, worldstore.MakeCorpseTiles, func(t byte) byte { return t + 16 })
		err := s.writePacket(stream, protocol.Void{})
		return false, err == nil

	case protocol.Bye:
		s.writePacket(stream, protocol.Void{})
		return false, false

	case protocol.Heaven:
		sp := c.Sprite()
		if sp != protocol.SpriteIdle && sp != protocol.SpriteWalking {
			return false, false
		}
		c.ReturnSword(s.entityLookup)
		c.DropShield(s.Entities, &s.playersWithShield)
		c.SetSprite(protocol.SpriteGhost)
		_, err := s.updateClientAndSendFields(stream, c, p.Movements)
		return true, err == nil

	default:
		return false, false
	}
}

// restrictDrawTiles rejects a paint request for a tile value the client
// isn't permitted to draw, per clients.rs::try_draw_on_field: drawing is
// only legal if the requested tile itself is a member of DRAW_TILES.
func restrictDrawTiles(tile byte) map[byte]struct{} {
	if _, ok := worldstore.DrawTiles[tile]; !ok {
		return nil
	}
	return worldstore.CanvasTiles
}

// updateClientAndSendFields verifies and applies a movement packet (if
// movements is non-empty), sets the Dying sprite on a movement violation,
// then always sends the resulting Fields snapshot regardless of whether the
// movement validated. Grounded on
// clients.rs::update_client_and_send_fields.
func (s *Server) updateClientAndSendFields(stream transport.Stream, c *session.Client, movements []geometry.Position) (int, error) {
	dist, moveErr := c.UpdatePosition(movements, s.World, s.Limits.Movement)
	if moveErr != nil {
		s.Log.Debug("movement rejected", zap.Error(moveErr), zap.Stringer("remote", stream.RemoteAddr()))
		c.SetSprite(protocol.SpriteDying)
	}

	num, sp := c.Snapshot()
	fields := protocol.Fields{
		ClientSprite: sp.Sprite,
		ClientColor:  sp.Color,
		ClientItems:  sp.Items,
		Weather:      weatherFor(s.playersWithShield.Load()),
		Tiles:        c.DrainRoomTileChanges(),
	}

	s.playersMu.RLock()
	for n, other := range s.players {
		if n == num || len(fields.Players) >= protocol.MaxPlayersPerFields {
			continue
		}
		_, otherSp := other.Snapshot()
		fields.Players = append(fields.Players, protocol.PlayerRecord{Index: byte(n), Soaprunner: otherSp})
	}
	s.playersMu.RUnlock()

	for i, e := range s.Entities {
		if i >= protocol.MaxEntitiesPerFields {
			break
		}
		fields.Entities = append(fields.Entities, protocol.EntityRecord{Index: byte(i), Unit: e.Snapshot()})
	}
	if len(fields.Tiles) > protocol.MaxTilesPerFields {
		fields.Tiles = fields.Tiles[:protocol.MaxTilesPerFields]
	}

	if err := s.writePacket(stream, fields); err != nil {
		return dist, err
	}
	return dist, moveErr
}

func weatherFor(playersWithShield int64) protocol.Weather {
	if playersWithShield > 0 {
		return protocol.WeatherRainy
	}
	return protocol.WeatherClear
}

// handleCollision resolves a HitNonPlayerUnit claim against the entity at
// index, silently ignoring an out-of-range index or one too far from the
// client's last-known position. Grounded on clients.rs::handle_collision,
// including its documented Closer/Wuss asymmetry and the Snail's immunity.
func (s *Server) handleCollision(c *session.Client, index int) {
	e := s.entityLookup(index)
	if e == nil {
		return
	}

	_, sp := c.Snapshot()
	if e.Position().TaxicabDistance(sp.Position()) > collisionDistanceLimit {
		return
	}

	switch e.Kind() {
	case protocol.KindGoal:
		c.SetSprite(protocol.SpriteWinning)

	case protocol.KindCloser:
		if e.State() != protocol.UnitActive {
			return
		}
		if sp.Items.Has(protocol.ItemSword) {
			c.AddKill(s.entityLookup)
			e.Kill(entity.DelayTicks(int(s.tickInterval/time.Millisecond), 5000))
		} else {
			c.Kill()
			e.AddKill()
		}

	case protocol.KindSword:
		c.ClaimSword(e, index)

	case protocol.KindWuss:
		if e.State() != protocol.UnitActive {
			return
		}
		c.AddKill(s.entityLookup)
		e.Kill(entity.DelayTicks(int(s.tickInterval/time.Millisecond), 5000))

	case protocol.KindCrawl:
		if sp.Items.Has(protocol.ItemSword) {
			c.AddKill(s.entityLookup)
			e.Kill(entity.DelayTicks(int(s.tickInterval/time.Millisecond), 10000))
		} else {
			c.Kill()
		}

	case protocol.KindHummer, protocol.KindRounder, protocol.KindGate, protocol.KindCross:
		if !sp.Items.Has(protocol.ItemShield) {
			c.Kill()
		}

	case protocol.KindChase:
		if e.State() != protocol.UnitActive {
			return
		}
		if sp.Items.Has(protocol.ItemSword) {
			c.AddKill(s.entityLookup)
			e.Kill(entity.DelayTicks(int(s.tickInterval/time.Millisecond), 5000))
		} else {
			c.Kill()
		}

	case protocol.KindShield:
		c.ClaimShield(e, index, &s.playersWithShield)

	case protocol.KindSnail:
		// Rumor has it the snail can be killed. As of this build, it can't.
	}
}

func (s *Server) writePacket(stream transport.Stream, pkt protocol.ServerPacket) error {
	body, err := protocol.EncodeServerPacket(pkt)
	if err != nil {
		return err
	}
	return stream.WritePacket(body)
}
