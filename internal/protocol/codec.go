package protocol

import (
	"fmt"
	"unicode/utf8"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol/packet"
)

// readMovements parses the trailing "u8 count, then count*(i16,i16)" block
// that terminates most client packets. The count must exactly consume the
// reader's remaining bytes.
func readMovements(r *packet.Reader) ([]geometry.Position, error) {
	count, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("read movements count: %w", err)
	}
	if r.Remaining() != int(count)*4 {
		return nil, fmt.Errorf("movements: expected %d bytes for %d nodes, got %d remaining", int(count)*4, count, r.Remaining())
	}
	movements := make([]geometry.Position, count)
	for i := range movements {
		x, err := r.ReadI16()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadI16()
		if err != nil {
			return nil, err
		}
		movements[i] = geometry.Position{X: x, Y: y}
	}
	return movements, nil
}

func writeMovements(w *packet.Writer, movements []geometry.Position) {
	w.WriteU8(byte(len(movements)))
	for _, m := range movements {
		w.WriteI16(m.X)
		w.WriteI16(m.Y)
	}
}

// DecodeClientPacket parses a frame body (tag + payload, as produced by a
// FramedStream) into one of the ClientPacket variants. Grounded on
// original_source/src/soaprun/packets.rs::read_packet.
func DecodeClientPacket(body []byte) (ClientPacket, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("packet body too short: %d bytes", len(body))
	}
	var tag [4]byte
	copy(tag[:], body[:4])
	r := packet.NewReader(body[4:])

	switch tag {
	case TagProtocolRequest:
		if r.Remaining() != 2 {
			return nil, fmt.Errorf("ProtocolRequest: expected 2 bytes, got %d", r.Remaining())
		}
		v, _ := r.ReadU16()
		return ProtocolRequest{Version: v}, nil

	case TagMapAttributeReq:
		if r.Remaining() != 0 {
			return nil, fmt.Errorf("MapAttributeRequest: expected 0 bytes, got %d", r.Remaining())
		}
		return MapAttributeRequest{}, nil

	case TagRoomRequest:
		if r.Remaining() != 2 {
			return nil, fmt.Errorf("RoomRequest: expected 2 bytes, got %d", r.Remaining())
		}
		x, _ := r.ReadI8()
		y, _ := r.ReadI8()
		return RoomRequest{Room: geometry.RoomCoordinates{X: x, Y: y}}, nil

	case TagMyPosition:
		movements, err := readMovements(r)
		if err != nil {
			return nil, fmt.Errorf("MyPosition: %w", err)
		}
		return MyPosition{Movements: movements}, nil

	case TagMakeCorpse:
		if r.Remaining() != 4 {
			return nil, fmt.Errorf("MakeCorpse: expected 4 bytes, got %d", r.Remaining())
		}
		x, _ := r.ReadI16()
		y, _ := r.ReadI16()
		return MakeCorpse{Position: geometry.Position{X: x, Y: y}}, nil

	case TagConnectionTest:
		if r.Remaining() != ConnectionTestDataSize {
			return nil, fmt.Errorf("ConnectionTest: expected %d bytes, got %d", ConnectionTestDataSize, r.Remaining())
		}
		raw, _ := r.ReadBytes(ConnectionTestDataSize)
		var data [ConnectionTestDataSize]byte
		copy(data[:], raw)
		return ConnectionTest{Data: data}, nil

	case TagLogDebugMessage:
		if r.Remaining() < 4 {
			return nil, fmt.Errorf("LogDebugMessage: expected at least 4 bytes, got %d", r.Remaining())
		}
		strlen, _ := r.ReadU32()
		if r.Remaining() != int(strlen) {
			return nil, fmt.Errorf("LogDebugMessage: expected %d message bytes, got %d remaining", strlen, r.Remaining())
		}
		raw, _ := r.ReadBytes(int(strlen))
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("LogDebugMessage: message is not valid UTF-8")
		}
		return LogDebugMessage{Message: string(raw)}, nil

	case TagBye:
		if r.Remaining() != 0 {
			return nil, fmt.Errorf("Bye: expected 0 bytes, got %d", r.Remaining())
		}
		return Bye{}, nil

	case TagHitNonPlayerUnit:
		if r.Remaining() < 1 {
			return nil, fmt.Errorf("HitNonPlayerUnit: expected at least 1 byte, got %d", r.Remaining())
		}
		index, _ := r.ReadU8()
		movements, err := readMovements(r)
		if err != nil {
			return nil, fmt.Errorf("HitNonPlayerUnit: %w", err)
		}
		return HitNonPlayerUnit{Index: index, Movements: movements}, nil

	case TagHeaven:
		movements, err := readMovements(r)
		if err != nil {
			return nil, fmt.Errorf("Heaven: %w", err)
		}
		return Heaven{Movements: movements}, nil

	case TagChangeColor:
		if r.Remaining() < 1 {
			return nil, fmt.Errorf("ChangeColor: expected at least 1 byte, got %d", r.Remaining())
		}
		color, _ := r.ReadU8()
		movements, err := readMovements(r)
		if err != nil {
			return nil, fmt.Errorf("ChangeColor: %w", err)
		}
		return ChangeColor{Color: SoaprunnerColor(color), Movements: movements}, nil

	case TagDrawOnField:
		if r.Remaining() < 5 {
			return nil, fmt.Errorf("DrawOnField: expected at least 5 bytes, got %d", r.Remaining())
		}
		x, _ := r.ReadI16()
		y, _ := r.ReadI16()
		tile, _ := r.ReadU8()
		movements, err := readMovements(r)
		if err != nil {
			return nil, fmt.Errorf("DrawOnField: %w", err)
		}
		return DrawOnField{Position: geometry.Position{X: x, Y: y}, Tile: tile, Movements: movements}, nil

	default:
		return nil, fmt.Errorf("unknown client packet tag %q", tag)
	}
}

// EncodeServerPacket serializes pkt into a frame body (tag + payload) ready
// to be framed and written by a FramedStream. Grounded on
// original_source/src/soaprun/packets.rs::write_packet, including its
// CLIENT_MAX_PLAYERS/ENTITIES/u8-tiles caps, which fail the send outright.
func EncodeServerPacket(pkt ServerPacket) ([]byte, error) {
	w := packet.NewWriter()

	switch p := pkt.(type) {
	case Welcome:
		w.WriteBytes(TagWelcome[:])

	case Void:
		w.WriteBytes(TagVoid[:])

	case ProtocolResponse:
		w.WriteBytes(TagProtocolRequest[:])
		w.WriteBytes(p.Protocol[:])
		w.WriteU16(p.Version)

	case ConnectionTestResponse:
		w.WriteBytes(TagConnectionTest[:])
		w.WriteBytes(p.Data[:])

	case MapAttributeResponse:
		w.WriteBytes(TagMapAttributeReq[:])
		w.WriteU16(p.Width)
		w.WriteU16(p.Height)
		w.WriteBytes(p.Attributes)

	case RoomResponse:
		w.WriteBytes(TagRoomRequest[:])
		w.WriteU8(byte(p.Room.X))
		w.WriteU8(byte(p.Room.Y))
		w.WriteBytes(p.Data[:])

	case Fields:
		if len(p.Players) > MaxPlayersPerFields {
			return nil, fmt.Errorf("too many players in Fields: %d > %d", len(p.Players), MaxPlayersPerFields)
		}
		if len(p.Entities) > MaxEntitiesPerFields {
			return nil, fmt.Errorf("too many entities in Fields: %d > %d", len(p.Entities), MaxEntitiesPerFields)
		}
		if len(p.Tiles) > MaxTilesPerFields {
			return nil, fmt.Errorf("too many tile deltas in Fields: %d > %d", len(p.Tiles), MaxTilesPerFields)
		}

		w.WriteBytes(TagFields[:])
		w.WriteU8(byte(p.ClientSprite))
		w.WriteU8(byte(p.ClientColor))
		w.WriteU8(byte(p.ClientItems))
		w.WriteU8(byte(len(p.Players)))
		w.WriteU8(byte(len(p.Entities)))
		w.WriteU8(byte(len(p.Tiles)))
		w.WriteU8(byte(p.Weather))

		for _, pr := range p.Players {
			w.WriteU8(pr.Index)
			w.WriteU8(pr.Soaprunner.TeleportTrigger)
			w.WriteU8(byte(pr.Soaprunner.Sprite))
			w.WriteU8(byte(pr.Soaprunner.Color))
			w.WriteU8(byte(pr.Soaprunner.Items))
			writeMovements(w, pr.Soaprunner.Movements)
		}
		for _, er := range p.Entities {
			w.WriteU8(er.Index)
			w.WriteU8(er.Unit.TeleportTrigger)
			w.WriteU8(byte(er.Unit.State))
			w.WriteU8(byte(er.Unit.Kind))
			w.WriteU8(er.Unit.Direction)
			writeMovements(w, er.Unit.Movements)
		}
		for _, t := range p.Tiles {
			w.WriteI16(t.Position.X)
			w.WriteI16(t.Position.Y)
			w.WriteU8(t.Tile)
			w.WriteU8(0) // padding
		}

	default:
		return nil, fmt.Errorf("unknown server packet type %T", pkt)
	}

	return w.Bytes(), nil
}
