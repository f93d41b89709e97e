package protocol

import (
	"bytes"
	"testing"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
)

func body(tag [4]byte, rest ...byte) []byte {
	return append(append([]byte{}, tag[:]...), rest...)
}

func TestDecodeClientPacketSimpleVariants(t *testing.T) {
	t.Run("ProtocolRequest", func(t *testing.T) {
		pkt, err := DecodeClientPacket(body(TagProtocolRequest, 0x40, 0x00))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, ok := pkt.(ProtocolRequest)
		if !ok || got.Version != 0x0040 {
			t.Fatalf("got %#v", pkt)
		}
	})

	t.Run("MapAttributeRequest", func(t *testing.T) {
		pkt, err := DecodeClientPacket(body(TagMapAttributeReq))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := pkt.(MapAttributeRequest); !ok {
			t.Fatalf("got %#v", pkt)
		}
	})

	t.Run("RoomRequest", func(t *testing.T) {
		pkt, err := DecodeClientPacket(body(TagRoomRequest, 0xFE, 0x02))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, ok := pkt.(RoomRequest)
		if !ok || got.Room.X != -2 || got.Room.Y != 2 {
			t.Fatalf("got %#v", pkt)
		}
	})

	t.Run("Bye", func(t *testing.T) {
		pkt, err := DecodeClientPacket(body(TagBye))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := pkt.(Bye); !ok {
			t.Fatalf("got %#v", pkt)
		}
	})
}

func TestDecodeClientPacketMovements(t *testing.T) {
	// MyPosition: count=2, then two (i16,i16) nodes.
	raw := body(TagMyPosition, 2,
		0x01, 0x00, 0x02, 0x00, // (1, 2)
		0xFF, 0xFF, 0x05, 0x00, // (-1, 5)
	)
	pkt, err := DecodeClientPacket(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := pkt.(MyPosition)
	if !ok {
		t.Fatalf("got %#v", pkt)
	}
	want := []geometry.Position{{X: 1, Y: 2}, {X: -1, Y: 5}}
	if len(got.Movements) != len(want) || got.Movements[0] != want[0] || got.Movements[1] != want[1] {
		t.Fatalf("movements = %v, want %v", got.Movements, want)
	}
}

func TestDecodeClientPacketMovementsCountMismatch(t *testing.T) {
	// Claims 2 nodes but only supplies bytes for 1.
	raw := body(TagMyPosition, 2, 0x01, 0x00, 0x02, 0x00)
	if _, err := DecodeClientPacket(raw); err == nil {
		t.Error("expected an error when movement count doesn't match remaining bytes")
	}
}

func TestDecodeClientPacketHitNonPlayerUnit(t *testing.T) {
	raw := body(TagHitNonPlayerUnit, 5, 0)
	pkt, err := DecodeClientPacket(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := pkt.(HitNonPlayerUnit)
	if !ok || got.Index != 5 || len(got.Movements) != 0 {
		t.Fatalf("got %#v", pkt)
	}
}

func TestDecodeClientPacketDrawOnField(t *testing.T) {
	raw := body(TagDrawOnField,
		0x0A, 0x00, 0x14, 0x00, // x=10, y=20
		13, // tile
		0,  // 0 movement nodes
	)
	pkt, err := DecodeClientPacket(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := pkt.(DrawOnField)
	if !ok {
		t.Fatalf("got %#v", pkt)
	}
	if got.Position != (geometry.Position{X: 10, Y: 20}) || got.Tile != 13 {
		t.Fatalf("got %#v", got)
	}
}

func TestDecodeClientPacketLogDebugMessage(t *testing.T) {
	msg := "hello"
	raw := body(TagLogDebugMessage, byte(len(msg)), 0, 0, 0)
	raw = append(raw, msg...)
	pkt, err := DecodeClientPacket(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := pkt.(LogDebugMessage)
	if !ok || got.Message != msg {
		t.Fatalf("got %#v", pkt)
	}
}

func TestDecodeClientPacketLogDebugMessageInvalidUTF8(t *testing.T) {
	raw := body(TagLogDebugMessage, 1, 0, 0, 0, 0xFF)
	if _, err := DecodeClientPacket(raw); err == nil {
		t.Error("expected an error for an invalid UTF-8 debug message")
	}
}

func TestDecodeClientPacketUnknownTag(t *testing.T) {
	if _, err := DecodeClientPacket(body([4]byte{'X', 'X', 'X', 'X'})); err == nil {
		t.Error("expected an error for an unknown packet tag")
	}
}

func TestDecodeClientPacketTooShort(t *testing.T) {
	if _, err := DecodeClientPacket([]byte{1, 2, 3}); err == nil {
		t.Error("expected an error for a body shorter than the tag")
	}
}

func TestEncodeServerPacketSimpleVariants(t *testing.T) {
	t.Run("Welcome", func(t *testing.T) {
		got, err := EncodeServerPacket(Welcome{})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !bytes.Equal(got, TagWelcome[:]) {
			t.Fatalf("got %v, want just the tag", got)
		}
	})

	t.Run("ConnectionTestResponse", func(t *testing.T) {
		var data [ConnectionTestDataSize]byte
		data[0] = 9
		got, err := EncodeServerPacket(ConnectionTestResponse{Data: data})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if len(got) != 4+ConnectionTestDataSize {
			t.Fatalf("len = %d, want %d", len(got), 4+ConnectionTestDataSize)
		}
		if got[4] != 9 {
			t.Fatalf("payload not preserved: %v", got[4:8])
		}
	})

	t.Run("RoomResponse", func(t *testing.T) {
		var data [336]byte
		data[5] = 42
		got, err := EncodeServerPacket(RoomResponse{Room: geometry.RoomCoordinates{X: -1, Y: 3}, Data: data})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if got[4] != 0xFF || got[5] != 3 {
			t.Fatalf("room coords not little-endian-signed-byte encoded: %v", got[4:6])
		}
	})
}

func TestEncodeServerPacketFieldsCaps(t *testing.T) {
	tooManyPlayers := make([]PlayerRecord, MaxPlayersPerFields+1)
	if _, err := EncodeServerPacket(Fields{Players: tooManyPlayers}); err == nil {
		t.Error("expected an error when Players exceeds MaxPlayersPerFields")
	}

	tooManyEntities := make([]EntityRecord, MaxEntitiesPerFields+1)
	if _, err := EncodeServerPacket(Fields{Entities: tooManyEntities}); err == nil {
		t.Error("expected an error when Entities exceeds MaxEntitiesPerFields")
	}

	tooManyTiles := make([]TileDelta, MaxTilesPerFields+1)
	if _, err := EncodeServerPacket(Fields{Tiles: tooManyTiles}); err == nil {
		t.Error("expected an error when Tiles exceeds MaxTilesPerFields")
	}
}

func TestEncodeServerPacketFieldsLayout(t *testing.T) {
	f := Fields{
		ClientSprite: SpriteWalking,
		ClientColor:  1,
		ClientItems:  ItemSword,
		Weather:      WeatherRainy,
		Players:      []PlayerRecord{{Index: 2, Soaprunner: Soaprunner{Sprite: SpriteIdle}}},
		Entities:     []EntityRecord{{Index: 1, Unit: Unit{Kind: KindGoal}}},
		Tiles:        []TileDelta{{Position: geometry.Position{X: 4, Y: 5}, Tile: 9}},
	}
	got, err := EncodeServerPacket(f)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(got[:4], TagFields[:]) {
		t.Fatalf("tag = %v, want %v", got[:4], TagFields)
	}
	// byte[4..7] = sprite, color, items; byte 7 = player count, 8 = entity
	// count, 9 = tile count, 10 = weather.
	if got[7] != 1 || got[8] != 1 || got[9] != 1 || got[10] != byte(WeatherRainy) {
		t.Fatalf("header counts/weather = %v", got[4:11])
	}
}

func TestEncodeServerPacketUnknownType(t *testing.T) {
	if _, err := EncodeServerPacket(nil); err == nil {
		t.Error("expected an error encoding an unrecognized ServerPacket")
	}
}
