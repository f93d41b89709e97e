package protocol

import "github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"

// Server packet tags, mirroring original_source/src/soaprun/packets.rs's
// PACKET_TYPE_WELCOME / PACKET_TYPE_FIELDS / PACKET_TYPE_VOID, reusing the
// client-side tags for Prtc/mAtt/Room/Test.
var (
	TagWelcome = [4]byte{'W', 'L', 'C', 'M'}
	TagFields  = [4]byte{'F', 'l', 'd', 's'}
	TagVoid    = [4]byte{'V', 'o', 'i', 'd'}
)

// ServerPacket is the tagged union of every packet the server may send.
type ServerPacket interface {
	serverPacket()
}

// Welcome is the sole unsolicited server packet, sent immediately after accept.
type Welcome struct{}

// ProtocolResponse answers a ProtocolRequest with this server's identity.
type ProtocolResponse struct {
	Protocol [ProtocolBufferSize]byte
	Version  uint16
}

// MapAttributeResponse answers a MapAttributeRequest.
type MapAttributeResponse struct {
	Width, Height uint16
	Attributes    []byte
}

// RoomResponse answers a RoomRequest with one room's raw tile grid.
type RoomResponse struct {
	Room geometry.RoomCoordinates
	Data [336]byte
}

// TileDelta is one (room-relative) tile change in a Fields snapshot.
type TileDelta struct {
	Position geometry.Position
	Tile     byte
}

// PlayerRecord is one other-player's soaprunner projection in a Fields
// snapshot.
type PlayerRecord struct {
	Index      byte
	Soaprunner Soaprunner
}

// EntityRecord is one entity's unit projection in a Fields snapshot.
type EntityRecord struct {
	Index byte
	Unit  Unit
}

// Fields is the per-turn snapshot sent in response to every
// state-affecting client packet.
type Fields struct {
	ClientSprite SoaprunnerSprite
	ClientColor  SoaprunnerColor
	ClientItems  SoaprunnerItems
	Weather      Weather
	Players      []PlayerRecord
	Entities     []EntityRecord
	Tiles        []TileDelta
}

// ConnectionTestResponse echoes the client's 508-byte test payload.
type ConnectionTestResponse struct {
	Data [ConnectionTestDataSize]byte
}

// Void is an empty acknowledgement, sent for MakeCorpse/LogDebugMessage/Bye.
type Void struct{}

func (Welcome) serverPacket()                 {}
func (ProtocolResponse) serverPacket()         {}
func (MapAttributeResponse) serverPacket()     {}
func (RoomResponse) serverPacket()             {}
func (Fields) serverPacket()                   {}
func (ConnectionTestResponse) serverPacket()   {}
func (Void) serverPacket()                     {}
