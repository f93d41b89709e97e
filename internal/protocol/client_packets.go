package protocol

import "github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"

// Client packet tags. Each is a 4-byte ASCII mnemonic, matching
// original_source/src/soaprun/packets.rs's PACKET_TYPE_* constants.
var (
	TagProtocolRequest    = [4]byte{'P', 'r', 't', 'c'}
	TagMapAttributeReq    = [4]byte{'m', 'A', 't', 't'}
	TagRoomRequest        = [4]byte{'R', 'o', 'o', 'm'}
	TagMyPosition         = [4]byte{'m', 'y', 'P', 'o'}
	TagMakeCorpse         = [4]byte{'m', 'C', 'r', 'p'}
	TagConnectionTest     = [4]byte{'T', 'e', 's', 't'}
	TagLogDebugMessage    = [4]byte{'D', 'l', 'o', 'g'}
	TagBye                = [4]byte{'B', 'y', 'e', '.'}
	TagHitNonPlayerUnit   = [4]byte{'H', 'N', 'P', 'U'}
	TagHeaven             = [4]byte{'H', 'V', 'e', 'n'}
	TagChangeColor        = [4]byte{'C', 'h', 'C', 'l'}
	TagDrawOnField        = [4]byte{'D', 'r', 'F', 'l'}
)

// ClientPacket is the tagged union of every packet a client may send.
type ClientPacket interface {
	clientPacket()
}

// ProtocolRequest asks the server to confirm compatibility with a client's
// protocol version.
type ProtocolRequest struct {
	Version uint16
}

// MapAttributeRequest asks for the global map_attributes blob.
type MapAttributeRequest struct{}

// RoomRequest asks for the raw tile grid of one room.
type RoomRequest struct {
	Room geometry.RoomCoordinates
}

// MyPosition reports a soaprunner's latest movement steps.
type MyPosition struct {
	Movements []geometry.Position
}

// MakeCorpse asks the server to turn the tile under a position into a
// corpse marking, if that tile is eligible.
type MakeCorpse struct {
	Position geometry.Position
}

// ConnectionTest is a fixed-size echo/keepalive payload.
type ConnectionTest struct {
	Data [ConnectionTestDataSize]byte
}

// LogDebugMessage is a free-form client-side diagnostic string.
type LogDebugMessage struct {
	Message string
}

// Bye announces a clean client disconnect.
type Bye struct{}

// HitNonPlayerUnit reports a collision with the entity at Index along with
// the soaprunner's latest movements.
type HitNonPlayerUnit struct {
	Index     byte
	Movements []geometry.Position
}

// Heaven asks for an Idle or Walking soaprunner to become a Ghost, along
// with its latest movements.
type Heaven struct {
	Movements []geometry.Position
}

// ChangeColor requests a new soaprunner color alongside latest movements.
type ChangeColor struct {
	Color     SoaprunnerColor
	Movements []geometry.Position
}

// DrawOnField paints Tile at Position (subject to canvas eligibility) and
// reports latest movements.
type DrawOnField struct {
	Position  geometry.Position
	Tile      byte
	Movements []geometry.Position
}

func (ProtocolRequest) clientPacket()     {}
func (MapAttributeRequest) clientPacket() {}
func (RoomRequest) clientPacket()         {}
func (MyPosition) clientPacket()          {}
func (MakeCorpse) clientPacket()          {}
func (ConnectionTest) clientPacket()      {}
func (LogDebugMessage) clientPacket()     {}
func (Bye) clientPacket()                 {}
func (HitNonPlayerUnit) clientPacket()    {}
func (Heaven) clientPacket()              {}
func (ChangeColor) clientPacket()         {}
func (DrawOnField) clientPacket()         {}
