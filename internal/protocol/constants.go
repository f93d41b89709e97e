package protocol

// Wire-level constants shared by the codec, transport, and session layers.
// Grounded on original_source/src/soaprun/packets.rs's PACKET_TYPE_* /
// CONNECTION_TEST_DATA_SIZE / CLIENT_MAX_* constants and
// original_source/src/server/stream.rs's MIN/MAX_PACKET_LENGTH use.
const (
	MinPacketLength = 4

	// MaxPacketLength bounds an incoming frame body (tag + payload). Not
	// given a concrete number in original_source's visible excerpt; sized
	// well above the largest client packet (a 255-node movement block is
	// about 1 KiB). Outgoing frames are not checked against it, so a large
	// Fields snapshot is still sent in full.
	MaxPacketLength = 65536

	ConnectionTestDataSize = 508

	// ProtocolBufferSize is the width of the ASCII protocol-name field.
	ProtocolBufferSize = 8

	MaxPlayersPerFields  = 63
	MaxEntitiesPerFields = 64
	MaxTilesPerFields    = 255
)

// ProtocolName and ProtocolVersion identify this server to a connecting
// client in response to a ProtocolRequest.
var ProtocolName = [ProtocolBufferSize]byte{'S', 'o', 'a', 'p', 'r', 'u', 'n', 0}

const ProtocolVersion uint16 = 64
