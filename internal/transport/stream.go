// Package transport provides the framed byte-stream abstractions a
// connected client speaks over: a raw TCP socket with a 4-byte
// little-endian length prefix, or a WebSocket carrying the same frame
// bodies as binary messages. Both are exposed through the single Stream
// interface so internal/gameserver never needs to know which one it has.
//
// Grounded on original_source/src/server/stream.rs's FramedStream trait,
// FramedTcpStream, WebSocketStream, and probe_stream, generalizing the
// teacher's internal/net/codec.go length-prefixed-frame style from a
// 2-byte L1J header to Soaprun's 4-byte one.
package transport

import (
	"net"
	"time"
)

// Stream is a connected client's framed packet channel, regardless of the
// underlying transport.
type Stream interface {
	// ReadPacket blocks for one frame and returns its body (tag + payload,
	// without any length prefix).
	ReadPacket() ([]byte, error)
	// WritePacket sends one frame body.
	WritePacket(body []byte) error
	Close() error
	RemoteAddr() net.Addr
	// SetDeadline arms a combined read/write deadline, used for the
	// per-connection connection_timeout.
	SetDeadline(t time.Time) error
}
