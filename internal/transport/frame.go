package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// FramedTCPStream is a raw socket framed as [4-byte LE length][body], where
// length covers the body only (tag plus payload, never the prefix itself).
// Grounded on original_source/src/server/stream.rs::FramedTcpStream.
type FramedTCPStream struct {
	conn net.Conn
	r    *bufio.Reader
}

// NewFramedTCPStream wraps conn for frame-at-a-time I/O. r, when non-nil,
// is reused so that bytes already buffered while probing the connection
// (see ProbeStream) are not lost.
func NewFramedTCPStream(conn net.Conn, r *bufio.Reader) *FramedTCPStream {
	if r == nil {
		r = bufio.NewReader(conn)
	}
	return &FramedTCPStream{conn: conn, r: r}
}

func (s *FramedTCPStream) ReadPacket() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(s.r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length < protocol.MinPacketLength || length > protocol.MaxPacketLength {
		return nil, fmt.Errorf("invalid frame length: %d", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(s.r, body); err != nil {
		return nil, fmt.Errorf("read frame body (%d bytes): %w", length, err)
	}
	return body, nil
}

func (s *FramedTCPStream) WritePacket(body []byte) error {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := s.conn.Write(header[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := s.conn.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

func (s *FramedTCPStream) Close() error         { return s.conn.Close() }
func (s *FramedTCPStream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }
func (s *FramedTCPStream) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}
