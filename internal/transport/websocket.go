package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketStream carries frame bodies as individual binary WebSocket
// messages; there is no additional length prefix, since the WebSocket
// framing already delimits each message.
// Grounded on original_source/src/server/stream.rs::WebSocketStream.
type WebSocketStream struct {
	conn *websocket.Conn
}

func NewWebSocketStream(conn *websocket.Conn) *WebSocketStream {
	return &WebSocketStream{conn: conn}
}

// ReadPacket returns the next binary message, silently skipping any text
// message in between (ping/pong are already handled by gorilla's default
// control-frame handlers before ReadMessage returns). A Close frame or any
// I/O error is reported as an aborted connection.
func (s *WebSocketStream) ReadPacket() ([]byte, error) {
	for {
		msgType, body, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("websocket closed: %w", err)
			}
			return nil, fmt.Errorf("read websocket message: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		return body, nil
	}
}

func (s *WebSocketStream) WritePacket(body []byte) error {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, body); err != nil {
		return fmt.Errorf("write websocket message: %w", err)
	}
	return nil
}

func (s *WebSocketStream) Close() error         { return s.conn.Close() }
func (s *WebSocketStream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }
func (s *WebSocketStream) SetDeadline(t time.Time) error {
	if err := s.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return s.conn.SetWriteDeadline(t)
}
