package transport

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

// probeWait is how long ProbeStream waits for a client's opening bytes
// before deciding it sees nothing and falling back to raw TCP framing.
// Grounded on original_source/src/server/stream.rs::probe_stream.
const probeWait = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 + protocol.MaxPacketLength,
	WriteBufferSize: 4 + protocol.MaxPacketLength,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ProbeStream peeks at a freshly accepted connection's first bytes to
// decide whether it is an HTTP WebSocket upgrade request (sniffed by a
// "GET" prefix) or a raw framed socket, and returns the matching Stream.
func ProbeStream(conn net.Conn) (Stream, error) {
	r := bufio.NewReader(conn)

	if err := conn.SetReadDeadline(time.Now().Add(probeWait)); err != nil {
		return nil, fmt.Errorf("set probe deadline: %w", err)
	}
	prefix, err := r.Peek(3)
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("clear probe deadline: %w", err)
	}
	if err != nil {
		// No bytes arrived within the probe window; treat it as a raw
		// client and let the first real read time out on its own terms.
		return NewFramedTCPStream(conn, r), nil
	}

	if string(prefix) != "GET" {
		return NewFramedTCPStream(conn, r), nil
	}

	req, err := http.ReadRequest(r)
	if err != nil {
		return nil, fmt.Errorf("read websocket handshake: %w", err)
	}

	rw := &hijackedResponseWriter{conn: conn, r: r, header: make(http.Header)}
	wsConn, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade websocket: %w", err)
	}
	wsConn.SetReadLimit(4 + protocol.MaxPacketLength)
	return NewWebSocketStream(wsConn), nil
}

// hijackedResponseWriter adapts an already-accepted net.Conn into the
// http.ResponseWriter + http.Hijacker pair gorilla/websocket's Upgrader
// needs, since there is no surrounding http.Server driving this request.
type hijackedResponseWriter struct {
	conn   net.Conn
	r      *bufio.Reader
	header http.Header
}

func (w *hijackedResponseWriter) Header() http.Header         { return w.header }
func (w *hijackedResponseWriter) Write(b []byte) (int, error) { return w.conn.Write(b) }
func (w *hijackedResponseWriter) WriteHeader(statusCode int)  {}

func (w *hijackedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	bw := bufio.NewWriter(w.conn)
	return w.conn, bufio.NewReadWriter(w.r, bw), nil
}
