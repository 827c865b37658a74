package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteWait = time.Second

// WebSocketClient wraps a preview session's WebSocket connection.
type WebSocketClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla allows one concurrent writer
}

// NewWebSocketClient creates a new WebSocketClient. Messages larger than
// maxMessageSize bytes end the session; zero means no limit.
func NewWebSocketClient(conn *websocket.Conn, maxMessageSize int64) *WebSocketClient {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &WebSocketClient{conn: conn}
}

// ReadSeed reads the next message (blocking) and returns it unmodified.
// Whitespace is part of the seed, so nothing is trimmed or split.
func (c *WebSocketClient) ReadSeed() (string, error) {
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(message), nil
}

// WriteText sends a text message.
func (c *WebSocketClient) WriteText(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// WriteError sends an "error: ..." reply.
func (c *WebSocketClient) WriteError(err error) error {
	return c.WriteText("error: " + err.Error())
}

// CloseWithMessage sends a going-away close frame carrying reason, then closes.
func (c *WebSocketClient) CloseWithMessage(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	return c.conn.Close()
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
