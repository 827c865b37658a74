// Package testclient drives a running preview service the way a tool would:
// over its WebSocket session and its plain HTTP endpoints.
package testclient

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/mysticalmap/internal/mapcodec"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
)

// TestClient is a WebSocket session with the preview service.
type TestClient struct {
	Name     string
	baseURL  string // http://host:port
	conn     *websocket.Conn
	messages []string
	mu       sync.Mutex
	writeMu  sync.Mutex
	done     chan struct{}
	http     *http.Client
}

// NewTestClient opens a WebSocket session with the service at address
// (host:port, or a full http:// URL).
func NewTestClient(name string, address string) (*TestClient, error) {
	return NewTestClientWithHeader(name, address, nil)
}

// NewTestClientWithHeader is NewTestClient with extra handshake headers,
// such as Origin.
func NewTestClientWithHeader(name string, address string, header http.Header) (*TestClient, error) {
	baseURL := normalizeAddress(address)
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &TestClient{
		Name:     name,
		baseURL:  baseURL,
		conn:     conn,
		messages: make([]string, 0),
		done:     make(chan struct{}),
		http:     &http.Client{Timeout: 10 * time.Second},
	}

	go client.readMessages()

	return client, nil
}

func normalizeAddress(address string) string {
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return strings.TrimSuffix(address, "/")
	}
	return "http://" + address
}

// readMessages continuously reads messages from the server
func (c *TestClient) readMessages() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.mu.Lock()
		c.messages = append(c.messages, string(msg))
		c.mu.Unlock()
	}
}

// SendSeed sends a seed to the server. The reply arrives asynchronously.
func (c *TestClient) SendSeed(seed string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(seed))
}

// RequestMap sends a seed and decodes the next reply. An "error: ..." reply
// is returned as an error.
func (c *TestClient) RequestMap(seed string, timeout time.Duration) (*mapgen.MysticalMap, error) {
	before := c.MessageCount()
	if err := c.SendSeed(seed); err != nil {
		return nil, err
	}

	reply, ok := c.WaitForReply(before, timeout)
	if !ok {
		return nil, fmt.Errorf("no reply for seed %q within %s", seed, timeout)
	}
	if strings.HasPrefix(reply, "error: ") {
		return nil, fmt.Errorf("server: %s", strings.TrimPrefix(reply, "error: "))
	}
	return mapcodec.Deserialize([]byte(reply))
}

// WaitForReply waits until more than after messages have arrived and
// returns message number after.
func (c *TestClient) WaitForReply(after int, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.messages) > after {
			msg := c.messages[after]
			c.mu.Unlock()
			return msg, true
		}
		c.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}

	return "", false
}

// MessageCount returns how many messages have been received.
func (c *TestClient) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// GetMessages returns all messages received so far
func (c *TestClient) GetMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]string, len(c.messages))
	copy(result, c.messages)
	return result
}

// Closed reports whether the server has ended the session.
func (c *TestClient) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// WaitForClose waits for the server to end the session.
func (c *TestClient) WaitForClose(timeout time.Duration) bool {
	select {
	case <-c.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close closes the client connection
func (c *TestClient) Close() error {
	return c.conn.Close()
}

// GetMap fetches /map for seed over plain HTTP.
func (c *TestClient) GetMap(seed string) (*mapgen.MysticalMap, error) {
	body, err := c.get("/map?seed=" + url.QueryEscape(seed))
	if err != nil {
		return nil, err
	}
	return mapcodec.Deserialize(body)
}

// GetScenes fetches /scenes for seed and returns node id -> scene id.
func (c *TestClient) GetScenes(seed string) (map[string]string, error) {
	body, err := c.get("/scenes?seed=" + url.QueryEscape(seed))
	if err != nil {
		return nil, err
	}

	scenes := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		nodeID, scene, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed scene line %q", line)
		}
		scenes[nodeID] = scene
	}
	return scenes, nil
}

func (c *TestClient) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
