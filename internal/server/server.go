// Package server serves generated maps over HTTP and WebSocket so tools can
// preview a seed without running the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/mysticalmap/internal/config"
	"github.com/lawnchairsociety/mysticalmap/internal/database"
	"github.com/lawnchairsociety/mysticalmap/internal/logger"
	"github.com/lawnchairsociety/mysticalmap/internal/mapcodec"
	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"github.com/lawnchairsociety/mysticalmap/internal/scenemap"
)

// MapStore is the archive the server reads from and writes to.
// *database.Database satisfies it.
type MapStore interface {
	LoadMap(seed string) (*mapgen.MysticalMap, error)
	CreateMap(m *mapgen.MysticalMap) (int64, error)
}

// Server is the map preview service.
type Server struct {
	cfg         config.ServerConfig
	gen         *mapgen.Generator
	mapper      *scenemap.Mapper
	store       MapStore // nil disables the archive
	connLimiter *ConnLimiter
	mux         *http.ServeMux
	StartTime   time.Time

	mu         sync.Mutex
	httpServer *http.Server
	clients    map[*WebSocketClient]struct{}
	closing    bool

	mapsGenerated atomic.Int64
}

// NewServer creates a preview server. store may be nil.
func NewServer(cfg config.ServerConfig, gen *mapgen.Generator, mapper *scenemap.Mapper, store MapStore) *Server {
	s := &Server{
		cfg:         cfg,
		gen:         gen,
		mapper:      mapper,
		store:       store,
		connLimiter: NewConnLimiter(cfg.Connections),
		mux:         http.NewServeMux(),
		StartTime:   time.Now(),
		clients:     make(map[*WebSocketClient]struct{}),
	}

	s.mux.HandleFunc("GET /map", s.handleMap)
	s.mux.HandleFunc("GET /scenes", s.handleScenes)
	s.mux.HandleFunc("GET /ws", s.handleWebSocketUpgrade)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown. It returns nil after
// a graceful shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		listener.Close()
		return http.ErrServerClosed
	}
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StdLogger(),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logger.Info("Preview server listening", "address", listener.Addr().String())

	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, closes WebSocket sessions and waits for
// in-flight HTTP requests until ctx is done. Calling it more than once is safe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	httpServer := s.httpServer
	clients := make([]*WebSocketClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	logger.Info("Shutting down preview server", "websocket_clients", len(clients))

	// Hijacked connections are not tracked by http.Server.
	for _, c := range clients {
		c.CloseWithMessage("server shutting down")
	}

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

// MapsGenerated returns how many maps were generated since start. Maps
// served from the archive are not counted.
func (s *Server) MapsGenerated() int64 {
	return s.mapsGenerated.Load()
}

// resolveMap returns the archived map for seed when there is one, otherwise
// generates it and archives the result if configured.
func (s *Server) resolveMap(seed string) (*mapgen.MysticalMap, error) {
	if s.store != nil && strings.TrimSpace(seed) != "" {
		m, err := s.store.LoadMap(seed)
		if err == nil {
			logger.Debug("Serving archived map", "seed", seed)
			return m, nil
		}
		if !errors.Is(err, database.ErrMapNotFound) {
			logger.Warning("Archive lookup failed, regenerating", "seed", seed, "error", err)
		}
	}

	m, err := s.gen.Generate(seed)
	if err != nil {
		return nil, err
	}

	if s.store != nil && s.cfg.ArchiveMaps {
		if _, err := s.store.CreateMap(m); err != nil && !errors.Is(err, database.ErrMapExists) {
			logger.Warning("Failed to archive map", "seed", m.Seed, "error", err)
		}
	}

	s.mapsGenerated.Add(1)
	return m, nil
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.resolveMap(r.URL.Query().Get("seed"))
	if err != nil {
		logger.Error("Map generation failed", "error", err)
		http.Error(w, "map generation failed", http.StatusInternalServerError)
		return
	}

	doc, err := mapcodec.Serialize(m)
	if err != nil {
		logger.Error("Map serialization failed", "seed", m.Seed, "error", err)
		http.Error(w, "map serialization failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Write(doc)
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	m, err := s.resolveMap(r.URL.Query().Get("seed"))
	if err != nil {
		logger.Error("Map generation failed", "error", err)
		http.Error(w, "map generation failed", http.StatusInternalServerError)
		return
	}

	assignments, err := s.mapper.MapScenes(m)
	if err != nil {
		// The generator and the scene table disagree about the roster.
		logger.Error("Scene mapping failed", "seed", m.Seed, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var b strings.Builder
	for _, a := range assignments {
		fmt.Fprintf(&b, "%s\t%s\n", a.NodeID, a.Scene)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(b.String()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, ips := s.connLimiter.GetStats()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok\nuptime %s\nmaps_generated %d\nwebsocket_connections %d\nwebsocket_ips %d\n",
		time.Since(s.StartTime).Round(time.Second), s.MapsGenerated(), total, ips)
}

// handleWebSocketUpgrade handles HTTP requests and upgrades them to WebSocket connections
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected: limit exceeded", "ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected: origin not allowed",
					"origin", origin,
					"host", r.Host,
					"ip", clientIP)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.connLimiter.Release(clientIP)
		logger.Debug("WebSocket upgrade failed", "ip", clientIP, "error", err)
		return
	}

	go s.handleWebSocketConnection(conn, clientIP)
}

// handleWebSocketConnection answers each message with the map for that seed.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn, clientIP string) {
	client := NewWebSocketClient(conn, s.cfg.WebSocket.MaxMessageSize)
	defer s.connLimiter.Release(clientIP)
	defer client.Close()

	if !s.addClient(client) {
		client.CloseWithMessage("server shutting down")
		return
	}
	defer s.removeClient(client)

	logger.Info("WebSocket session started", "ip", clientIP)

	for {
		seed, err := client.ReadSeed()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket read failed", "ip", clientIP, "error", err)
			}
			break
		}

		if err := s.answerSeed(client, seed); err != nil {
			logger.Debug("WebSocket write failed", "ip", clientIP, "error", err)
			break
		}
	}

	logger.Info("WebSocket session ended", "ip", clientIP)
}

func (s *Server) answerSeed(client *WebSocketClient, seed string) error {
	m, err := s.resolveMap(seed)
	if err != nil {
		return client.WriteError(err)
	}
	doc, err := mapcodec.Serialize(m)
	if err != nil {
		return client.WriteError(err)
	}
	return client.WriteText(string(doc))
}

func (s *Server) addClient(c *WebSocketClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) removeClient(c *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// getRealIP extracts the real client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers (set by reverse proxies),
// falling back to RemoteAddr if neither is present.
func getRealIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	// The first IP is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return extractIP(r.RemoteAddr)
}
