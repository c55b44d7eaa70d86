package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/foomo/ophelia-mcp/preferences"
	"github.com/foomo/ophelia-mcp/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEEvent represents an SSE event structure
type SSEEvent struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func newSSEEvent(name string, data any) SSEEvent {
	return SSEEvent{
		ID:        uuid.NewString(),
		Event:     name,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// SSEClient represents a connected SSE client. Only the handler goroutine of
// the client writes to the connection; others hand events over via send.
type SSEClient struct {
	ID        string
	send      chan SSEEvent
	mu        sync.Mutex
	lastSeen  time.Time
	connected time.Time
}

func (c *SSEClient) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *SSEClient) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// MCPSSEServer streams content loads, registrations and site notifications.
type MCPSSEServer struct {
	logger       *zap.Logger
	content      *content
	config       *SSEServerConfig
	clients      map[string]*SSEClient
	clientsMutex sync.RWMutex
	broadcast    chan SSEEvent
	done         chan struct{}
	closeOnce    sync.Once
}

// SSEServerConfig holds configuration for the SSE server
type SSEServerConfig struct {
	KeepaliveInterval time.Duration
	BufferSize        int
	ClientTimeout     time.Duration
}

// DefaultSSEServerConfig returns the default configuration for SSE server
func DefaultSSEServerConfig() *SSEServerConfig {
	return &SSEServerConfig{
		KeepaliveInterval: 30 * time.Second,
		BufferSize:        100,
		ClientTimeout:     60 * time.Second,
	}
}

// NewMCPSSEServer creates a new SSE server and starts its broadcast loop.
func NewMCPSSEServer(logger *zap.Logger, svc service.Service, prefs *preferences.Store, config *SSEServerConfig) *MCPSSEServer {
	if config == nil {
		config = DefaultSSEServerConfig()
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = DefaultSSEServerConfig().KeepaliveInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "sse"))

	sseServer := &MCPSSEServer{
		logger:    logger,
		content:   &content{l: logger, svc: svc, prefs: prefs},
		config:    config,
		clients:   make(map[string]*SSEClient),
		broadcast: make(chan SSEEvent, config.BufferSize),
		done:      make(chan struct{}),
	}

	go sseServer.broadcastLoop()

	return sseServer
}

// Close disconnects all clients and stops the broadcast loop.
func (s *MCPSSEServer) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// broadcastLoop hands events over to all connected clients; a client that
// cannot keep up misses the event.
func (s *MCPSSEServer) broadcastLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.broadcast:
			s.clientsMutex.RLock()
			for clientID, client := range s.clients {
				select {
				case client.send <- event:
				default:
					s.logger.Warn("client buffer full, dropping event", zap.String("clientID", clientID), zap.String("event", event.Event))
				}
			}
			s.clientsMutex.RUnlock()
		}
	}
}

// writeEvent writes one event in SSE framing and flushes it.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Event, eventJSON); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")
}

func (s *MCPSSEServer) addClient() *SSEClient {
	now := time.Now()
	client := &SSEClient{
		ID:        uuid.NewString(),
		send:      make(chan SSEEvent, max(1, s.config.BufferSize)),
		lastSeen:  now,
		connected: now,
	}

	s.clientsMutex.Lock()
	s.clients[client.ID] = client
	s.clientsMutex.Unlock()

	s.logger.Info("SSE client connected", zap.String("clientID", client.ID))
	return client
}

func (s *MCPSSEServer) removeClient(clientID string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	if _, exists := s.clients[clientID]; exists {
		delete(s.clients, clientID)
		s.logger.Info("SSE client disconnected", zap.String("clientID", clientID))
	}
}

// Broadcast sends an event to all connected clients.
func (s *MCPSSEServer) Broadcast(name string, data any) {
	event := newSSEEvent(name, data)
	select {
	case s.broadcast <- event:
	default:
		s.logger.Warn("broadcast channel full, dropping event", zap.String("eventID", event.ID))
	}
}

// HandleSSE subscribes the caller to site notifications.
func (s *MCPSSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	client := s.addClient()
	defer s.removeClient(client.ID)

	connectEvent := newSSEEvent("connected", map[string]string{
		"clientID": client.ID,
		"message":  "Connected to the Ophelia SSE server",
	})
	if err := writeEvent(w, flusher, connectEvent); err != nil {
		s.logger.Error("failed to send connection event", zap.String("clientID", client.ID), zap.Error(err))
		return
	}

	ticker := time.NewTicker(s.config.KeepaliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		var event SSEEvent
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event = <-client.send:
		case <-ticker.C:
			event = newSSEEvent("keepalive", map[string]any{"timestamp": time.Now()})
		}
		if err := writeEvent(w, flusher, event); err != nil {
			s.logger.Debug("failed to send event to client", zap.String("clientID", client.ID), zap.Error(err))
			return
		}
		client.touch()
	}
}

// HandleContentSSE streams the load of one content kind, selected by the kind
// query parameter.
func (s *MCPSSEServer) HandleContentSSE(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := ContentQuery{
		Kind:          strings.TrimSpace(query.Get("kind")),
		ForceReload:   query.Get("forceReload") == "true",
		IncludeHidden: query.Get("includeHidden") == "true",
	}
	if _, ok := loadErrorMessages[q.Kind]; !ok {
		http.Error(w, "unknown content kind", http.StatusBadRequest)
		return
	}
	q.Page, _ = strconv.Atoi(query.Get("page"))
	q.Limit, _ = strconv.Atoi(query.Get("limit"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	s.stream(r.Context(), w, flusher, "content", map[string]string{"kind": q.Kind}, func(ctx context.Context) (any, error) {
		items, err := s.content.load(ctx, q)
		if err != nil {
			s.logger.Warn("failed to load content", zap.String("kind", q.Kind), zap.Error(err))
			return nil, errors.New(LoadErrorMessage(q.Kind))
		}
		return items, nil
	})
}

// HandleRegisterSSE registers for an event and streams the outcome. Successful
// registrations are broadcast to all subscribers.
func (s *MCPSSEServer) HandleRegisterSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var request struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.EventID) == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	s.stream(r.Context(), w, flusher, "register", map[string]string{"eventID": request.EventID}, func(ctx context.Context) (any, error) {
		registration, err := s.content.register(ctx, request.EventID)
		if err != nil {
			s.logger.Info("registration failed", zap.String("eventID", request.EventID), zap.Error(err))
			return nil, errors.New(RegistrationErrorMessage(err))
		}
		s.Broadcast("registration", map[string]string{"eventID": registration.EventID})
		return registration, nil
	})
}

// stream writes <prefix>_start, then <prefix>_result or <prefix>_error, then
// <prefix>_complete.
func (s *MCPSSEServer) stream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, prefix string, start any, run func(ctx context.Context) (any, error)) {
	if err := writeEvent(w, flusher, newSSEEvent(prefix+"_start", start)); err != nil {
		s.logger.Debug("failed to send start event", zap.Error(err))
		return
	}

	result, err := run(ctx)
	if err != nil {
		_ = writeEvent(w, flusher, newSSEEvent(prefix+"_error", map[string]string{"error": err.Error()}))
		return
	}
	if err := writeEvent(w, flusher, newSSEEvent(prefix+"_result", result)); err != nil {
		s.logger.Debug("failed to send result event", zap.Error(err))
		return
	}
	_ = writeEvent(w, flusher, newSSEEvent(prefix+"_complete", map[string]string{"status": "completed"}))
}

// GetConnectedClients returns information about connected clients
func (s *MCPSSEServer) GetConnectedClients() []map[string]any {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	clients := make([]map[string]any, 0, len(s.clients))
	for _, client := range s.clients {
		lastSeen := client.LastSeen()
		clients = append(clients, map[string]any{
			"id":          client.ID,
			"connectedAt": client.connected,
			"lastSeen":    lastSeen,
			"connected":   time.Since(lastSeen) < s.config.ClientTimeout,
		})
	}
	return clients
}

// GetStats returns server statistics
func (s *MCPSSEServer) GetStats() map[string]any {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	return map[string]any{
		"connectedClients": len(s.clients),
		"bufferSize":       len(s.broadcast),
		"serverVersion":    Version,
	}
}
