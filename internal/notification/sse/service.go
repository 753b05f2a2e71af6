// Package sse streams outreach events to the operator's open dashboard over Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	// EventOpenTarget asks the dashboard to open a lead's profile. It is the paced run's action.
	EventOpenTarget       EventType = "open_target"
	EventRunProgress      EventType = "run_progress"
	EventLeadsRefreshed   EventType = "leads_refreshed"
	EventBatchWriteFailed EventType = "batch_write_failed"
)

const heartbeatInterval = 25 * time.Second

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	LeadID  int64       `json:"leadId,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	sessionID uuid.UUID
	events    chan Event
}

// Service manages SSE connections per operator session.
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.sessionID] = append(s.clients[c.sessionID], c)
}

// removeClient unregisters a connection and closes its channel if Close has not done so already.
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.sessionID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.sessionID] = append(clients[:i], clients[i+1:]...)
			if len(s.clients[c.sessionID]) == 0 {
				delete(s.clients, c.sessionID)
			}
			close(c.events)
			return
		}
	}
}

// Publish sends an event to every stream of one session without blocking.
func (s *Service) Publish(sessionID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := s.clients[sessionID]
	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, dropping event", "session_id", sessionID, "type", event.Type)
		}
	}
	s.log.Debug("sse event published", "session_id", sessionID, "type", event.Type, "clients", len(clients))
}

// Connected returns the number of open streams for a session.
func (s *Service) Connected(sessionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[sessionID])
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getSessionID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := getSessionID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			sessionID: sessionID,
			events:    make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"sessionId": sessionID})
		c.Writer.Flush()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case <-heartbeat.C:
				c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
				c.Writer.Flush()
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Disconnect ends every stream of one session.
func (s *Service) Disconnect(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients[sessionID] {
		close(c.events)
	}
	delete(s.clients, sessionID)
}

// Close shuts down the SSE service
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
