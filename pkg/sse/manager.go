// Package sse fans server events out to connected admin dashboards.
package sse

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	clientBuffer      = 16
	heartbeatInterval = 30 * time.Second
)

// Event is a named server-sent event
type Event struct {
	Name string
	Data interface{}
}

type client struct {
	userID string
	events chan Event
}

type delivery struct {
	userID string // empty means every client
	event  Event
}

// Manager tracks connected clients. Run must be running for events to be delivered.
type Manager struct {
	register   chan *client
	unregister chan *client
	deliveries chan delivery
	done       chan struct{}
	clients    map[*client]struct{}
	count      atomic.Int64
	logger     *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		register:   make(chan *client),
		unregister: make(chan *client),
		deliveries: make(chan delivery),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		logger:     logger.Named("sse"),
	}
}

// Run distributes events until ctx is done, then disconnects every client
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			for cl := range m.clients {
				close(cl.events)
				delete(m.clients, cl)
			}
			m.count.Store(0)
			return

		case cl := <-m.register:
			m.clients[cl] = struct{}{}
			m.count.Store(int64(len(m.clients)))
			m.logger.Debug("client connected", zap.String("user_id", cl.userID), zap.Int("clients", len(m.clients)))

		case cl := <-m.unregister:
			if _, ok := m.clients[cl]; ok {
				close(cl.events)
				delete(m.clients, cl)
			}
			m.count.Store(int64(len(m.clients)))

		case d := <-m.deliveries:
			for cl := range m.clients {
				if d.userID != "" && cl.userID != d.userID {
					continue
				}
				select {
				case cl.events <- d.event:
				default:
					m.logger.Warn("client too slow, dropping event", zap.String("event", d.event.Name), zap.String("user_id", cl.userID))
				}
			}
		}
	}
}

// Broadcast sends an event to every connected client
func (m *Manager) Broadcast(name string, data interface{}) {
	m.deliver(delivery{event: Event{Name: name, Data: data}})
}

// SendToUser sends an event to the clients of a single user
func (m *Manager) SendToUser(userID, name string, data interface{}) {
	m.deliver(delivery{userID: userID, event: Event{Name: name, Data: data}})
}

// Clients returns the number of connected clients
func (m *Manager) Clients() int {
	return int(m.count.Load())
}

func (m *Manager) deliver(d delivery) {
	select {
	case m.deliveries <- d:
	case <-m.done:
	}
}

// ServeHTTP streams events to the requesting client until it disconnects or the
// manager stops
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	cl := &client{userID: userID, events: make(chan Event, clientBuffer)}
	select {
	case m.register <- cl:
	case <-m.done:
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-cl.events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})

	select {
	case m.unregister <- cl:
	case <-m.done:
	}
}
