package connections

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/pkg/logger"
)

const sendBuffer = 16

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// TimeoutsFromConfig takes the websocket timeouts of the bridge configuration
func TimeoutsFromConfig(cfg config.BridgeConfig) TimeoutConfig {
	return TimeoutConfig{
		PongWait:   cfg.PongWait,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
	}
}

// Client is one subscribed widget. Writes go through Send so only the write
// pump touches the connection.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// Send queues payload without blocking and reports false once the client is closed.
// When the queue is full the oldest queued payload is dropped, so a slow client
// still ends up with the latest update.
func (c *Client) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	for {
		select {
		case c.send <- payload:
			return true
		default:
		}

		select {
		case <-c.send:
			logger.Warn(logger.BRIDGE, "Client %s is slow, dropping its oldest queued update", c.ID)
		default:
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump drains the send queue into the connection and keeps it alive with pings.
// It returns when the queue is closed or a write fails.
func (c *Client) WritePump(timeouts TimeoutConfig) {
	ticker := time.NewTicker(timeouts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug(logger.BRIDGE, "Write to client %s failed: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Manager handles WebSocket connection lifecycle
type Manager struct {
	clients  sync.Map
	timeouts TimeoutConfig
}

// NewManager creates a new connection manager with the specified timeouts
func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		timeouts: timeouts,
	}
}

func (m *Manager) AddClient(c *Client) {
	m.clients.Store(c.ID, c)
	logger.Debug(logger.BRIDGE, "Client %s connected", c.ID)
}

// RemoveClient forgets the client and closes its send queue, which stops its write pump
func (m *Manager) RemoveClient(id string) {
	if value, ok := m.clients.LoadAndDelete(id); ok {
		value.(*Client).close()
		logger.Debug(logger.BRIDGE, "Client %s disconnected", id)
	}
}

func (m *Manager) HasClient(id string) bool {
	_, exists := m.clients.Load(id)
	return exists
}

// GetConnectionCount returns the current number of active connections
func (m *Manager) GetConnectionCount() int {
	count := 0
	m.clients.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// Broadcast queues payload for every client and returns how many accepted it
func (m *Manager) Broadcast(payload []byte) int {
	delivered := 0
	m.clients.Range(func(key, value interface{}) bool {
		if value.(*Client).Send(payload) {
			delivered++
		}
		return true
	})
	return delivered
}

// CloseAll disconnects every client
func (m *Manager) CloseAll() {
	m.clients.Range(func(key, value interface{}) bool {
		m.RemoveClient(key.(string))
		return true
	})
}

// GetTimeouts returns the timeout configuration, fixed at construction
func (m *Manager) GetTimeouts() TimeoutConfig {
	return m.timeouts
}
