// Package posestream pushes vehicle and camera poses to websocket clients so an
// external renderer can draw the scene.
package posestream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendChSize = 8
	writeWait  = 2 * time.Second
)

// Pose is a position and a quaternion (x, y, z, w)
type Pose struct {
	Position   [3]float64 `json:"position"`
	Quaternion [4]float64 `json:"quaternion"`
}

// Camera is the camera position and look-at target
type Camera struct {
	Position [3]float64 `json:"position"`
	LookAt   [3]float64 `json:"lookAt"`
}

// Frame is one rendered frame's worth of poses
type Frame struct {
	Tick     uint64  `json:"tick"`
	Chassis  Pose    `json:"chassis"`
	Wheels   []Pose  `json:"wheels"`
	Camera   Camera  `json:"camera"`
	SpeedKmh float64 `json:"speedKmh"`
	Braking  bool    `json:"braking"`
}

type client struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
}

// Hub fans frames out to every connected client. Slow clients miss frames
// rather than stalling the game loop.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	closed   bool
	upgrader ws.Upgrader
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// NewHub creates an empty hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: ws.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "posestream").Logger(),
	}
}

// ServeHTTP upgrades the request and registers the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.wg.Add(2)
	h.mu.Unlock()

	h.logger.Info().Str("remote", r.RemoteAddr).Msg("pose client connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

// writeLoop is the only goroutine writing to c.conn
func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer h.drop(c)
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				h.logger.Debug().Err(err).Msg("pose client write failed")
				return
			}
		}
	}
}

// readLoop discards incoming messages and notices disconnects
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish encodes f once and queues it for every client without blocking
func (h *Hub) Publish(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.sendCh <- data:
		default:
		}
	}
	return nil
}

// Close disconnects every client and waits for their goroutines
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.done)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
