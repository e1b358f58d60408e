package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/fairdeck/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; a 52-card hand_start with
	// hex digests fits comfortably
	maxMessageSize = 64 * 1024
)

// Connection represents one participant's websocket connection to the
// relay. The first frame must be a join; everything after it is fanned
// out to the other members of the hand.
type Connection struct {
	conn      *websocket.Conn
	send      chan []byte
	logger    *log.Logger
	server    *Server
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.Mutex
	room   *Room
	handID uint64
	seat   int
	joined bool
}

// NewConnection creates a new connection wrapper.
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan []byte, 64),
		logger: logger.WithPrefix("conn"),
		server: server,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection and leaves the room.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()

		c.mu.Lock()
		room, handID, seat, joined := c.room, c.handID, c.seat, c.joined
		c.mu.Unlock()
		if joined && room != nil {
			c.server.manager.Leave(handID, seat, c)
		}
	})
	return err
}

// Send queues a frame for delivery, dropping the connection when the
// buffer is full so one slow reader cannot stall a hand.
func (c *Connection) Send(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- frame:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("send buffer full, closing connection")
		// Close re-enters the room lock via Leave, and Send may run
		// under it during a broadcast
		go func() { _ = c.Close() }()
	}
}

func (c *Connection) sendError(code, msg string) {
	frame, err := protocol.Marshal(&protocol.Error{Code: code, Message: msg})
	if err != nil {
		return
	}
	c.Send(frame)
}

// readPump handles incoming frames from the participant.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}

		c.handleFrame(raw)
	}
}

// handleFrame routes one incoming frame: a join binds the connection to
// a room, anything else is forwarded verbatim.
func (c *Connection) handleFrame(raw []byte) {
	c.mu.Lock()
	joined := c.joined
	room := c.room
	seat := c.seat
	c.mu.Unlock()

	if joined {
		room.broadcast(seat, raw)
		return
	}

	t, v, err := protocol.Unmarshal(raw)
	if err != nil {
		c.sendError("bad_frame", err.Error())
		return
	}
	join, ok := v.(*protocol.Join)
	if !ok {
		c.sendError("join_required", "first frame must be a join, got "+string(t))
		return
	}

	// on failure the connection stays open so the error frame drains;
	// the participant closes its end after reading it
	r, err := c.server.manager.Join(join.HandID, join.Seat, c)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	c.mu.Lock()
	c.room = r
	c.handID = join.HandID
	c.seat = join.Seat
	c.joined = true
	c.mu.Unlock()

	c.logger.Debug("joined hand", "hand_id", join.HandID, "seat", join.Seat, "nickname", join.Nickname)
}

// writePump handles outgoing frames to the participant.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}
