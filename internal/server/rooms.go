package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// Room is the set of connections participating in one hand. The relay
// never interprets the frames it forwards; a room is pure fan-out plus
// a backlog so late joiners see the hand from the start.
type Room struct {
	id uint64

	mu      sync.Mutex
	members map[int]*Connection
	backlog [][]byte
	expire  *quartz.Timer
	gone    bool
}

func (r *Room) join(seat int, c *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gone {
		return fmt.Errorf("hand %d has expired", r.id)
	}
	if _, ok := r.members[seat]; ok {
		return fmt.Errorf("seat %d already taken in hand %d", seat, r.id)
	}
	r.members[seat] = c

	// replay everything the hand has seen so far
	for _, frame := range r.backlog {
		c.Send(frame)
	}
	return nil
}

func (r *Room) leave(seat int, c *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.members[seat] != c {
		return false
	}
	delete(r.members, seat)
	return len(r.members) == 0
}

func (r *Room) broadcast(fromSeat int, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backlog = append(r.backlog, frame)
	for seat, c := range r.members {
		if seat == fromSeat {
			continue
		}
		c.Send(frame)
	}
}

func (r *Room) close() {
	r.mu.Lock()
	members := make([]*Connection, 0, len(r.members))
	for _, c := range r.members {
		members = append(members, c)
	}
	r.members = map[int]*Connection{}
	r.gone = true
	r.mu.Unlock()

	for _, c := range members {
		_ = c.Close()
	}
}

// HandManager tracks the active hands and their rooms. Hands that are
// never torn down by their participants are evicted after the expiry
// period on the injected clock.
type HandManager struct {
	logger   zerolog.Logger
	clock    quartz.Clock
	expiry   time.Duration
	maxHands int

	mu    sync.Mutex
	rooms map[uint64]*Room
}

// NewHandManager constructs an empty hand manager. A nil clock uses the
// real clock; tests inject quartz.NewMock.
func NewHandManager(logger zerolog.Logger, clock quartz.Clock, expiry time.Duration, maxHands int) *HandManager {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &HandManager{
		logger:   logger.With().Str("component", "hand_manager").Logger(),
		clock:    clock,
		expiry:   expiry,
		maxHands: maxHands,
		rooms:    make(map[uint64]*Room),
	}
}

// Join places a connection at a seat of the hand's room, creating the
// room on first join.
func (m *HandManager) Join(handID uint64, seat int, c *Connection) (*Room, error) {
	m.mu.Lock()
	room, ok := m.rooms[handID]
	if !ok {
		if m.maxHands > 0 && len(m.rooms) >= m.maxHands {
			m.mu.Unlock()
			return nil, fmt.Errorf("hand limit reached (%d)", m.maxHands)
		}
		room = &Room{id: handID, members: make(map[int]*Connection)}
		if m.expiry > 0 {
			room.expire = m.clock.AfterFunc(m.expiry, func() {
				m.expireHand(handID)
			})
		}
		m.rooms[handID] = room
		m.logger.Info().Uint64("hand_id", handID).Msg("hand opened")
	}
	m.mu.Unlock()

	if err := room.join(seat, c); err != nil {
		return nil, err
	}
	m.logger.Debug().Uint64("hand_id", handID).Int("seat", seat).Msg("participant joined")
	return room, nil
}

// Leave removes a connection from its room, tearing the room down when
// the last member is gone.
func (m *HandManager) Leave(handID uint64, seat int, c *Connection) {
	m.mu.Lock()
	room, ok := m.rooms[handID]
	m.mu.Unlock()
	if !ok {
		return
	}

	if empty := room.leave(seat, c); empty {
		m.remove(handID)
	}
}

// HandCount returns the number of open hands.
func (m *HandManager) HandCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func (m *HandManager) expireHand(handID uint64) {
	m.mu.Lock()
	room, ok := m.rooms[handID]
	if ok {
		delete(m.rooms, handID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.logger.Warn().Uint64("hand_id", handID).Msg("hand expired, evicting")
	room.close()
}

func (m *HandManager) remove(handID uint64) {
	m.mu.Lock()
	room, ok := m.rooms[handID]
	if ok {
		delete(m.rooms, handID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if room.expire != nil {
		room.expire.Stop()
	}
	m.logger.Info().Uint64("hand_id", handID).Msg("hand closed")
}

// Close tears down every room.
func (m *HandManager) Close() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.rooms = make(map[uint64]*Room)
	m.mu.Unlock()

	for _, r := range rooms {
		if r.expire != nil {
			r.expire.Stop()
		}
		r.close()
	}
}
