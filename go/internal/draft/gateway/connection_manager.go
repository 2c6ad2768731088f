package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/rs/zerolog/log"
)

// ConnectionManager holds the per-draft rooms and fans frames out to them.
type ConnectionManager struct {
	rooms map[uuid.UUID]map[*Connection]struct{}
	conns map[*Connection]struct{}
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	metrics  metrics.Collector

	broadcastCh chan events.Event

	// presence reports a team arriving or leaving a room. It is never called
	// with mu held.
	presence func(draftID, teamID uuid.UUID, status state.ConnectionStatus)
}

// Connection is one authenticated socket.
type Connection struct {
	ID          string
	UserID      uuid.UUID
	ConnectedAt time.Time

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	manager *ConnectionManager
	once    sync.Once

	mu      sync.Mutex
	draftID uuid.UUID
	teamID  uuid.UUID
}

// ConnectionConfig holds socket limits and timeouts.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	RequestTimeout  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		RequestTimeout:  5 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		BroadcastBuffer: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a manager. Call Start to begin fan-out.
func NewConnectionManager(config ConnectionConfig, m metrics.Collector) *ConnectionManager {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &ConnectionManager{
		rooms: make(map[uuid.UUID]map[*Connection]struct{}),
		conns: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		metrics:     m,
		broadcastCh: make(chan events.Event, config.BroadcastBuffer),
		presence:    func(uuid.UUID, uuid.UUID, state.ConnectionStatus) {},
	}
}

// Start processes broadcasts until ctx is done, then closes every socket.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("connection manager shutting down")
			return
		case evt := <-cm.broadcastCh:
			cm.handleBroadcast(evt)
		}
	}
}

// Upgrade upgrades r and starts the socket's pumps. open, when set, runs on the
// read goroutine before the first message; handle is then called for each
// inbound message on the same goroutine.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, userID uuid.UUID, open func(c *Connection), handle func(c *Connection, msg []byte)) (*Connection, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        ws,
		send:        make(chan []byte, cm.config.SendBuffer),
		done:        make(chan struct{}),
		manager:     cm,
	}

	cm.mu.Lock()
	cm.conns[c] = struct{}{}
	cm.mu.Unlock()
	cm.metrics.ConnectionOpened()

	go c.writePump()
	go c.readPump(open, handle)

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", userID.String()).
		Msg("websocket connection established")
	return c, nil
}

// Broadcast queues evt for its draft's room. It never blocks.
func (cm *ConnectionManager) Broadcast(evt events.Event) {
	select {
	case cm.broadcastCh <- evt:
	default:
		log.Warn().
			Str("draft_id", evt.DraftID.String()).
			Str("event_type", string(evt.Type)).
			Msg("broadcast channel full, dropping event")
	}
}

// join moves c into draftID's room as teamID. teamID is Nil for spectators.
// Leaving the previous room and entering the new one happen under one lock, so
// concurrent joins leave c in exactly one room.
func (cm *ConnectionManager) join(c *Connection, draftID, teamID uuid.UUID) {
	cm.mu.Lock()
	if _, ok := cm.conns[c]; !ok {
		cm.mu.Unlock()
		return
	}
	if d, t := c.joined(); d == draftID && t == teamID {
		cm.mu.Unlock()
		return
	}
	prevDraft, prevTeam, left := cm.leaveLocked(c)

	room := cm.rooms[draftID]
	if room == nil {
		room = make(map[*Connection]struct{})
		cm.rooms[draftID] = room
	}
	room[c] = struct{}{}
	c.setDraft(draftID, teamID)
	cm.mu.Unlock()

	if left {
		cm.presence(prevDraft, prevTeam, state.Disconnected)
	}
	if teamID != uuid.Nil {
		cm.presence(draftID, teamID, state.Connected)
	}
	log.Debug().
		Str("connection_id", c.ID).
		Str("draft_id", draftID.String()).
		Str("team_id", teamID.String()).
		Msg("connection joined draft room")
}

// leave removes c from its room. When c was the team's last socket in the room
// the team is reported disconnected.
func (cm *ConnectionManager) leave(c *Connection) {
	cm.mu.Lock()
	draftID, teamID, left := cm.leaveLocked(c)
	cm.mu.Unlock()

	if left {
		cm.presence(draftID, teamID, state.Disconnected)
	}
}

// leaveLocked removes c from its room and reports whether that took the
// team's last socket out of it. cm.mu must be held.
func (cm *ConnectionManager) leaveLocked(c *Connection) (uuid.UUID, uuid.UUID, bool) {
	draftID, teamID := c.joined()
	room, ok := cm.rooms[draftID]
	if !ok {
		return draftID, teamID, false
	}
	delete(room, c)
	c.setDraft(uuid.Nil, uuid.Nil)
	if len(room) == 0 {
		delete(cm.rooms, draftID)
	}
	if teamID == uuid.Nil {
		return draftID, teamID, false
	}
	for other := range room {
		if _, t := other.joined(); t == teamID {
			return draftID, teamID, false
		}
	}
	return draftID, teamID, true
}

// unregister forgets c entirely and stops its pumps.
func (cm *ConnectionManager) unregister(c *Connection) {
	cm.mu.Lock()
	_, ok := cm.conns[c]
	delete(cm.conns, c)
	cm.mu.Unlock()
	if !ok {
		return
	}

	cm.leave(c)
	c.close()
	cm.metrics.ConnectionClosed()
	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", c.UserID.String()).
		Msg("connection unregistered")
}

// closeRoom drops a finished draft's room. Sockets stay open and may join
// another draft.
func (cm *ConnectionManager) closeRoom(draftID uuid.UUID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for c := range cm.rooms[draftID] {
		c.setDraft(uuid.Nil, uuid.Nil)
	}
	delete(cm.rooms, draftID)
	log.Debug().Str("draft_id", draftID.String()).Msg("draft room closed")
}

func (cm *ConnectionManager) handleBroadcast(evt events.Event) {
	cm.mu.RLock()
	room := cm.rooms[evt.DraftID]
	targets := make([]*Connection, 0, len(room))
	for c := range room {
		targets = append(targets, c)
	}
	cm.mu.RUnlock()

	if len(targets) > 0 {
		data, err := json.Marshal(eventFrame(evt))
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal event for broadcast")
			return
		}
		for _, c := range targets {
			if !c.enqueue(data) {
				log.Warn().
					Str("connection_id", c.ID).
					Str("user_id", c.UserID.String()).
					Msg("connection send buffer full, closing connection")
				go cm.unregister(c)
			}
		}
	}

	if evt.Type == events.EventTypeDraftCompleted {
		cm.closeRoom(evt.DraftID)
	}

	log.Debug().
		Str("event_type", string(evt.Type)).
		Str("draft_id", evt.DraftID.String()).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	all := make([]*Connection, 0, len(cm.conns))
	for c := range cm.conns {
		all = append(all, c)
	}
	cm.mu.RUnlock()
	for _, c := range all {
		cm.unregister(c)
	}
}

// Stats summarizes the live rooms.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

// Stats returns connection counts.
func (cm *ConnectionManager) Stats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	st := Stats{
		TotalConnections: len(cm.conns),
		ActiveRooms:      len(cm.rooms),
		RoomConnections:  make(map[string]int, len(cm.rooms)),
	}
	for draftID, room := range cm.rooms {
		st.RoomConnections[draftID.String()] = len(room)
	}
	return st
}

// RoomSize returns the number of sockets joined to draftID.
func (cm *ConnectionManager) RoomSize(draftID uuid.UUID) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.rooms[draftID])
}

func (c *Connection) joined() (uuid.UUID, uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftID, c.teamID
}

func (c *Connection) setDraft(draftID, teamID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draftID, c.teamID = draftID, teamID
}

// enqueue reports false when the socket is closed or too slow.
func (c *Connection) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// reply sends a frame to this socket only.
func (c *Connection) reply(out Outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal reply")
		return
	}
	if !c.enqueue(data) {
		log.Warn().Str("connection_id", c.ID).Msg("dropping reply for closed or slow connection")
	}
}

func (c *Connection) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to websocket")
				go c.manager.unregister(c)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				go c.manager.unregister(c)
				return
			}
		}
	}
}

func (c *Connection) readPump(open func(c *Connection), handle func(c *Connection, msg []byte)) {
	defer c.manager.unregister(c)

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	if open != nil {
		open(c)
	}
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close error")
			}
			return
		}
		handle(c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
