package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 64
)

// Client is one socket attached to a game, either seated or watching.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	player domain.PlayerID // Empty for spectators

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, gameID string, player domain.PlayerID) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: gameID,
		player: player,
	}
}

func (c *Client) IsSpectator() bool { return c.player == domain.Empty }

// enqueue never blocks: a client that cannot keep up loses messages rather
// than stalling the game that is broadcasting.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		log.Warn().Str("component", "ws").Str("game_id", c.gameID).Msg("send buffer full, dropping message")
		return false
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

// writePump owns all writes to the socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ConnectionManager tracks the sockets of every game and fans session
// events out to them. It implements game.Notifier.
type ConnectionManager struct {
	games map[string]map[*Client]struct{}
	mu    sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{games: make(map[string]map[*Client]struct{})}
}

func (cm *ConnectionManager) Attach(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	clients, ok := cm.games[c.gameID]
	if !ok {
		clients = make(map[*Client]struct{})
		cm.games[c.gameID] = clients
	}
	clients[c] = struct{}{}
}

// Detach removes c and closes its send queue.
func (cm *ConnectionManager) Detach(c *Client) {
	cm.mu.Lock()
	if clients, ok := cm.games[c.gameID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(cm.games, c.gameID)
		}
	}
	cm.mu.Unlock()
	c.close()
}

// Count is the number of sockets attached to gameID.
func (cm *ConnectionManager) Count(gameID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.games[gameID])
}

// SendMessage sends a JSON message to a single client
func (cm *ConnectionManager) SendMessage(c *Client, message domain.ServerMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

// Broadcast sends message to every socket attached to gameID.
func (cm *ConnectionManager) Broadcast(gameID string, message domain.ServerMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Str("component", "ws").Err(err).Msg("marshal broadcast")
		return
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for c := range cm.games[gameID] {
		c.enqueue(data)
	}
}

func (cm *ConnectionManager) TurnRequested(gameID string, player domain.PlayerID, snap domain.Snapshot) {
	cm.Broadcast(gameID, domain.ServerMessage{
		Type:     "turn_requested",
		GameID:   gameID,
		Player:   player,
		Snapshot: &snap,
	})
}

func (cm *ConnectionManager) MoveCompleted(gameID string, move domain.Move, snap domain.Snapshot) {
	cm.Broadcast(gameID, domain.ServerMessage{
		Type:     "move_completed",
		GameID:   gameID,
		Player:   move.Player,
		Move:     &move,
		Snapshot: &snap,
	})
}

func (cm *ConnectionManager) GameOver(gameID string, result domain.GameResult, snap domain.Snapshot) {
	cm.Broadcast(gameID, domain.ServerMessage{
		Type:     "game_over",
		GameID:   gameID,
		Player:   result.Winner,
		Result:   &result,
		Snapshot: &snap,
	})
}
