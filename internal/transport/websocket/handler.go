package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/game"
	"github.com/iamasit07/connect4-arena/pkg/auth"
	"github.com/rs/zerolog/log"
)

// Handler manages WebSocket dependencies
type Handler struct {
	ConnManager    *ConnectionManager
	SessionManager *game.SessionManager
	Upgrader       websocket.Upgrader
}

// NewHandler accepts sockets from allowedOrigins. Requests without an
// Origin header are always accepted.
func NewHandler(cm *ConnectionManager, sm *game.SessionManager, allowedOrigins []string) *Handler {
	return &Handler{
		ConnManager:    cm,
		SessionManager: sm,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket is the HTTP handler that upgrades the connection
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("upgrade error")
		return
	}

	h.handleConnection(conn)
}

func writeError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(domain.ServerMessage{Type: "error", Message: message})
}

// handleConnection manages the lifecycle of a single WebSocket connection
func (h *Handler) handleConnection(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 1. The first message binds the socket to a seat or to spectating.
	var first domain.ClientMessage
	if err := conn.ReadJSON(&first); err != nil {
		log.Debug().Str("component", "ws").Err(err).Msg("read error during init")
		conn.Close()
		return
	}

	session, player, err := h.bind(first)
	if err != nil {
		log.Info().Str("component", "ws").Str("type", first.Type).Err(err).Msg("rejected connection")
		writeError(conn, err.Error())
		conn.Close()
		return
	}

	client := newClient(conn, session.ID, player)
	h.ConnManager.Attach(client)
	go client.writePump()

	logger := log.With().Str("component", "ws").Str("game_id", session.ID).Stringer("player", player).Logger()
	logger.Info().Bool("spectator", client.IsSpectator()).Msg("connection initialized")

	snap := session.Snapshot()
	h.ConnManager.SendMessage(client, domain.ServerMessage{
		Type:       "joined",
		GameID:     session.ID,
		YourPlayer: player,
		Player:     snap.CurrentPlayer,
		Snapshot:   &snap,
	})

	// 2. Cleanup on exit
	defer func() {
		h.ConnManager.Detach(client)
		logger.Info().Msg("connection closed")
	}()

	// 3. Main Message Loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("disconnected unexpectedly")
			}
			return
		}

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.ConnManager.SendMessage(client, domain.ServerMessage{Type: "error", Message: "invalid message format"})
			continue
		}

		if err := h.processMessage(client, msg); err != nil {
			h.ConnManager.SendMessage(client, domain.ServerMessage{Type: "error", GameID: client.gameID, Message: err.Error()})
		}
	}
}

// bind resolves the init message to a live session and the seat it grants.
func (h *Handler) bind(msg domain.ClientMessage) (*game.Session, domain.PlayerID, error) {
	switch msg.Type {
	case "init":
		claims, err := auth.ValidateSeatToken(msg.Token)
		if err != nil {
			return nil, domain.Empty, errors.New("invalid or expired seat token")
		}
		session, ok := h.SessionManager.GetSession(claims.GameID)
		if !ok {
			return nil, domain.Empty, domain.ErrGameNotFound
		}
		return session, claims.Player, nil

	case "watch":
		session, ok := h.SessionManager.GetSession(msg.GameID)
		if !ok {
			return nil, domain.Empty, domain.ErrGameNotFound
		}
		return session, domain.Empty, nil
	}
	return nil, domain.Empty, errors.New("expected init or watch")
}

// processMessage routes specific actions
func (h *Handler) processMessage(c *Client, msg domain.ClientMessage) error {
	if c.IsSpectator() {
		return errors.New("spectators cannot play")
	}
	session, ok := h.SessionManager.GetSession(c.gameID)
	if !ok {
		return domain.ErrGameNotFound
	}

	switch msg.Type {
	case "make_move":
		_, err := session.SubmitHumanMove(c.player, msg.Column)
		return err

	case "takeback":
		_, err := session.Takeback(c.player)
		return err

	case "reset":
		if !session.Seat(c.player).IsHuman() {
			return domain.ErrNotHumanSeat
		}
		return session.Reset()
	}
	return errors.New("unknown message type " + msg.Type)
}
