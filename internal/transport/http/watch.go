package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/service/game"
)

// SpectatorCounter reports how many sockets watch a game.
type SpectatorCounter interface {
	Count(gameID string) int
}

type WatchHandler struct {
	SessionManager *game.SessionManager
	Sockets        SpectatorCounter
}

func NewWatchHandler(sm *game.SessionManager, sockets SpectatorCounter) *WatchHandler {
	return &WatchHandler{SessionManager: sm, Sockets: sockets}
}

type liveGameResponse struct {
	game.Summary
	Connections int `json:"connections"`
}

// GetLiveGames returns all live sessions available for spectating
func (h *WatchHandler) GetLiveGames(c *gin.Context) {
	sessions := h.SessionManager.ListSessions()

	response := make([]liveGameResponse, 0, len(sessions))
	for _, s := range sessions {
		item := liveGameResponse{Summary: s}
		if h.Sockets != nil {
			item.Connections = h.Sockets.Count(s.ID)
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}
