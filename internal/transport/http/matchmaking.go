package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/service/matchmaking"
)

type MatchmakingHandler struct {
	Queue *matchmaking.Queue
}

func NewMatchmakingHandler(q *matchmaking.Queue) *MatchmakingHandler {
	return &MatchmakingHandler{Queue: q}
}

type joinQueueRequest struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"` // bot used if nobody else shows up
}

func (h *MatchmakingHandler) JoinQueue(c *gin.Context) {
	var req joinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticket := h.Queue.Enqueue(req.Name, req.Difficulty)
	c.JSON(http.StatusAccepted, gin.H{"ticket": ticket})
}

// PollTicket answers {"status":"waiting"} until the ticket is matched.
func (h *MatchmakingHandler) PollTicket(c *gin.Context) {
	a, err := h.Queue.Status(c.Param("ticket"))
	if err != nil {
		respondError(c, err)
		return
	}
	if a == nil {
		c.JSON(http.StatusOK, gin.H{"status": "waiting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "matched", "gameId": a.GameID, "player": a.Player, "token": a.Token})
}

func (h *MatchmakingHandler) LeaveQueue(c *gin.Context) {
	if err := h.Queue.Cancel(c.Param("ticket")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
