package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/game"
)

type HistoryHandler struct {
	Service *game.Service
}

func NewHistoryHandler(svc *game.Service) *HistoryHandler {
	return &HistoryHandler{Service: svc}
}

// Map to frontend expectation
type gameHistoryItem struct {
	ID         string      `json:"id"`
	Player1    domain.Seat `json:"player1"`
	Player2    domain.Seat `json:"player2"`
	Result     string      `json:"result"` // "player1", "player2", "draw"
	MovesCount int         `json:"movesCount"`
	Duration   int         `json:"durationSeconds"`
	FinishedAt time.Time   `json:"finishedAt"`
}

func resultLabel(rec domain.GameRecord) string {
	switch rec.Winner {
	case domain.Player1:
		return "player1"
	case domain.Player2:
		return "player2"
	}
	return "draw"
}

// GetHistory lists archived games, newest first. Supports ?limit= and ?offset=.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	records, err := h.Service.History(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	history := make([]gameHistoryItem, 0, len(records))
	for _, rec := range records {
		history = append(history, gameHistoryItem{
			ID:         rec.ID,
			Player1:    rec.Player1,
			Player2:    rec.Player2,
			Result:     resultLabel(rec),
			MovesCount: rec.TotalMoves,
			Duration:   rec.Duration,
			FinishedAt: rec.FinishedAt,
		})
	}

	c.JSON(http.StatusOK, history)
}

// GetGameDetails returns one archived game with its replayed final position.
func (h *HistoryHandler) GetGameDetails(c *gin.Context) {
	archived, err := h.Service.HistoryGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, archived)
}
