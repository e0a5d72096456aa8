package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/game"
	"github.com/iamasit07/connect4-arena/internal/transport/http/middleware"
	"github.com/iamasit07/connect4-arena/pkg/auth"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	defaultAnalyzeTimeout = 10 * time.Second
	defaultMaxAnalyses    = 2
)

type GameHandler struct {
	Service        *game.Service
	AnalyzeTimeout time.Duration

	// analyses bounds concurrent /analyze searches across all requests.
	analyses *semaphore.Weighted
}

func NewGameHandler(svc *game.Service, maxAnalyses int) *GameHandler {
	if maxAnalyses <= 0 {
		maxAnalyses = defaultMaxAnalyses
	}
	return &GameHandler{
		Service:        svc,
		AnalyzeTimeout: defaultAnalyzeTimeout,
		analyses:       semaphore.NewWeighted(int64(maxAnalyses)),
	}
}

type createGameRequest struct {
	Player1  domain.Seat     `json:"player1"`
	Player2  domain.Seat     `json:"player2"`
	Password string          `json:"password"`
	OpenSeat domain.PlayerID `json:"openSeat,omitempty"` // human seat left for /join
}

type createGameResponse struct {
	GameID   string            `json:"gameId"`
	Seats    map[string]string `json:"seats"`
	Snapshot domain.Snapshot   `json:"snapshot"`
}

type joinGameRequest struct {
	Player   domain.PlayerID `json:"player"`
	Password string          `json:"password"`
}

type moveRequest struct {
	Column int `json:"column"`
}

type analyzeRequest struct {
	Columns    []int  `json:"columns"`
	Difficulty string `json:"difficulty"`
}

// statusFor maps game errors onto HTTP status codes.
func statusFor(err error) int {
	var de domain.Error
	if !errors.As(err, &de) {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}
	switch de {
	case domain.ErrGameNotFound, domain.ErrNoTicket:
		return http.StatusNotFound
	case domain.ErrNotYourTurn, domain.ErrSearchPending, domain.ErrGameOver, domain.ErrSeatTaken:
		return http.StatusConflict
	case domain.ErrNotHumanSeat:
		return http.StatusForbidden
	case domain.ErrWrongPassword:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Str("component", "http").Str("path", c.FullPath()).Err(err).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// CreateGame starts a new session and issues seat tokens for its human seats.
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var hash string
	if req.Password != "" {
		if err := auth.ValidateGamePassword(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var err error
		if hash, err = auth.HashPassword(req.Password); err != nil {
			respondError(c, err)
			return
		}
	}

	session, err := h.Service.Sessions.CreateSession(req.Player1, req.Player2, hash)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.OpenSeat != domain.Empty && (!req.OpenSeat.Valid() || !session.Seat(req.OpenSeat).IsHuman()) {
		h.Service.Sessions.RemoveSession(session.ID)
		respondError(c, domain.ErrInvalidSeat)
		return
	}

	seats := make(map[string]string, 2)
	for _, p := range []domain.PlayerID{domain.Player1, domain.Player2} {
		if !session.Seat(p).IsHuman() || p == req.OpenSeat {
			continue
		}
		session.ClaimSeat(p)
		token, err := auth.GenerateSeatToken(session.ID, p)
		if err != nil {
			h.Service.Sessions.RemoveSession(session.ID)
			respondError(c, err)
			return
		}
		seats[strconv.Itoa(int(p))] = token
	}

	if err := session.Start(); err != nil {
		h.Service.Sessions.RemoveSession(session.ID)
		respondError(c, err)
		return
	}

	log.Info().Str("component", "http").Str("game_id", session.ID).
		Str("player1", string(session.Seats[0].Kind)).Str("player2", string(session.Seats[1].Kind)).
		Msg("game created")

	c.JSON(http.StatusCreated, createGameResponse{
		GameID:   session.ID,
		Seats:    seats,
		Snapshot: session.Snapshot(),
	})
}

// JoinGame hands out the token of an unclaimed human seat. A caller that
// already holds the seat's token gets a fresh one.
func (h *GameHandler) JoinGame(c *gin.Context) {
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, ok := h.Service.Sessions.GetSession(c.Param("id"))
	if !ok {
		respondError(c, domain.ErrGameNotFound)
		return
	}
	if !req.Player.Valid() {
		respondError(c, domain.ErrInvalidSeat)
		return
	}
	if !session.Seat(req.Player).IsHuman() {
		respondError(c, domain.ErrNotHumanSeat)
		return
	}
	if session.PasswordHash != "" && !auth.CheckPasswordHash(req.Password, session.PasswordHash) {
		respondError(c, domain.ErrWrongPassword)
		return
	}
	if !holdsSeat(c, session.ID, req.Player) {
		if err := session.ClaimSeat(req.Player); err != nil {
			respondError(c, err)
			return
		}
	}

	token, err := auth.GenerateSeatToken(session.ID, req.Player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gameId": session.ID, "player": req.Player, "token": token})
}

func holdsSeat(c *gin.Context, gameID string, player domain.PlayerID) bool {
	tokenString, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	claims, err := auth.ValidateSeatToken(tokenString)
	return err == nil && claims.GameID == gameID && claims.Player == player
}

// GetGame returns the snapshot of a live or recently cached game.
func (h *GameHandler) GetGame(c *gin.Context) {
	snap, err := h.Service.LookupSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *GameHandler) seatedSession(c *gin.Context) (*game.Session, domain.PlayerID, bool) {
	player, ok := middleware.SeatPlayer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, domain.Empty, false
	}
	session, ok := h.Service.Sessions.GetSession(c.Param("id"))
	if !ok {
		respondError(c, domain.ErrGameNotFound)
		return nil, domain.Empty, false
	}
	return session, player, true
}

func (h *GameHandler) MakeMove(c *gin.Context) {
	session, player, ok := h.seatedSession(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	move, err := session.SubmitHumanMove(player, req.Column)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"move": move, "snapshot": session.Snapshot()})
}

func (h *GameHandler) Takeback(c *gin.Context) {
	session, player, ok := h.seatedSession(c)
	if !ok {
		return
	}
	undone, err := session.Takeback(player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"undone": undone, "snapshot": session.Snapshot()})
}

func (h *GameHandler) Reset(c *gin.Context) {
	session, player, ok := h.seatedSession(c)
	if !ok {
		return
	}
	if !session.Seat(player).IsHuman() {
		respondError(c, domain.ErrNotHumanSeat)
		return
	}
	if err := session.Reset(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": session.Snapshot()})
}

// Analyze searches an arbitrary position given as a column sequence.
func (h *GameHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !h.analyses.TryAcquire(1) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many analyses running, retry later"})
		return
	}
	defer h.analyses.Release(1)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.AnalyzeTimeout)
	defer cancel()

	analysis, err := h.Service.Analyze(ctx, req.Columns, req.Difficulty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
