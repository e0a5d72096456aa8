package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/connect4-arena/internal/config"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/game"
	"github.com/iamasit07/connect4-arena/internal/service/matchmaking"
)

type apiHarness struct {
	router *gin.Engine
	svc    *game.Service
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: "http-test", SeatTokenTTL: time.Hour}
	t.Cleanup(func() { config.AppConfig = prev })

	svc := game.NewService(game.NewSessionManager(nil, nil, nil, game.Options{}), nil, nil)
	router := NewRouter(RouterConfig{
		Service:        svc,
		Queue:          matchmaking.NewQueue(time.Hour),
		AllowedOrigins: []string{"http://allowed.test"},
	})
	return &apiHarness{router: router, svc: svc}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func (h *apiHarness) createHumanGame(t *testing.T, password string) createGameResponse {
	t.Helper()
	human := domain.Seat{Kind: domain.SeatHuman}
	w := h.do(t, http.MethodPost, "/api/games", "", createGameRequest{Player1: human, Player2: human, Password: password})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	return decode[createGameResponse](t, w)
}

func TestCreateAndPlayOverREST(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createHumanGame(t, "")

	if created.GameID == "" || len(created.Seats) != 2 {
		t.Fatalf("create response = %+v", created)
	}
	if created.Snapshot.CurrentPlayer != domain.Player1 || created.Snapshot.MoveCount != 0 {
		t.Fatalf("initial snapshot = %+v", created.Snapshot)
	}
	p1, p2 := created.Seats["1"], created.Seats["2"]
	movePath := "/api/games/" + created.GameID + "/moves"

	if w := h.do(t, http.MethodPost, movePath, "", moveRequest{Column: 3}); w.Code != http.StatusUnauthorized {
		t.Fatalf("move without token: %d", w.Code)
	}
	if w := h.do(t, http.MethodPost, movePath, p2, moveRequest{Column: 3}); w.Code != http.StatusConflict {
		t.Fatalf("out of turn: %d %s", w.Code, w.Body.String())
	}

	w := h.do(t, http.MethodPost, movePath, p1, moveRequest{Column: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	if move := decode[struct{ Move domain.Move }](t, w).Move; move.Pos != (domain.Position{X: 3, Y: 0}) {
		t.Fatalf("move landed at %s", move.Pos)
	}

	if w := h.do(t, http.MethodPost, movePath, p2, moveRequest{Column: 9}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad column: %d", w.Code)
	}

	w = h.do(t, http.MethodGet, "/api/games/"+created.GameID, "", nil)
	if snap := decode[domain.Snapshot](t, w); w.Code != http.StatusOK || snap.MoveCount != 1 {
		t.Fatalf("get: %d %+v", w.Code, snap)
	}

	w = h.do(t, http.MethodPost, "/api/games/"+created.GameID+"/takeback", p1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("takeback: %d %s", w.Code, w.Body.String())
	}
	if undone := decode[struct{ Undone int }](t, w).Undone; undone != 1 {
		t.Fatalf("undone = %d", undone)
	}

	w = h.do(t, http.MethodPost, "/api/games/"+created.GameID+"/takeback", p1, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty takeback: %d", w.Code)
	}

	w = h.do(t, http.MethodGet, "/api/games", "", nil)
	if list := decode[[]liveGameResponse](t, w); len(list) != 1 || list[0].ID != created.GameID {
		t.Fatalf("live games = %+v", list)
	}
}

func TestSeatTokenIsBoundToItsGame(t *testing.T) {
	h := newAPIHarness(t)
	a := h.createHumanGame(t, "")
	b := h.createHumanGame(t, "")

	w := h.do(t, http.MethodPost, "/api/games/"+b.GameID+"/moves", a.Seats["1"], moveRequest{Column: 0})
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign token: %d", w.Code)
	}
	w = h.do(t, http.MethodPost, "/api/games/"+b.GameID+"/moves", "garbage", moveRequest{Column: 0})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", w.Code)
	}
}

func TestJoinChecksPassword(t *testing.T) {
	h := newAPIHarness(t)
	human := domain.Seat{Kind: domain.SeatHuman}
	w := h.do(t, http.MethodPost, "/api/games", "", createGameRequest{
		Player1: human, Player2: human, Password: "hunter2", OpenSeat: domain.Player2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[createGameResponse](t, w)
	if _, ok := created.Seats["2"]; ok || created.Seats["1"] == "" {
		t.Fatalf("open seat was issued: %+v", created.Seats)
	}
	path := "/api/games/" + created.GameID + "/join"

	tests := []struct {
		name string
		req  joinGameRequest
		want int
	}{
		{"wrong password", joinGameRequest{Player: domain.Player2, Password: "nope"}, http.StatusUnauthorized},
		{"invalid seat", joinGameRequest{Player: 5, Password: "hunter2"}, http.StatusBadRequest},
		{"creator seat", joinGameRequest{Player: domain.Player1, Password: "hunter2"}, http.StatusConflict},
		{"ok", joinGameRequest{Player: domain.Player2, Password: "hunter2"}, http.StatusOK},
		{"already joined", joinGameRequest{Player: domain.Player2, Password: "hunter2"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := h.do(t, http.MethodPost, path, "", tt.req); w.Code != tt.want {
				t.Fatalf("got %d want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if w := h.do(t, http.MethodPost, "/api/games/missing/join", "", joinGameRequest{Player: 1}); w.Code != http.StatusNotFound {
		t.Fatalf("missing game: %d", w.Code)
	}
}

func TestJoinRefusesClaimedSeat(t *testing.T) {
	h := newAPIHarness(t)
	w := h.do(t, http.MethodPost, "/api/games", "", createGameRequest{
		Player1: domain.Seat{Kind: domain.SeatHuman},
		Player2: domain.Seat{Kind: domain.SeatAI, Difficulty: "easy"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[createGameResponse](t, w)
	owner := created.Seats["1"]
	path := "/api/games/" + created.GameID + "/join"

	w = h.do(t, http.MethodPost, path, "", joinGameRequest{Player: domain.Player1})
	if w.Code != http.StatusConflict {
		t.Fatalf("stranger took the seat: %d %s", w.Code, w.Body.String())
	}

	other := h.createHumanGame(t, "")
	if w := h.do(t, http.MethodPost, path, other.Seats["1"], joinGameRequest{Player: domain.Player1}); w.Code != http.StatusConflict {
		t.Fatalf("foreign token took the seat: %d", w.Code)
	}

	w = h.do(t, http.MethodPost, path, owner, joinGameRequest{Player: domain.Player1})
	if w.Code != http.StatusOK {
		t.Fatalf("holder rejoin: %d %s", w.Code, w.Body.String())
	}
	if token := decode[struct{ Token string }](t, w).Token; token == "" {
		t.Fatal("holder got no token")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	h := newAPIHarness(t)
	human := domain.Seat{Kind: domain.SeatHuman}

	tests := []struct {
		name string
		req  createGameRequest
	}{
		{"short password", createGameRequest{Player1: human, Player2: human, Password: "abc"}},
		{"unknown seat", createGameRequest{Player1: domain.Seat{Kind: "robot"}, Player2: human}},
		{"open seat out of range", createGameRequest{Player1: human, Player2: human, OpenSeat: 3}},
		{"open seat is a bot", createGameRequest{Player1: human, Player2: domain.Seat{Kind: domain.SeatAI}, OpenSeat: domain.Player2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := h.do(t, http.MethodPost, "/api/games", "", tt.req); w.Code != http.StatusBadRequest {
				t.Fatalf("got %d: %s", w.Code, w.Body.String())
			}
		})
	}
	if h.svc.Sessions.Len() != 0 {
		t.Fatalf("rejected requests created %d sessions", h.svc.Sessions.Len())
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, http.MethodPost, "/api/analyze", "", analyzeRequest{Columns: []int{0, 6, 1, 6, 2, 5}, Difficulty: "easy"})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", w.Code, w.Body.String())
	}
	got := decode[game.Analysis](t, w)
	if got.Result.Move.Pos.X != 3 {
		t.Fatalf("best column %d, want 3", got.Result.Move.Pos.X)
	}

	w = h.do(t, http.MethodPost, "/api/analyze", "", analyzeRequest{Columns: []int{0, 6, 1, 6, 2, 6, 3}})
	if w.Code != http.StatusConflict {
		t.Fatalf("finished position: %d", w.Code)
	}
}

func TestAnalyzeRejectsWhenBusy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := game.NewService(game.NewSessionManager(nil, nil, nil, game.Options{}), nil, nil)
	gh := NewGameHandler(svc, 1)
	router := gin.New()
	router.POST("/analyze", gh.Analyze)
	h := &apiHarness{router: router, svc: svc}
	body := analyzeRequest{Columns: []int{0, 6, 1, 6, 2, 5}, Difficulty: "easy"}

	if !gh.analyses.TryAcquire(1) {
		t.Fatal("fresh handler has no free slot")
	}
	if w := h.do(t, http.MethodPost, "/analyze", "", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("busy analyze: %d %s", w.Code, w.Body.String())
	}

	gh.analyses.Release(1)
	if w := h.do(t, http.MethodPost, "/analyze", "", body); w.Code != http.StatusOK {
		t.Fatalf("analyze after release: %d %s", w.Code, w.Body.String())
	}
	if !gh.analyses.TryAcquire(1) {
		t.Fatal("slot leaked after a finished analysis")
	}
}

func TestMissingGameAndHistory(t *testing.T) {
	h := newAPIHarness(t)

	if w := h.do(t, http.MethodGet, "/api/games/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get missing: %d", w.Code)
	}
	if w := h.do(t, http.MethodGet, "/api/history/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("history missing: %d", w.Code)
	}
	w := h.do(t, http.MethodGet, "/api/history", "", nil)
	if list := decode[[]gameHistoryItem](t, w); w.Code != http.StatusOK || len(list) != 0 {
		t.Fatalf("history: %d %+v", w.Code, list)
	}
}

func TestMatchmakingTicketLifecycle(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, http.MethodPost, "/api/matchmaking", "", joinQueueRequest{Name: "ann", Difficulty: "easy"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}
	ticket := decode[struct{ Ticket string }](t, w).Ticket
	if ticket == "" {
		t.Fatal("no ticket issued")
	}

	w = h.do(t, http.MethodGet, "/api/matchmaking/"+ticket, "", nil)
	if status := decode[struct{ Status string }](t, w).Status; w.Code != http.StatusOK || status != "waiting" {
		t.Fatalf("poll: %d %q", w.Code, status)
	}

	if w := h.do(t, http.MethodDelete, "/api/matchmaking/"+ticket, "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("leave: %d", w.Code)
	}
	if w := h.do(t, http.MethodGet, "/api/matchmaking/"+ticket, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("poll after leave: %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/games", nil)
	req.Header.Set("Origin", "http://allowed.test")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "http://allowed.test" {
		t.Fatalf("preflight: %d %v", w.Code, w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/games", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign origin: %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[error]int{
		domain.ErrGameNotFound:  http.StatusNotFound,
		domain.ErrSearchPending: http.StatusConflict,
		domain.ErrSeatTaken:     http.StatusConflict,
		domain.ErrNotHumanSeat:  http.StatusForbidden,
		domain.ErrWrongPassword: http.StatusUnauthorized,
		domain.ErrColumnFull:    http.StatusBadRequest,
	}
	for err, want := range tests {
		if got := statusFor(err); got != want {
			t.Errorf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
