package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/bot"
	"github.com/iamasit07/connect4-arena/pkg/uid"
	"github.com/rs/zerolog/log"
)

// Notifier receives the turn events of every session. Calls are made while
// the session is locked and must not call back into it.
type Notifier interface {
	TurnRequested(gameID string, player domain.PlayerID, snap domain.Snapshot)
	MoveCompleted(gameID string, move domain.Move, snap domain.Snapshot)
	GameOver(gameID string, result domain.GameResult, snap domain.Snapshot)
}

type GameRepository interface {
	SaveGame(ctx context.Context, rec domain.GameRecord) error
	GetGame(ctx context.Context, id string) (domain.GameRecord, error)
	ListGames(ctx context.Context, limit, offset int) ([]domain.GameRecord, error)
}

type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, gameID string, snap domain.Snapshot) error
	GetSnapshot(ctx context.Context, gameID string) (domain.Snapshot, error)
}

// FinderFunc picks the move finder for an AI seat.
type FinderFunc func(d bot.Difficulty) bot.MoveFinder

type Options struct {
	Width       int
	Height      int
	SearchDepth int
	BotDelay    time.Duration
	Finder      FinderFunc
}

// Summary is the list view of a live session.
type Summary struct {
	ID            string            `json:"id"`
	Player1       domain.Seat       `json:"player1"`
	Player2       domain.Seat       `json:"player2"`
	Status        domain.GameStatus `json:"status"`
	CurrentPlayer domain.PlayerID   `json:"currentPlayer"`
	MoveCount     int               `json:"moveCount"`
	Private       bool              `json:"private"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type nopNotifier struct{}

func (nopNotifier) TurnRequested(string, domain.PlayerID, domain.Snapshot) {}
func (nopNotifier) MoveCompleted(string, domain.Move, domain.Snapshot) {}
func (nopNotifier) GameOver(string, domain.GameResult, domain.Snapshot) {}

// SessionManager manages active game sessions
type SessionManager struct {
	sessions map[string]*Session // gameID → Session
	mu       sync.RWMutex
	opts     Options
	finder   FinderFunc
	notifier Notifier
	repo     GameRepository
	cache    SnapshotCache
}

// NewSessionManager wires the manager. repo and cache may be nil when no
// database or redis is configured.
func NewSessionManager(notifier Notifier, repo GameRepository, cache SnapshotCache, opts Options) *SessionManager {
	if opts.Width <= 0 {
		opts.Width = domain.DefaultColumns
	}
	if opts.Height <= 0 {
		opts.Height = domain.DefaultRows
	}
	if opts.SearchDepth <= 0 {
		opts.SearchDepth = bot.DefaultDepth
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	finder := opts.Finder
	if finder == nil {
		depth := opts.SearchDepth
		finder = func(d bot.Difficulty) bot.MoveFinder {
			return bot.NewDispatcherFor(d, depth)
		}
	}

	return &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
		finder:   finder,
		notifier: notifier,
		repo:     repo,
		cache:    cache,
	}
}

// normalizeSeat fills in defaults and rejects unknown seat kinds.
func normalizeSeat(seat domain.Seat, p domain.PlayerID) (domain.Seat, error) {
	if !seat.Valid() {
		return seat, fmt.Errorf("%s: %w", p, domain.ErrInvalidSeat)
	}
	if seat.Kind == domain.SeatAI {
		d := bot.ParseDifficulty(seat.Difficulty)
		seat.Difficulty = string(d)
		if seat.Name == "" {
			seat.Name = d.BotName()
		}
		return seat, nil
	}
	seat.Difficulty = ""
	if seat.Name == "" {
		seat.Name = fmt.Sprintf("Player %d", int(p))
	}
	return seat, nil
}

// CreateSession registers a new game. It is not started; call Start once
// listeners are in place.
func (sm *SessionManager) CreateSession(p1, p2 domain.Seat, passwordHash string) (*Session, error) {
	p1, err := normalizeSeat(p1, domain.Player1)
	if err != nil {
		return nil, err
	}
	p2, err = normalizeSeat(p2, domain.Player2)
	if err != nil {
		return nil, err
	}
	board, err := domain.NewBoard(sm.opts.Width, sm.opts.Height)
	if err != nil {
		return nil, err
	}

	session := newSession(uid.GenerateGameID(), p1, p2, board, sm)
	session.PasswordHash = passwordHash

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	log.Info().
		Str("component", "session").
		Str("game_id", session.ID).
		Str("player1", p1.Name).
		Str("player1_kind", string(p1.Kind)).
		Str("player2", p2.Name).
		Str("player2_kind", string(p2.Kind)).
		Msg("session created")
	return session, nil
}

// CreateAndStart creates a session with every human seat already claimed
// and requests its first turn.
func (sm *SessionManager) CreateAndStart(p1, p2 domain.Seat) (string, error) {
	session, err := sm.CreateSession(p1, p2, "")
	if err != nil {
		return "", err
	}
	for _, p := range []domain.PlayerID{domain.Player1, domain.Player2} {
		if session.Seat(p).IsHuman() {
			session.ClaimSeat(p)
		}
	}
	if err := session.Start(); err != nil {
		sm.RemoveSession(session.ID)
		return "", err
	}
	return session.ID, nil
}

func (sm *SessionManager) GetSession(gameID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[gameID]
	return session, exists
}

// ListSessions returns live sessions, newest first.
func (sm *SessionManager) ListSessions() []Summary {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (sm *SessionManager) RemoveSession(gameID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[gameID]
	if !exists {
		sm.mu.Unlock()
		return fmt.Errorf("remove session %s: %w", gameID, domain.ErrGameNotFound)
	}
	delete(sm.sessions, gameID)
	sm.mu.Unlock()

	session.Close()
	log.Info().Str("component", "session").Str("game_id", gameID).Msg("session removed")
	return nil
}

// Len is the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupOldSessions drops finished sessions older than finishedTTL and
// unfinished ones idle for longer than idleTTL.
func (sm *SessionManager) CleanupOldSessions(finishedTTL, idleTTL time.Duration) int {
	now := time.Now()

	sm.mu.Lock()
	var stale []*Session
	for gameID, session := range sm.sessions {
		session.mu.Lock()
		finished := session.board.State().IsOver()
		expired := (finished && now.Sub(session.FinishedAt) > finishedTTL) ||
			(!finished && now.Sub(session.UpdatedAt) > idleTTL)
		session.mu.Unlock()

		if expired {
			delete(sm.sessions, gameID)
			stale = append(stale, session)
		}
	}
	sm.mu.Unlock()

	for _, session := range stale {
		session.Close()
	}
	if len(stale) > 0 {
		log.Info().Str("component", "session").Int("removed", len(stale)).Msg("memory cleanup: removed stale game sessions")
	}
	return len(stale)
}
