package game

import (
	"context"
	"sync"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/bot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is one live game: the authoritative board plus the turn state
// machine driving it. Human seats submit moves; AI seats get a background
// search started whenever their turn is requested.
type Session struct {
	ID           string
	Seats        [2]domain.Seat
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   time.Time

	mu     sync.Mutex
	board  *domain.Board
	logger zerolog.Logger

	// pending is the outstanding AI search, at most one at a time.
	pending      *bot.Task
	cancelSearch context.CancelFunc
	generation   uint64

	ctx    context.Context
	cancel context.CancelFunc

	// claimed marks human seats whose token has been handed out.
	claimed [2]bool

	finder   FinderFunc
	botDelay time.Duration
	notifier Notifier
	repo     GameRepository
	cache    SnapshotCache

	// cacheLatest is the newest snapshot not yet written. A single writer
	// drains it, so writes land in move order.
	cacheMu      sync.Mutex
	cacheLatest  *domain.Snapshot
	cacheWriting bool
}

func newSession(id string, p1, p2 domain.Seat, board *domain.Board, sm *SessionManager) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Session{
		ID:        id,
		Seats:     [2]domain.Seat{p1, p2},
		CreatedAt: now,
		UpdatedAt: now,
		board:     board,
		logger:    log.With().Str("component", "session").Str("game_id", id).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		finder:    sm.finder,
		botDelay:  sm.opts.BotDelay,
		notifier:  sm.notifier,
		repo:      sm.repo,
		cache:     sm.cache,
	}
}

// Seat returns the seat controlling p.
func (s *Session) Seat(p domain.PlayerID) domain.Seat {
	if p == domain.Player2 {
		return s.Seats[1]
	}
	return s.Seats[0]
}

// ClaimSeat marks p's seat as handed out. Each human seat can be claimed
// once.
func (s *Session) ClaimSeat(p domain.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !p.Valid() || !s.Seat(p).IsHuman() {
		return domain.ErrNotHumanSeat
	}
	if s.claimed[p-1] {
		return domain.ErrSeatTaken
	}
	s.claimed[p-1] = true
	s.logger.Debug().Stringer("player", p).Msg("seat claimed")
	return nil
}

func (s *Session) SeatClaimed(p domain.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Valid() && s.claimed[p-1]
}

func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Snapshot()
}

func (s *Session) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.State().IsOver()
}

// SearchPending reports whether an AI search is outstanding.
func (s *Session) SearchPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.board.State()
	return Summary{
		ID:            s.ID,
		Player1:       s.Seats[0],
		Player2:       s.Seats[1],
		Status:        state.Status,
		CurrentPlayer: s.board.CurrentPlayer(),
		MoveCount:     s.board.MoveCount(),
		Private:       s.PasswordHash != "",
		CreatedAt:     s.CreatedAt,
	}
}

// Start requests the first turn.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestTurnLocked()
}

// SubmitHumanMove drops a disk for player in column. The move is rebuilt
// from the board and checked with IsValidMove before it is applied.
func (s *Session) SubmitHumanMove(player domain.PlayerID, column int) (domain.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board.State().IsOver() {
		return domain.Move{}, domain.ErrGameOver
	}
	if !player.Valid() || !s.Seat(player).IsHuman() {
		return domain.Move{}, domain.ErrNotHumanSeat
	}
	if s.board.CurrentPlayer() != player {
		return domain.Move{}, domain.ErrNotYourTurn
	}
	m, err := s.board.MoveInColumn(column)
	if err != nil {
		return domain.Move{}, err
	}
	if !s.board.IsValidMove(m) {
		return domain.Move{}, domain.ErrInvalidMove
	}
	if err := s.applyLocked(m); err != nil {
		return domain.Move{}, err
	}
	return m, nil
}

// Takeback undoes moves until it is player's turn again, removing player's
// most recent move and every reply after it.
func (s *Session) Takeback(player domain.PlayerID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !player.Valid() || !s.Seat(player).IsHuman() {
		return 0, domain.ErrNotHumanSeat
	}
	if s.pending != nil {
		return 0, domain.ErrSearchPending
	}

	history := s.board.History()
	last := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Player == player {
			last = i
			break
		}
	}
	if last < 0 {
		return 0, domain.ErrNothingToUndo
	}

	undone := 0
	for s.board.MoveCount() > last {
		if _, ok := s.board.UndoMove(); !ok {
			break
		}
		undone++
	}
	s.FinishedAt = time.Time{}
	s.UpdatedAt = time.Now()
	s.logger.Info().Stringer("player", player).Int("undone", undone).Msg("takeback")

	s.cacheSnapshotLocked()
	return undone, s.requestTurnLocked()
}

// Reset clears the board and restarts turn flow with the same seats. Any
// pending search is abandoned.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandonSearchLocked()

	board, err := domain.NewBoard(s.board.Width(), s.board.Height())
	if err != nil {
		return err
	}
	s.board = board
	s.FinishedAt = time.Time{}
	s.UpdatedAt = time.Now()
	s.logger.Info().Msg("board reset")

	s.cacheSnapshotLocked()
	return s.requestTurnLocked()
}

// Close abandons any pending search. The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonSearchLocked()
	s.cancel()
}

func (s *Session) abandonSearchLocked() {
	s.generation++
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}
	s.pending = nil
}

// requestTurnLocked announces the player to move and, for an AI seat,
// launches the search.
func (s *Session) requestTurnLocked() error {
	if s.board.State().IsOver() {
		return nil
	}
	player := s.board.CurrentPlayer()
	s.notifier.TurnRequested(s.ID, player, s.board.Snapshot())

	if s.Seat(player).IsHuman() {
		return nil
	}
	return s.startSearchLocked(player)
}

func (s *Session) startSearchLocked(player domain.PlayerID) error {
	if s.pending != nil {
		return domain.ErrSearchPending
	}
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}

	difficulty := bot.ParseDifficulty(s.Seat(player).Difficulty)
	ctx, cancel := context.WithCancel(s.ctx)
	task := s.finder(difficulty).Start(ctx, s.board, player)

	s.pending = task
	s.cancelSearch = cancel
	s.logger.Debug().Stringer("player", player).Str("difficulty", string(difficulty)).Msg("search started")

	go s.awaitSearch(ctx, task, s.generation)
	return nil
}

// awaitSearch applies the search result once it is ready. A result from an
// abandoned generation is dropped.
func (s *Session) awaitSearch(ctx context.Context, task *bot.Task, gen uint64) {
	var (
		res bot.Result
		err error
	)
	select {
	case <-task.Done():
		res, _, err = task.TryTakeResult()
	case <-ctx.Done():
		return
	}

	if err == nil && s.botDelay > 0 {
		timer := time.NewTimer(s.botDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.pending != task {
		return
	}
	s.pending = nil
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}

	if err != nil {
		s.logger.Error().Err(err).Msg("move search failed")
		return
	}
	if err := s.applyLocked(res.Move); err != nil {
		s.logger.Error().Err(err).Stringer("move", res.Move).Msg("search returned an unplayable move")
	}
}

// applyLocked plays m on the authoritative board and advances the turn.
func (s *Session) applyLocked(m domain.Move) error {
	if err := s.board.DoMove(m); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()

	snap := s.board.Snapshot()
	s.logger.Info().Stringer("move", m).Int("move_count", snap.MoveCount).Msg("move applied")
	s.notifier.MoveCompleted(s.ID, m, snap)
	s.cacheSnapshot(snap)

	state := s.board.State()
	if state.IsOver() {
		s.finishLocked(state.Result, snap)
		return nil
	}
	return s.requestTurnLocked()
}

func (s *Session) finishLocked(result domain.GameResult, snap domain.Snapshot) {
	s.FinishedAt = time.Now()

	ev := s.logger.Info().Int("moves", snap.MoveCount)
	if result.Draw {
		ev.Msg("game over: draw")
	} else {
		ev.Stringer("winner", result.Winner).Str("winner_name", s.Seat(result.Winner).Name).Msg("game over")
	}
	s.notifier.GameOver(s.ID, result, snap)

	rec := domain.GameRecord{
		ID:         s.ID,
		Width:      snap.Width,
		Height:     snap.Height,
		Player1:    s.Seats[0],
		Player2:    s.Seats[1],
		Moves:      snap.Moves,
		Board:      snap.Board,
		TotalMoves: snap.MoveCount,
		Duration:   int(s.FinishedAt.Sub(s.CreatedAt).Seconds()),
		CreatedAt:  s.CreatedAt,
		FinishedAt: s.FinishedAt,
	}
	if !result.Draw {
		rec.Winner = result.Winner
	}
	s.saveGameAsync(rec)
}

// saveGameAsync archives in the background so game_over is never held up by
// the database.
func (s *Session) saveGameAsync(rec domain.GameRecord) {
	if s.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.repo.SaveGame(ctx, rec); err != nil {
			s.logger.Error().Err(err).Msg("error saving game")
			return
		}
		s.logger.Info().Msg("game saved")
	}()
}

func (s *Session) cacheSnapshotLocked() {
	s.cacheSnapshot(s.board.Snapshot())
}

func (s *Session) cacheSnapshot(snap domain.Snapshot) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheLatest = &snap
	if !s.cacheWriting {
		s.cacheWriting = true
		go s.drainCache()
	}
}

// drainCache writes queued snapshots until none is left. Snapshots queued
// while a write is in flight collapse into the newest one.
func (s *Session) drainCache() {
	for {
		s.cacheMu.Lock()
		snap := s.cacheLatest
		s.cacheLatest = nil
		if snap == nil {
			s.cacheWriting = false
			s.cacheMu.Unlock()
			return
		}
		s.cacheMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.cache.SaveSnapshot(ctx, s.ID, *snap); err != nil {
			s.logger.Warn().Err(err).Int("move_count", snap.MoveCount).Msg("snapshot cache write failed")
		}
		cancel()
	}
}
