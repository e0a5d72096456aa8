package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/bot"
)

// Service is the entry point for game logic (facade)
type Service struct {
	Sessions *SessionManager
	Repo     GameRepository
	Cache    SnapshotCache
}

func NewService(sessions *SessionManager, repo GameRepository, cache SnapshotCache) *Service {
	return &Service{
		Sessions: sessions,
		Repo:     repo,
		Cache:    cache,
	}
}

// LookupSnapshot returns the live board of gameID, falling back to the
// cached snapshot once the session is gone.
func (s *Service) LookupSnapshot(ctx context.Context, gameID string) (domain.Snapshot, error) {
	if session, ok := s.Sessions.GetSession(gameID); ok {
		return session.Snapshot(), nil
	}
	if s.Cache == nil {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap, err := s.Cache.GetSnapshot(ctx, gameID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// ArchivedGame is a stored game together with its replayed final position.
type ArchivedGame struct {
	Record   domain.GameRecord `json:"record"`
	Snapshot domain.Snapshot   `json:"snapshot"`
}

func (s *Service) History(ctx context.Context, limit, offset int) ([]domain.GameRecord, error) {
	if s.Repo == nil {
		return []domain.GameRecord{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListGames(ctx, limit, offset)
}

// HistoryGame loads an archived game and replays its moves so the result
// is re-derived from the board rather than trusted from storage.
func (s *Service) HistoryGame(ctx context.Context, gameID string) (ArchivedGame, error) {
	if s.Repo == nil {
		return ArchivedGame{}, domain.ErrGameNotFound
	}
	rec, err := s.Repo.GetGame(ctx, gameID)
	if err != nil {
		return ArchivedGame{}, err
	}
	board, err := domain.Replay(rec.Width, rec.Height, rec.Moves)
	if err != nil {
		return ArchivedGame{}, fmt.Errorf("replay archived game %s: %w", gameID, err)
	}
	return ArchivedGame{Record: rec, Snapshot: board.Snapshot()}, nil
}

// Analysis is the root search breakdown for a position.
type Analysis struct {
	Snapshot   domain.Snapshot `json:"snapshot"`
	Difficulty bot.Difficulty  `json:"difficulty"`
	Depth      int             `json:"depth"`
	Result     bot.Result      `json:"result"`
}

// Analyze replays columns on an empty board and searches the position for
// the player to move.
func (s *Service) Analyze(ctx context.Context, columns []int, difficulty string) (Analysis, error) {
	opts := s.Sessions.opts
	board, err := domain.ReplayColumns(opts.Width, opts.Height, domain.Player1, columns)
	if err != nil {
		return Analysis{}, err
	}
	if board.State().IsOver() {
		return Analysis{}, domain.ErrGameOver
	}

	d := bot.ParseDifficulty(difficulty)
	dispatcher := bot.NewDispatcherFor(d, opts.SearchDepth)
	res, err := dispatcher.FindBestMove(ctx, board, board.CurrentPlayer())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Analysis{}, fmt.Errorf("analysis timed out: %w", err)
		}
		return Analysis{}, err
	}
	return Analysis{
		Snapshot:   board.Snapshot(),
		Difficulty: d,
		Depth:      dispatcher.Depth,
		Result:     res,
	}, nil
}
