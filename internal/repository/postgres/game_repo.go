package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iamasit07/connect4-arena/internal/domain"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

const gameColumns = `game_id, width, height, player1, player2, winner, moves, board_state,
	total_moves, duration_seconds, created_at, finished_at`

// SaveGame archives a finished game. A game finished again after a takeback
// overwrites its earlier record.
func (r *GameRepo) SaveGame(ctx context.Context, rec domain.GameRecord) error {
	p1, err := json.Marshal(rec.Player1)
	if err != nil {
		return fmt.Errorf("failed to marshal player1: %w", err)
	}
	p2, err := json.Marshal(rec.Player2)
	if err != nil {
		return fmt.Errorf("failed to marshal player2: %w", err)
	}
	moves, err := json.Marshal(rec.Moves)
	if err != nil {
		return fmt.Errorf("failed to marshal moves: %w", err)
	}
	board, err := json.Marshal(rec.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %w", err)
	}

	query := `
	INSERT INTO game (` + gameColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (game_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		moves = EXCLUDED.moves,
		board_state = EXCLUDED.board_state,
		total_moves = EXCLUDED.total_moves,
		duration_seconds = EXCLUDED.duration_seconds,
		finished_at = EXCLUDED.finished_at;
	`
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID, rec.Width, rec.Height, p1, p2, int(rec.Winner), moves, board,
		rec.TotalMoves, rec.Duration, rec.CreatedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert game record: %w", err)
	}
	return nil
}

// GetGame returns domain.ErrGameNotFound when no record exists.
func (r *GameRepo) GetGame(ctx context.Context, id string) (domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM game WHERE game_id = $1;`

	rec, err := scanGame(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return rec, nil
}

// ListGames returns archived games, most recently finished first.
func (r *GameRepo) ListGames(ctx context.Context, limit, offset int) ([]domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM game ORDER BY finished_at DESC LIMIT $1 OFFSET $2;`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history: %w", err)
	}
	defer rows.Close()

	games := []domain.GameRecord{}
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, rec)
	}
	return games, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (domain.GameRecord, error) {
	var (
		rec                     domain.GameRecord
		winner                  int
		p1, p2, moves, boardRaw []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.Width,
		&rec.Height,
		&p1,
		&p2,
		&winner,
		&moves,
		&boardRaw,
		&rec.TotalMoves,
		&rec.Duration,
		&rec.CreatedAt,
		&rec.FinishedAt,
	)
	if err != nil {
		return rec, err
	}
	rec.Winner = domain.PlayerID(winner)

	if err := json.Unmarshal(p1, &rec.Player1); err != nil {
		return rec, fmt.Errorf("player1: %w", err)
	}
	if err := json.Unmarshal(p2, &rec.Player2); err != nil {
		return rec, fmt.Errorf("player2: %w", err)
	}
	if err := json.Unmarshal(moves, &rec.Moves); err != nil {
		return rec, fmt.Errorf("moves: %w", err)
	}
	if err := json.Unmarshal(boardRaw, &rec.Board); err != nil {
		return rec, fmt.Errorf("board state: %w", err)
	}
	return rec, nil
}
