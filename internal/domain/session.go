package domain

import "time"

type SeatKind string

const (
	SeatHuman SeatKind = "human"
	SeatAI    SeatKind = "ai"
)

// Seat describes who controls one side of a game.
type Seat struct {
	Kind       SeatKind `json:"kind"`
	Name       string   `json:"name"`
	Difficulty string   `json:"difficulty,omitempty"` // ai seats only
}

func (s Seat) IsHuman() bool { return s.Kind == SeatHuman }

func (s Seat) Valid() bool {
	return s.Kind == SeatHuman || s.Kind == SeatAI
}

// GameRecord is a finished game as stored in the archive.
type GameRecord struct {
	ID         string    `json:"id"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Player1    Seat      `json:"player1"`
	Player2    Seat      `json:"player2"`
	Winner     PlayerID  `json:"winner"` // Empty on a draw
	Moves      []Move    `json:"moves"`
	Board      [][]int   `json:"board"`
	TotalMoves int       `json:"totalMoves"`
	Duration   int       `json:"durationSeconds"`
	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (r GameRecord) IsDraw() bool { return r.Winner == Empty }

// Seat returns the seat playing p.
func (r GameRecord) Seat(p PlayerID) Seat {
	if p == Player2 {
		return r.Player2
	}
	return r.Player1
}
