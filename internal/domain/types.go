package domain

import "fmt"

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Opponent returns the other player. Empty has no opponent and maps to itself.
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

func (p PlayerID) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("player(%d)", int(p))
}

const (
	DefaultColumns = 7
	DefaultRows    = 6
	ToWin          = 4
)

// Position is a grid coordinate. X is the column, Y the row counted from
// the bottom of the board, so a column fills from Y=0 upwards.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Position) Scale(n int) Position {
	return Position{X: p.X * n, Y: p.Y * n}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Move pairs a grid position with the player placing a disk there.
type Move struct {
	Pos    Position `json:"pos"`
	Player PlayerID `json:"player"`
}

func (m Move) String() string {
	return fmt.Sprintf("%s@%s", m.Player, m.Pos)
}

// WinningLine holds the inclusive endpoints of four or more collinear disks.
type WinningLine struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Length is the number of cells between the endpoints, both included.
func (l WinningLine) Length() int {
	d := l.To.Sub(l.From)
	n := max(abs(d.X), abs(d.Y))
	return n + 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// to represent the game status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusDraw   GameStatus = "draw"
)

// GameResult is either a win for Winner along Line, or a draw.
type GameResult struct {
	Draw   bool        `json:"draw"`
	Winner PlayerID    `json:"winner,omitempty"`
	Line   WinningLine `json:"line"`
}

func Win(player PlayerID, line WinningLine) GameResult {
	return GameResult{Winner: player, Line: line}
}

func Draw() GameResult {
	return GameResult{Draw: true}
}

// BoardState is Playing (StatusActive) or GameOver with a result.
type BoardState struct {
	Status GameStatus
	Result GameResult
}

func (s BoardState) IsOver() bool {
	return s.Status != StatusActive
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidMove   Error = "invalid move"
	ErrColumnFull    Error = "column is full"
	ErrNotYourTurn   Error = "not your turn"
	ErrGameOver      Error = "game is over"
	ErrNoLegalMoves  Error = "no legal moves"
	ErrInvalidSize   Error = "invalid board size"
	ErrSearchPending Error = "move search already pending"
	ErrNotHumanSeat  Error = "seat is not controlled by a human"
	ErrNothingToUndo Error = "nothing to take back"
	ErrGameNotFound  Error = "game not found"
	ErrInvalidSeat   Error = "invalid seat"
	ErrWrongPassword Error = "wrong game password"
	ErrNoTicket      Error = "matchmaking ticket not found"
	ErrSeatTaken     Error = "seat already taken"
)
