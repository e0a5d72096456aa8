package domain

import (
	"slices"

	"github.com/rs/zerolog/log"
)

// Board is the connect-four state machine. Cells are stored row-major with
// the bottom row first; levels[c] counts the disks in column c, so cell
// (c, y) is occupied iff y < levels[c].
//
// A Board is not safe for concurrent use. Search branches work on clones.
type Board struct {
	width   int
	height  int
	grid    []PlayerID
	levels  []int
	history []Move
	current PlayerID
}

// NewBoard creates an empty width x height board with Player1 to move.
func NewBoard(width, height int) (*Board, error) {
	return NewBoardWithFirstPlayer(width, height, Player1)
}

// NewBoardWithFirstPlayer creates an empty board where first moves first.
func NewBoardWithFirstPlayer(width, height int, first PlayerID) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	if !first.Valid() {
		return nil, ErrInvalidMove
	}
	return &Board{
		width:   width,
		height:  height,
		grid:    make([]PlayerID, width*height),
		levels:  make([]int, width),
		history: make([]Move, 0, width*height),
		current: first,
	}, nil
}

// NewStandardBoard returns the classic 7x6 board.
func NewStandardBoard() *Board {
	b, _ := NewBoard(DefaultColumns, DefaultRows)
	return b
}

func (b *Board) Width() int               { return b.width }
func (b *Board) Height() int              { return b.height }
func (b *Board) CurrentPlayer() PlayerID  { return b.current }
func (b *Board) MoveCount() int           { return len(b.history) }
func (b *Board) Level(column int) int     { return b.levels[column] }
func (b *Board) Levels() []int            { return slices.Clone(b.levels) }
func (b *Board) History() []Move          { return slices.Clone(b.history) }
func (b *Board) Contains(p Position) bool { return p.X >= 0 && p.Y >= 0 && p.X < b.width && p.Y < b.height }

func (b *Board) index(p Position) int {
	return p.X + p.Y*b.width
}

// At returns the occupant of p, or Empty when p is off the board.
func (b *Board) At(p Position) PlayerID {
	if !b.Contains(p) {
		return Empty
	}
	return b.grid[b.index(p)]
}

func (b *Board) set(p Position, v PlayerID) {
	b.grid[b.index(p)] = v
}

// LastMove returns the most recently applied move.
func (b *Board) LastMove() (Move, bool) {
	if len(b.history) == 0 {
		return Move{}, false
	}
	return b.history[len(b.history)-1], true
}

// IsValidMove reports whether m can be applied now: it is m.Player's turn,
// the column is not full and m lands on the column's fill level.
func (b *Board) IsValidMove(m Move) bool {
	return m.Player == b.current &&
		b.Contains(m.Pos) &&
		b.At(m.Pos) == Empty &&
		m.Pos.Y == b.levels[m.Pos.X]
}

// DoMove applies a legal move. An illegal move is logged and rejected with
// ErrInvalidMove, leaving the board untouched.
func (b *Board) DoMove(m Move) error {
	if !b.IsValidMove(m) {
		log.Warn().
			Str("component", "board").
			Stringer("move", m).
			Stringer("to_move", b.current).
			Msg("rejected illegal move")
		return ErrInvalidMove
	}
	b.set(m.Pos, m.Player)
	b.levels[m.Pos.X]++
	b.history = append(b.history, m)
	b.current = b.current.Opponent()
	return nil
}

// UndoMove reverts the most recent move. It returns false on an empty
// history, which is how a fully backtracked search branch ends.
func (b *Board) UndoMove() (Move, bool) {
	if len(b.history) == 0 {
		return Move{}, false
	}
	m := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	b.set(m.Pos, Empty)
	b.levels[m.Pos.X]--
	b.current = b.current.Opponent()
	return m, true
}

// Clone returns a deep copy that shares no memory with b.
func (b *Board) Clone() *Board {
	history := make([]Move, len(b.history), b.width*b.height)
	copy(history, b.history)
	return &Board{
		width:   b.width,
		height:  b.height,
		grid:    slices.Clone(b.grid),
		levels:  slices.Clone(b.levels),
		history: history,
		current: b.current,
	}
}

// CheckForWin inspects only the last placed disk.
func (b *Board) CheckForWin() (WinningLine, bool) {
	m, ok := b.LastMove()
	if !ok {
		return WinningLine{}, false
	}
	return FindWinningLine(b, m)
}

// IsDraw reports whether every column is full.
func (b *Board) IsDraw() bool {
	return slices.Min(b.levels) >= b.height
}

// State reports whether the game is still being played. A win completed by
// the move that fills the board is reported as a win, not a draw.
func (b *Board) State() BoardState {
	if line, ok := b.CheckForWin(); ok {
		m, _ := b.LastMove()
		return BoardState{Status: StatusWon, Result: Win(m.Player, line)}
	}
	if b.IsDraw() {
		return BoardState{Status: StatusDraw, Result: Draw()}
	}
	return BoardState{Status: StatusActive}
}

// Equal reports whether two boards hold identical state, history included.
func (b *Board) Equal(o *Board) bool {
	return b.width == o.width &&
		b.height == o.height &&
		b.current == o.current &&
		slices.Equal(b.grid, o.grid) &&
		slices.Equal(b.levels, o.levels) &&
		slices.Equal(b.history, o.history)
}
