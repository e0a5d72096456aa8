package domain

import "fmt"

// Snapshot is a read-only copy of a board for presentation and storage.
// Board lists rows top row first, matching what clients render.
type Snapshot struct {
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Board         [][]int      `json:"board"`
	Levels        []int        `json:"levels"`
	CurrentPlayer PlayerID     `json:"currentPlayer"`
	MoveCount     int          `json:"moveCount"`
	Moves         []Move       `json:"moves"`
	Status        GameStatus   `json:"status"`
	Winner        PlayerID     `json:"winner,omitempty"`
	WinningLine   *WinningLine `json:"winningLine,omitempty"`
}

func (b *Board) Snapshot() Snapshot {
	rows := make([][]int, b.height)
	for r := range rows {
		y := b.height - 1 - r
		rows[r] = make([]int, b.width)
		for x := 0; x < b.width; x++ {
			rows[r][x] = int(b.grid[b.index(Position{X: x, Y: y})])
		}
	}

	state := b.State()
	snap := Snapshot{
		Width:         b.width,
		Height:        b.height,
		Board:         rows,
		Levels:        b.Levels(),
		CurrentPlayer: b.current,
		MoveCount:     len(b.history),
		Moves:         b.History(),
		Status:        state.Status,
	}
	if state.Status == StatusWon {
		line := state.Result.Line
		snap.Winner = state.Result.Winner
		snap.WinningLine = &line
	}
	return snap
}

// Replay rebuilds a board by applying moves in order from an empty board.
// The first move decides who started.
func Replay(width, height int, moves []Move) (*Board, error) {
	first := Player1
	if len(moves) > 0 {
		first = moves[0].Player
	}
	b, err := NewBoardWithFirstPlayer(width, height, first)
	if err != nil {
		return nil, err
	}
	for i, m := range moves {
		if err := b.DoMove(m); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i, m, err)
		}
	}
	return b, nil
}

// ReplayColumns is Replay for a plain list of column choices, players
// alternating from first.
func ReplayColumns(width, height int, first PlayerID, columns []int) (*Board, error) {
	b, err := NewBoardWithFirstPlayer(width, height, first)
	if err != nil {
		return nil, err
	}
	for i, col := range columns {
		m, err := b.MoveInColumn(col)
		if err != nil {
			return nil, fmt.Errorf("replay column %d at ply %d: %w", col, i, err)
		}
		if err := b.DoMove(m); err != nil {
			return nil, fmt.Errorf("replay column %d at ply %d: %w", col, i, err)
		}
		if i < len(columns)-1 && b.State().IsOver() {
			return nil, fmt.Errorf("replay column %d at ply %d: %w", columns[i+1], i+1, ErrGameOver)
		}
	}
	return b, nil
}
