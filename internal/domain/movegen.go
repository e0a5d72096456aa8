package domain

// Moves lists the legal moves of the player to move, one per non-full
// column in ascending column order.
func (b *Board) Moves() []Move {
	return b.MovesFor(b.current)
}

// MovesFor lists one candidate per non-full column for player, regardless
// of whose turn it is. The search uses it for whichever side is on move at
// a given depth.
func (b *Board) MovesFor(player PlayerID) []Move {
	moves := make([]Move, 0, b.width)
	for col, level := range b.levels {
		if level < b.height {
			moves = append(moves, Move{Pos: Position{X: col, Y: level}, Player: player})
		}
	}
	return moves
}

// MoveInColumn builds the current player's move for column, if the column
// exists and still has room.
func (b *Board) MoveInColumn(column int) (Move, error) {
	if column < 0 || column >= b.width {
		return Move{}, ErrInvalidMove
	}
	if b.levels[column] >= b.height {
		return Move{}, ErrColumnFull
	}
	return Move{Pos: Position{X: column, Y: b.levels[column]}, Player: b.current}, nil
}
