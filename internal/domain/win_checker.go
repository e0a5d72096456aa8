package domain

// CellReader is the read-only view FindWinningLine needs.
type CellReader interface {
	Width() int
	Height() int
	At(p Position) PlayerID
}

// horizontal, diagonal /, vertical, diagonal \
var winDirections = [4]Position{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1}}

// FindWinningLine checks the lines passing through last only; any win on
// the board must have been completed by the most recent move.
//
// Each direction counts up to ToWin-1 matching disks forward and backward.
// The endpoint on the side with the larger run comes first; forward wins a
// tie.
func FindWinningLine(cells CellReader, last Move) (WinningLine, bool) {
	if !last.Player.Valid() {
		return WinningLine{}, false
	}
	for _, dir := range winDirections {
		fwd := countRun(cells, last, dir)
		bwd := countRun(cells, last, dir.Scale(-1))
		if fwd+bwd < ToWin-1 {
			continue
		}
		ahead := last.Pos.Add(dir.Scale(fwd))
		behind := last.Pos.Sub(dir.Scale(bwd))
		if fwd >= bwd {
			return WinningLine{From: ahead, To: behind}, true
		}
		return WinningLine{From: behind, To: ahead}, true
	}
	return WinningLine{}, false
}

// countRun counts consecutive disks of last.Player stepping from last.Pos
// along dir, not counting last.Pos itself.
func countRun(cells CellReader, last Move, dir Position) int {
	count := 0
	p := last.Pos
	for i := 1; i < ToWin; i++ {
		p = p.Add(dir)
		if p.X < 0 || p.Y < 0 || p.X >= cells.Width() || p.Y >= cells.Height() {
			break
		}
		if cells.At(p) != last.Player {
			break
		}
		count++
	}
	return count
}
