package bot

import (
	"github.com/iamasit07/connect4-arena/internal/domain"
)

const (
	// WinScore is the magnitude of a decided position. Any leaf evaluation
	// must stay well below it so forced results always dominate.
	WinScore = 1000000
	// DrawScore is returned when a node has no moves left to search.
	DrawScore = 0

	POSITION_WEIGHT     = 10
	TWO_IN_ROW_WEIGHT   = 50
	THREE_IN_ROW_WEIGHT = 500
	CENTER_WEIGHT       = 20
)

// Evaluator scores a non-terminal leaf. The score is from the point of view
// of the player to move on b, i.e. the opponent of last.Player.
// Implementations must not mutate b and must be symmetric: swapping the
// colours of every disk must not change the score.
type Evaluator interface {
	Evaluate(b *domain.Board, last domain.Move) float64
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(b *domain.Board, last domain.Move) float64

func (f EvaluatorFunc) Evaluate(b *domain.Board, last domain.Move) float64 {
	return f(b, last)
}

// ZeroEvaluator scores every leaf as even. Search strength then comes from
// forced wins and losses inside the horizon only.
type ZeroEvaluator struct{}

func (ZeroEvaluator) Evaluate(*domain.Board, domain.Move) float64 {
	return 0
}

var directions = [4]domain.Position{
	{X: 1, Y: 0},  // horizontal
	{X: 0, Y: 1},  // vertical
	{X: 1, Y: 1},  // diagonal /
	{X: 1, Y: -1}, // diagonal \
}

// ThreatEvaluator rewards open twos and threes and control of the centre
// column.
type ThreatEvaluator struct{}

func (e ThreatEvaluator) Evaluate(b *domain.Board, _ domain.Move) float64 {
	return e.ScoreFor(b, b.CurrentPlayer())
}

// ScoreFor scores the disks on b for me. ScoreFor(b, p) is always
// -ScoreFor(b, p.Opponent()).
func (ThreatEvaluator) ScoreFor(b *domain.Board, me domain.PlayerID) float64 {
	opponent := me.Opponent()
	score := 0

	// Evaluate all positions on the board
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			pos := domain.Position{X: x, Y: y}
			switch b.At(pos) {
			case me:
				score += evaluatePosition(b, pos, me)
			case opponent:
				score -= evaluatePosition(b, pos, opponent)
			}
		}
	}

	// Center column preference
	center := b.Width() / 2
	for y := 0; y < b.Level(center); y++ {
		switch b.At(domain.Position{X: center, Y: y}) {
		case me:
			score += CENTER_WEIGHT
		case opponent:
			score -= CENTER_WEIGHT
		}
	}

	return float64(score)
}

// evaluatePosition evaluates a single disk's contribution to the score
func evaluatePosition(b *domain.Board, pos domain.Position, player domain.PlayerID) int {
	score := POSITION_WEIGHT

	for _, dir := range directions {
		posCount := countDisks(b, pos, dir, player)
		negCount := countDisks(b, pos, dir.Scale(-1), player)
		total := posCount + negCount

		if !hasSpaceForExtension(b, pos, dir, posCount, negCount) {
			continue
		}
		if total >= 2 {
			score += THREE_IN_ROW_WEIGHT
		} else if total == 1 {
			score += TWO_IN_ROW_WEIGHT
		}
	}

	return score
}

// countDisks counts consecutive disks of player from pos along dir, pos excluded
func countDisks(b *domain.Board, pos, dir domain.Position, player domain.PlayerID) int {
	count := 0
	p := pos.Add(dir)
	for b.Contains(p) && b.At(p) == player {
		count++
		p = p.Add(dir)
	}
	return count
}

// hasSpaceForExtension reports whether either end of the run is an empty
// cell a disk could actually be dropped into next.
func hasSpaceForExtension(b *domain.Board, pos, dir domain.Position, posCount, negCount int) bool {
	ahead := pos.Add(dir.Scale(posCount + 1))
	if isPlayable(b, ahead) {
		return true
	}
	behind := pos.Sub(dir.Scale(negCount + 1))
	return isPlayable(b, behind)
}

// isPlayable respects gravity: the cell must be the next one in its column.
func isPlayable(b *domain.Board, p domain.Position) bool {
	return b.Contains(p) && b.Level(p.X) == p.Y
}
