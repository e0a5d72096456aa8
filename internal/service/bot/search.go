package bot

import (
	"math"

	"github.com/iamasit07/connect4-arena/internal/domain"
)

// cancelCheckDepth is the minimum remaining depth at which a node polls for
// cancellation. Nodes closer to the leaves finish quickly anyway.
const cancelCheckDepth = 2

// Searcher is a depth-limited negamax walker over a single board it owns.
// Create one per search branch; it is not safe for concurrent use.
type Searcher struct {
	eval      Evaluator
	done      <-chan struct{}
	cancelled bool
	nodes     uint64
}

// NewSearcher returns a searcher using eval for leaves. A nil eval means
// ZeroEvaluator. Closing done abandons the search.
func NewSearcher(eval Evaluator, done <-chan struct{}) *Searcher {
	if eval == nil {
		eval = ZeroEvaluator{}
	}
	return &Searcher{eval: eval, done: done}
}

// Nodes is the number of positions visited so far.
func (s *Searcher) Nodes() uint64 { return s.nodes }

// Cancelled reports whether the search was abandoned. Scores returned by an
// abandoned search are meaningless.
func (s *Searcher) Cancelled() bool { return s.cancelled }

// Evaluate scores b, reached by playing last, from the point of view of the
// player to move. A position lost to last scores -(WinScore + depth), so a
// quicker loss is worse and, negated, a quicker win is better.
//
// b is mutated during the search and restored before Evaluate returns,
// including when the evaluator panics.
func (s *Searcher) Evaluate(b *domain.Board, depth int, last domain.Move) float64 {
	s.nodes++

	if _, won := domain.FindWinningLine(b, last); won {
		return -(WinScore + float64(depth))
	}
	if depth <= 0 {
		return s.eval.Evaluate(b, last)
	}
	if depth >= cancelCheckDepth && s.stopped() {
		return DrawScore
	}

	best := math.Inf(-1)
	searched := false
	for _, m := range b.MovesFor(last.Player.Opponent()) {
		score, ok := s.child(b, m, depth)
		if !ok {
			continue
		}
		searched = true
		if score > best {
			best = score
		}
		if s.cancelled {
			break
		}
	}

	// Full board inside the horizon.
	if !searched {
		return DrawScore
	}
	return best
}

// child plays m, scores the reply position and takes m back. The score is
// from the point of view of m.Player.
func (s *Searcher) child(b *domain.Board, m domain.Move, depth int) (float64, bool) {
	if err := b.DoMove(m); err != nil {
		return 0, false
	}
	defer b.UndoMove()
	return -s.Evaluate(b, depth-1, m), true
}

func (s *Searcher) stopped() bool {
	if s.cancelled {
		return true
	}
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		s.cancelled = true
		return true
	default:
		return false
	}
}
