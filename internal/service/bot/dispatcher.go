package bot

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

const (
	DefaultDepth = 7

	// forcedThreshold separates decided root scores from heuristic ones.
	forcedThreshold = WinScore / 2
)

// MoveScore is the root score of one branch from the mover's point of view.
type MoveScore struct {
	Move  domain.Move `json:"move"`
	Score float64     `json:"score"`
}

// Result is the outcome of a root search.
type Result struct {
	Move    domain.Move   `json:"move"`
	Score   float64       `json:"score"`
	Scores  []MoveScore   `json:"scores"`
	Voted   int           `json:"voted"`
	Nodes   uint64        `json:"nodes"`
	Elapsed time.Duration `json:"elapsed"`
}

// Dispatcher searches every root move on its own goroutine and board clone,
// then picks the best score.
type Dispatcher struct {
	Depth     int
	Evaluator Evaluator

	// BranchTimeout bounds each branch. A branch that runs out of time casts
	// no vote. Zero means no limit.
	BranchTimeout time.Duration

	// Workers caps how many branches run at once. Zero runs all of them.
	Workers int

	// Shuffle permutes the root moves. Defaults to frand.Shuffle.
	Shuffle func(n int, swap func(i, j int))
}

func NewDispatcher(depth int, eval Evaluator) *Dispatcher {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Dispatcher{Depth: depth, Evaluator: eval}
}

type branchResult struct {
	index int
	move  domain.Move
	score float64
	nodes uint64
	vote  bool
}

// FindBestMove returns player's best move on board. board must have player
// to move and at least one legal move. It is mutated transiently while the
// branches are set up and is back in its original state on return.
func (d *Dispatcher) FindBestMove(ctx context.Context, board *domain.Board, player domain.PlayerID) (Result, error) {
	if board.CurrentPlayer() != player {
		return Result{}, domain.ErrNotYourTurn
	}
	moves := board.MovesFor(player)
	if len(moves) == 0 {
		return Result{}, domain.ErrNoLegalMoves
	}

	shuffle := d.Shuffle
	if shuffle == nil {
		shuffle = frand.Shuffle
	}
	shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })

	start := time.Now()
	results := make(chan branchResult, len(moves))

	var g errgroup.Group
	if d.Workers > 0 {
		g.SetLimit(d.Workers)
	}

	for i, m := range moves {
		i, m := i, m
		if err := board.DoMove(m); err != nil {
			return Result{}, fmt.Errorf("root move %s: %w", m, err)
		}
		clone := board.Clone()
		board.UndoMove()

		g.Go(func() error {
			results <- d.searchBranch(ctx, clone, i, m)
			return nil
		})
	}

	res := Result{
		Move:   moves[0],
		Score:  -math.MaxFloat64,
		Scores: make([]MoveScore, 0, len(moves)),
	}
	bestIndex := 0
	for range moves {
		r := <-results
		res.Nodes += r.nodes
		if !r.vote {
			continue
		}
		res.Voted++
		res.Scores = append(res.Scores, MoveScore{Move: r.move, Score: r.score})
		log.Debug().
			Str("component", "bot").
			Stringer("move", r.move).
			Float64("score", r.score).
			Msg("branch finished")

		// Ties go to the earlier shuffled move so arrival order never matters.
		if r.score > res.Score || (r.score == res.Score && r.index < bestIndex) {
			res.Move = r.move
			res.Score = r.score
			bestIndex = r.index
		}
	}
	g.Wait()

	res.Elapsed = time.Since(start)
	sort.Slice(res.Scores, func(i, j int) bool {
		return res.Scores[i].Move.Pos.X < res.Scores[j].Move.Pos.X
	})

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	logger := log.With().Str("component", "bot").Stringer("player", player).Logger()
	switch {
	case res.Voted == 0:
		logger.Error().Int("branches", len(moves)).Msg("no branch produced a score, falling back to first shuffled move")
	case res.Score <= -forcedThreshold:
		logger.Warn().Stringer("move", res.Move).Msg("forced loss")
	case res.Score >= forcedThreshold:
		logger.Warn().Stringer("move", res.Move).Msg("forced win")
	}
	logger.Info().
		Stringer("move", res.Move).
		Float64("score", res.Score).
		Int("voted", res.Voted).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Msg("move search finished")

	return res, nil
}

// searchBranch runs one root branch. A panic or a timeout yields no vote
// rather than a score.
func (d *Dispatcher) searchBranch(ctx context.Context, clone *domain.Board, index int, m domain.Move) (r branchResult) {
	r = branchResult{index: index, move: m}

	if d.BranchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.BranchTimeout)
		defer cancel()
	}

	s := NewSearcher(d.Evaluator, ctx.Done())
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("component", "bot").
				Stringer("move", m).
				Interface("panic", p).
				Msg("search branch panicked")
			r = branchResult{index: index, move: m, nodes: s.Nodes()}
		}
	}()

	score := -s.Evaluate(clone, d.depth(), m)
	r.nodes = s.Nodes()
	if s.Cancelled() {
		return r
	}
	r.score = score
	r.vote = true
	return r
}

func (d *Dispatcher) depth() int {
	if d.Depth <= 0 {
		return DefaultDepth
	}
	return d.Depth
}

// Start clones board and searches it in the background. The caller's board
// is never touched after Start returns.
func (d *Dispatcher) Start(ctx context.Context, board *domain.Board, player domain.PlayerID) *Task {
	clone := board.Clone()
	t := newTask()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				t.finish(Result{}, fmt.Errorf("move search panicked: %v", p))
			}
		}()
		t.finish(d.FindBestMove(ctx, clone, player))
	}()
	return t
}
