package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
)

func identityShuffle(int, func(i, j int)) {}

func reverseShuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestFindBestMoveSingleLegalMove(t *testing.T) {
	// Columns 0 and 1 of a 3x3 board are full; only column 2 remains.
	b, err := domain.ReplayColumns(3, 3, domain.Player1, []int{0, 1, 0, 1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	wild := EvaluatorFunc(func(*domain.Board, domain.Move) float64 { return -1e9 })
	d := NewDispatcher(DefaultDepth, wild)

	res, err := d.FindBestMove(context.Background(), b, b.CurrentPlayer())
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	want := domain.Move{Pos: domain.Position{X: 2, Y: 0}, Player: domain.Player1}
	if res.Move != want {
		t.Fatalf("move = %s, want %s", res.Move, want)
	}
	if res.Voted != 1 || len(res.Scores) != 1 {
		t.Errorf("expected one scored branch, got voted=%d scores=%d", res.Voted, len(res.Scores))
	}
}

func TestFindBestMoveTakesImmediateWin(t *testing.T) {
	b := boardFrom(t, domain.Player1, 0, 6, 1, 6, 2, 5)
	before := b.Clone()
	d := NewDispatcher(3, nil)
	d.Shuffle = reverseShuffle

	res, err := d.FindBestMove(context.Background(), b, domain.Player1)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if res.Move.Pos != (domain.Position{X: 3, Y: 0}) {
		t.Fatalf("move = %s, want the winning drop in column 3", res.Move)
	}
	if res.Score != WinScore+3 {
		t.Errorf("score = %v, want %v", res.Score, WinScore+3.0)
	}
	if !b.Equal(before) {
		t.Error("FindBestMove left the caller's board modified")
	}
}

func TestFindBestMoveBlocksOpponent(t *testing.T) {
	// Player2 threatens (3,0); Player1 has no win of its own.
	b := boardFrom(t, domain.Player1, 0, 6, 0, 5, 1, 4)
	d := NewDispatcher(2, nil)

	res, err := d.FindBestMove(context.Background(), b, domain.Player1)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if res.Move.Pos != (domain.Position{X: 3, Y: 0}) {
		t.Fatalf("move = %s, want the block in column 3", res.Move)
	}
	if len(res.Scores) != 7 {
		t.Fatalf("expected 7 root scores, got %d", len(res.Scores))
	}
	for _, s := range res.Scores {
		if s.Move.Pos.X != 3 && s.Score > -WinScore {
			t.Errorf("non-blocking move %s scored %v, want a forced loss", s.Move, s.Score)
		}
	}
}

func TestFindBestMoveTieBreakIgnoresArrivalOrder(t *testing.T) {
	tests := []struct {
		name    string
		shuffle func(int, func(i, j int))
		want    int
	}{
		{"identity", identityShuffle, 0},
		{"reversed", reverseShuffle, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				d := NewDispatcher(2, nil)
				d.Shuffle = tc.shuffle
				res, err := d.FindBestMove(context.Background(), domain.NewStandardBoard(), domain.Player1)
				if err != nil {
					t.Fatalf("FindBestMove: %v", err)
				}
				if res.Move.Pos.X != tc.want {
					t.Fatalf("run %d picked column %d, want %d", i, res.Move.Pos.X, tc.want)
				}
			}
		})
	}
}

func TestFindBestMoveSkipsPanickingBranch(t *testing.T) {
	eval := EvaluatorFunc(func(b *domain.Board, _ domain.Move) float64 {
		if b.History()[0].Pos.X == 3 {
			panic("bad branch")
		}
		return 0
	})
	d := NewDispatcher(1, eval)
	d.Shuffle = identityShuffle
	b := domain.NewStandardBoard()

	res, err := d.FindBestMove(context.Background(), b, domain.Player1)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if res.Voted != 6 {
		t.Fatalf("voted = %d, want 6", res.Voted)
	}
	for _, s := range res.Scores {
		if s.Move.Pos.X == 3 {
			t.Fatalf("panicked branch still scored: %+v", s)
		}
	}
	if res.Move.Pos.X != 0 {
		t.Errorf("move = %s, want column 0", res.Move)
	}
	if b.MoveCount() != 0 {
		t.Error("root board modified")
	}
}

func TestFindBestMoveContractViolations(t *testing.T) {
	full, err := domain.ReplayColumns(3, 3, domain.Player1, []int{0, 1, 2, 0, 1, 2, 0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(2, nil)

	if _, err := d.FindBestMove(context.Background(), full, full.CurrentPlayer()); !errors.Is(err, domain.ErrNoLegalMoves) {
		t.Errorf("full board: error = %v, want ErrNoLegalMoves", err)
	}
	if _, err := d.FindBestMove(context.Background(), domain.NewStandardBoard(), domain.Player2); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Errorf("wrong player: error = %v, want ErrNotYourTurn", err)
	}
}

func TestFindBestMoveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDispatcher(9, nil).FindBestMove(ctx, domain.NewStandardBoard(), domain.Player1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestFindBestMoveBranchTimeoutCastsNoVote(t *testing.T) {
	d := NewDispatcher(10, nil)
	d.BranchTimeout = time.Millisecond
	d.Shuffle = reverseShuffle

	res, err := d.FindBestMove(context.Background(), domain.NewStandardBoard(), domain.Player1)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if res.Voted != 0 || len(res.Scores) != 0 {
		t.Fatalf("timed out branches voted: %+v", res.Scores)
	}
	if res.Move.Pos.X != 6 {
		t.Errorf("fallback move = %s, want the first shuffled move (column 6)", res.Move)
	}
}

func TestStartIsPollable(t *testing.T) {
	release := make(chan struct{})
	eval := EvaluatorFunc(func(*domain.Board, domain.Move) float64 {
		<-release
		return 0
	})
	d := NewDispatcher(1, eval)
	b := domain.NewStandardBoard()

	task := d.Start(context.Background(), b, domain.Player1)

	// The task owns its own copy.
	m, _ := b.MoveInColumn(3)
	if err := b.DoMove(m); err != nil {
		t.Fatal(err)
	}

	if _, ready, _ := task.TryTakeResult(); ready {
		t.Fatal("task reported ready while every branch is blocked")
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Move.Player != domain.Player1 || res.Move.Pos.Y != 0 {
		t.Errorf("unexpected move %s", res.Move)
	}

	polled, ready, err := task.TryTakeResult()
	if !ready || err != nil || polled.Move != res.Move {
		t.Errorf("TryTakeResult after completion = %+v, %v, %v", polled, ready, err)
	}
}

func TestStartReportsErrors(t *testing.T) {
	task := NewDispatcher(2, nil).Start(context.Background(), domain.NewStandardBoard(), domain.Player2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := task.Wait(ctx); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("Wait error = %v, want ErrNotYourTurn", err)
	}
}

func TestDifficultyPresets(t *testing.T) {
	if ParseDifficulty("easy") != DifficultyEasy || ParseDifficulty("medium") != DifficultyMedium {
		t.Fatal("known difficulties not parsed")
	}
	if ParseDifficulty("nightmare") != DifficultyHard || ParseDifficulty("") != DifficultyHard {
		t.Fatal("unknown difficulty should fall back to hard")
	}
	if d := NewDispatcherFor(DifficultyHard, 7); d.Depth != 7 {
		t.Errorf("hard depth = %d, want 7", d.Depth)
	}
	if d := NewDispatcherFor(DifficultyEasy, 7); d.Depth != 2 {
		t.Errorf("easy depth = %d, want 2", d.Depth)
	}
	if _, ok := NewDispatcherFor(DifficultyMedium, 7).Evaluator.(ThreatEvaluator); !ok {
		t.Error("medium should use the threat evaluator")
	}
	if DifficultyHard.BotName() != "Charles" || Difficulty("x").BotName() != "BOT" {
		t.Error("unexpected bot names")
	}
}
