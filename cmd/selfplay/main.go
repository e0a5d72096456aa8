// Command selfplay pits two bots against each other, or analyzes a single
// position given as a comma separated column list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iamasit07/connect4-arena/internal/config"
	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/internal/service/bot"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("selfplay failed")
	}
}

type options struct {
	columns  int
	rows     int
	depth    int
	player1  bot.Difficulty
	player2  bot.Difficulty
	analyze  string
	timeout  time.Duration
	logLevel string
}

func parseFlags(args []string) (options, error) {
	var o options
	var p1, p2 string

	fs := flag.NewFlagSet("selfplay", flag.ContinueOnError)
	fs.IntVar(&o.columns, "columns", domain.DefaultColumns, "board width")
	fs.IntVar(&o.rows, "rows", domain.DefaultRows, "board height")
	fs.IntVar(&o.depth, "depth", bot.DefaultDepth, "search depth used by the hard bot")
	fs.StringVar(&p1, "p1", "hard", "difficulty of player 1 (easy, medium, hard)")
	fs.StringVar(&p2, "p2", "hard", "difficulty of player 2 (easy, medium, hard)")
	fs.StringVar(&o.analyze, "analyze", "", "analyze the position reached by these columns, e.g. 3,3,4")
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "time limit per search")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	o.player1 = bot.ParseDifficulty(p1)
	o.player2 = bot.ParseDifficulty(p2)
	if o.columns < domain.ToWin && o.rows < domain.ToWin {
		return o, fmt.Errorf("%dx%d board: %w", o.columns, o.rows, domain.ErrInvalidSize)
	}
	return o, nil
}

func parseColumns(s string) ([]int, error) {
	var cols []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		c, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad column %q: %w", f, err)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	config.SetupLogger(o.logLevel, true)

	if o.analyze != "" {
		return analyze(ctx, o, out)
	}
	return selfPlay(ctx, o, out)
}

func analyze(ctx context.Context, o options, out io.Writer) error {
	cols, err := parseColumns(o.analyze)
	if err != nil {
		return err
	}
	board, err := domain.ReplayColumns(o.columns, o.rows, domain.Player1, cols)
	if err != nil {
		return err
	}
	render(out, board)
	if board.State().IsOver() {
		return domain.ErrGameOver
	}

	player := board.CurrentPlayer()
	d := o.player1
	if player == domain.Player2 {
		d = o.player2
	}
	res, err := search(ctx, o, d, board)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s to move, best column %d (score %g, %d nodes, %s)\n",
		player, res.Move.Pos.X, res.Score, res.Nodes, res.Elapsed.Round(time.Millisecond))
	for _, s := range res.Scores {
		fmt.Fprintf(out, "  column %d: %g\n", s.Move.Pos.X, s.Score)
	}
	return nil
}

func selfPlay(ctx context.Context, o options, out io.Writer) error {
	board, err := domain.NewBoard(o.columns, o.rows)
	if err != nil {
		return err
	}

	for !board.State().IsOver() {
		player := board.CurrentPlayer()
		d := o.player1
		if player == domain.Player2 {
			d = o.player2
		}
		res, err := search(ctx, o, d, board)
		if err != nil {
			return err
		}
		if err := board.DoMove(res.Move); err != nil {
			return err
		}
		fmt.Fprintf(out, "%2d. %s (%s) plays column %d, score %g\n",
			board.MoveCount(), player, d.BotName(), res.Move.Pos.X, res.Score)
	}

	render(out, board)
	result := board.State().Result
	if result.Draw {
		fmt.Fprintln(out, "draw")
	} else {
		fmt.Fprintf(out, "%s wins from %s to %s\n", result.Winner, result.Line.From, result.Line.To)
	}
	return nil
}

func search(ctx context.Context, o options, d bot.Difficulty, board *domain.Board) (bot.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return bot.NewDispatcherFor(d, o.depth).FindBestMove(ctx, board, board.CurrentPlayer())
}

func render(out io.Writer, board *domain.Board) {
	snap := board.Snapshot()
	for _, row := range snap.Board {
		var sb strings.Builder
		sb.WriteByte('|')
		for _, cell := range row {
			switch domain.PlayerID(cell) {
			case domain.Player1:
				sb.WriteString("X|")
			case domain.Player2:
				sb.WriteString("O|")
			default:
				sb.WriteString(" |")
			}
		}
		fmt.Fprintln(out, sb.String())
	}
	var sb strings.Builder
	for x := 0; x < snap.Width; x++ {
		fmt.Fprintf(&sb, " %d", x%10)
	}
	fmt.Fprintln(out, sb.String())
}
