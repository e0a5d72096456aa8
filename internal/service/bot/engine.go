package bot

import (
	"context"

	"github.com/iamasit07/connect4-arena/internal/domain"
)

// MoveFinder starts a background move search for player on a copy of b.
type MoveFinder interface {
	Start(ctx context.Context, b *domain.Board, player domain.PlayerID) *Task
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var BotNames = map[Difficulty]string{
	DifficultyEasy:   "Alice",
	DifficultyMedium: "Bob",
	DifficultyHard:   "Charles",
}

// ParseDifficulty validates and returns the bot difficulty
// Defaults to Hard if invalid or empty
func ParseDifficulty(difficulty string) Difficulty {
	switch Difficulty(difficulty) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyMedium:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

func (d Difficulty) BotName() string {
	if name, ok := BotNames[d]; ok {
		return name
	}
	return "BOT"
}

// NewDispatcherFor builds the dispatcher for a difficulty. hardDepth is the
// configured full-strength depth.
func NewDispatcherFor(d Difficulty, hardDepth int) *Dispatcher {
	switch d {
	case DifficultyEasy:
		return NewDispatcher(2, ZeroEvaluator{})
	case DifficultyMedium:
		return NewDispatcher(4, ThreatEvaluator{})
	default:
		return NewDispatcher(hardDepth, ZeroEvaluator{})
	}
}
