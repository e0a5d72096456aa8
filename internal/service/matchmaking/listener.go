package matchmaking

import (
	"context"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/pkg/auth"
	"github.com/rs/zerolog/log"
)

const ticketMaxAge = 10 * time.Minute

// SessionCreator is the part of *game.SessionManager the listener needs.
type SessionCreator interface {
	CreateAndStart(p1, p2 domain.Seat) (string, error)
}

// Listener turns matches into started games until ctx is cancelled.
func Listener(ctx context.Context, queue *Queue, sessions SessionCreator) {
	prune := time.NewTicker(time.Minute)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-prune.C:
			if n := queue.Prune(ticketMaxAge); n > 0 {
				log.Info().Str("component", "matchmaking").Int("removed", n).Msg("pruned stale tickets")
			}
		case match := <-queue.MatchChannel:
			startMatch(queue, sessions, match)
		}
	}
}

func startMatch(queue *Queue, sessions SessionCreator, match Match) {
	p1 := domain.Seat{Kind: domain.SeatHuman, Name: match.Player1Name}
	p2 := domain.Seat{Kind: domain.SeatAI, Difficulty: match.BotDifficulty}
	if match.Player2 != "" {
		p2 = domain.Seat{Kind: domain.SeatHuman, Name: match.Player2Name}
	}

	gameID, err := sessions.CreateAndStart(p1, p2)
	if err != nil {
		log.Error().Str("component", "matchmaking").Err(err).Msg("failed to start match")
		queue.resolve(match.Player1, nil, err)
		if match.Player2 != "" {
			queue.resolve(match.Player2, nil, err)
		}
		return
	}

	seats := []struct {
		ticket string
		player domain.PlayerID
	}{
		{match.Player1, domain.Player1},
		{match.Player2, domain.Player2},
	}
	for _, s := range seats {
		if s.ticket == "" {
			continue
		}
		token, err := auth.GenerateSeatToken(gameID, s.player)
		if err != nil {
			queue.resolve(s.ticket, nil, err)
			continue
		}
		queue.resolve(s.ticket, &Assignment{GameID: gameID, Player: s.player, Token: token}, nil)
	}

	log.Info().Str("component", "matchmaking").Str("game_id", gameID).
		Str("player1", match.Player1Name).Str("player2", match.Player2Name).
		Bool("bot", match.Player2 == "").Msg("match started")
}
