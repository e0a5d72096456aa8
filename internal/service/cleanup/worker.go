package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionSweeper drops stale live sessions. *game.SessionManager satisfies it.
type SessionSweeper interface {
	CleanupOldSessions(finishedTTL, idleTTL time.Duration) int
}

type Worker struct {
	Sessions    SessionSweeper
	FinishedTTL time.Duration
	IdleTTL     time.Duration
	Interval    time.Duration
}

func NewWorker(sessions SessionSweeper, finishedTTL, idleTTL time.Duration) *Worker {
	return &Worker{
		Sessions:    sessions,
		FinishedTTL: finishedTTL,
		IdleTTL:     idleTTL,
		Interval:    time.Hour,
	}
}

// Start runs a cleanup pass right away and then every Interval until ctx is
// cancelled.
func (w *Worker) Start(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		w.RunOnce()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.RunOnce()
			case <-ctx.Done():
				log.Info().Str("component", "cleanup").Msg("background worker stopped")
				return
			}
		}
	}()
	log.Info().Str("component", "cleanup").Dur("interval", interval).Msg("background worker started")
}

// RunOnce executes one cleanup pass and returns how many sessions it removed.
func (w *Worker) RunOnce() int {
	log.Debug().Str("component", "cleanup").Msg("starting scheduled cleanup task")

	removed := w.Sessions.CleanupOldSessions(w.FinishedTTL, w.IdleTTL)
	if removed > 0 {
		log.Info().Str("component", "cleanup").Int("removed", removed).Msg("removed stale sessions")
	}
	return removed
}
