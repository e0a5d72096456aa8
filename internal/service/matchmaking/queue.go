package matchmaking

import (
	"sync"
	"time"

	"github.com/iamasit07/connect4-arena/internal/domain"
	"github.com/iamasit07/connect4-arena/pkg/uid"
	"github.com/rs/zerolog/log"
)

const DefaultBotTimeout = 10 * time.Second

// Match pairs two waiting tickets. Player2 is empty when the first player
// timed out and gets a bot instead.
type Match struct {
	Player1       string
	Player1Name   string
	Player2       string
	Player2Name   string
	BotDifficulty string
}

// Assignment is what a matched ticket resolves to.
type Assignment struct {
	GameID string          `json:"gameId"`
	Player domain.PlayerID `json:"player"`
	Token  string          `json:"token"`
}

type ticket struct {
	name       string
	difficulty string
	createdAt  time.Time
	assignment *Assignment
	err        error
}

// Queue pairs anonymous players. A player left waiting for BotTimeout is
// matched against a bot of the difficulty they asked for.
type Queue struct {
	BotTimeout   time.Duration
	MatchChannel chan Match

	mu      sync.Mutex
	waiting string // at most one ticket waits for an opponent
	tickets map[string]*ticket
	timers  map[string]*time.Timer
}

func NewQueue(botTimeout time.Duration) *Queue {
	if botTimeout <= 0 {
		botTimeout = DefaultBotTimeout
	}
	return &Queue{
		BotTimeout:   botTimeout,
		MatchChannel: make(chan Match, 100),
		tickets:      make(map[string]*ticket),
		timers:       make(map[string]*time.Timer),
	}
}

// Enqueue registers a player and returns their ticket id.
func (q *Queue) Enqueue(name, difficulty string) string {
	id := uid.GenerateTokenID()

	q.mu.Lock()
	q.tickets[id] = &ticket{name: name, difficulty: difficulty, createdAt: time.Now()}

	if q.waiting == "" {
		// First player in queue, start bot timer
		q.waiting = id
		q.timers[id] = time.AfterFunc(q.BotTimeout, func() {
			q.handleTimeout(id)
		})
		q.mu.Unlock()
		log.Debug().Str("component", "matchmaking").Str("ticket", id).Msg("waiting for opponent")
		return id
	}

	opponent := q.waiting
	q.waiting = ""
	q.stopAndDeleteTimer(opponent)
	match := Match{
		Player1:     opponent,
		Player1Name: q.tickets[opponent].name,
		Player2:     id,
		Player2Name: name,
	}
	q.mu.Unlock()

	q.MatchChannel <- match
	return id
}

func (q *Queue) handleTimeout(id string) {
	q.mu.Lock()
	if q.waiting != id {
		q.mu.Unlock()
		return
	}
	q.waiting = ""
	q.stopAndDeleteTimer(id)
	t := q.tickets[id]
	match := Match{Player1: id, Player1Name: t.name, BotDifficulty: t.difficulty}
	q.mu.Unlock()

	log.Info().Str("component", "matchmaking").Str("ticket", id).Msg("no opponent found, matching against bot")
	q.MatchChannel <- match
}

// Cancel drops a ticket. A ticket that was already matched keeps its game.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.tickets[id]; !ok {
		return domain.ErrNoTicket
	}
	if q.waiting == id {
		q.waiting = ""
	}
	q.stopAndDeleteTimer(id)
	delete(q.tickets, id)
	return nil
}

// Status reports whether a ticket has been matched. A matched ticket is
// handed out once and then forgotten.
func (q *Queue) Status(id string) (*Assignment, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tickets[id]
	if !ok {
		return nil, domain.ErrNoTicket
	}
	if t.err != nil {
		delete(q.tickets, id)
		return nil, t.err
	}
	if t.assignment != nil {
		delete(q.tickets, id)
	}
	return t.assignment, nil
}

func (q *Queue) resolve(id string, a *Assignment, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	// Cancelled while the match was being created.
	if t, ok := q.tickets[id]; ok {
		t.assignment, t.err = a, err
	}
}

// Prune forgets tickets nobody collected within maxAge.
func (q *Queue) Prune(maxAge time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, t := range q.tickets {
		if id == q.waiting || t.createdAt.After(cutoff) {
			continue
		}
		q.stopAndDeleteTimer(id)
		delete(q.tickets, id)
		removed++
	}
	return removed
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tickets)
}

func (q *Queue) stopAndDeleteTimer(id string) {
	if timer := q.timers[id]; timer != nil {
		timer.Stop()
	}
	delete(q.timers, id)
}
