package domain

// ClientMessage is what a browser sends over the game socket.
type ClientMessage struct {
	Type   string `json:"type"`             // init, watch, make_move, takeback, reset
	Token  string `json:"token,omitempty"`  // seat token, init only
	GameID string `json:"gameId,omitempty"` // watch only
	Column int    `json:"column"`
}

// ServerMessage is pushed to every socket attached to a game.
type ServerMessage struct {
	Type       string      `json:"type"` // turn_requested, move_completed, game_over, joined, error
	GameID     string      `json:"gameId,omitempty"`
	Player     PlayerID    `json:"player,omitempty"`
	YourPlayer PlayerID    `json:"yourPlayer,omitempty"`
	Move       *Move       `json:"move,omitempty"`
	Snapshot   *Snapshot   `json:"snapshot,omitempty"`
	Result     *GameResult `json:"result,omitempty"`
	Message    string      `json:"message,omitempty"`
}
