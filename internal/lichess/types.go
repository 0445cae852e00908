package lichess

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when the current-game lookup answers 404.
var ErrUserNotFound = errors.New("lichess: user not found")

// StatusError reports a non-2xx answer other than 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! Status: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error! Status: %d body=%s", e.Code, e.Body)
}

// User is the account block inside a player.
type User struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Player is one seat of a game. User is nil for anonymous or AI seats.
type Player struct {
	User   *User `json:"user,omitempty"`
	Rating int   `json:"rating,omitempty"`
}

// Players holds both seats.
type Players struct {
	White Player `json:"white"`
	Black Player `json:"black"`
}

// Game is the subset of the current-game record the monitor reads.
type Game struct {
	ID      string  `json:"id"`
	Status  string  `json:"status"`
	Players Players `json:"players"`
}

var ongoingStatuses = map[string]struct{}{
	"created": {},
	"started": {},
}

// Ongoing reports whether the game is still being played.
func (g *Game) Ongoing() bool {
	if g == nil {
		return false
	}
	_, ok := ongoingStatuses[g.Status]
	return ok
}

// Name returns the player's display name, or "" for anonymous seats.
func (p Player) Name() string {
	if p.User == nil {
		return ""
	}
	return p.User.Name
}

// Update is one NDJSON record from the game stream.
type Update struct {
	FEN string `json:"fen"`
}
