package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/piece-wheel/internal/board"
	"github.com/park285/piece-wheel/internal/lichess"
)

func main() {
	user := strings.TrimSpace(os.Getenv("LICHESS_USERNAME"))
	if len(os.Args) > 1 {
		user = strings.TrimSpace(os.Args[1])
	}
	if user == "" {
		log.Fatal("usage: lichesscheck <username> (or set LICHESS_USERNAME)")
	}
	baseURL := os.Getenv("LICHESS_BASE_URL")
	token := strings.TrimSpace(os.Getenv("LICHESS_TOKEN"))

	headers := func() map[string]string {
		m := map[string]string{}
		if token != "" {
			m["Authorization"] = "Bearer " + token
		}
		return m
	}
	client := lichess.NewClient(baseURL,
		lichess.WithHeaderProvider(headers),
		lichess.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	g, err := client.CurrentGame(ctx, user)
	switch {
	case errors.Is(err, lichess.ErrUserNotFound):
		log.Printf("user %q not found", user)
		return
	case err != nil:
		log.Printf("current-game error: %v", err)
		return
	}
	log.Printf("current game id=%s status=%s white=%q black=%q ongoing=%v",
		g.ID, g.Status, g.Players.White.Name(), g.Players.Black.Name(), g.Ongoing())
	if !g.Ongoing() {
		return
	}

	// Observe the stream for a short window
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	err = client.StreamGame(sctx, g.ID, func(line []byte) {
		var u lichess.Update
		if json.Unmarshal(line, &u) != nil || u.FEN == "" {
			return
		}
		if verr := board.Validate(u.FEN); verr != nil {
			log.Printf("suspect board: %v", verr)
		}
		s := board.Parse(u.FEN)
		fmt.Printf("white=%s black=%s\n", describe(s.White), describe(s.Black))
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("stream error: %v", err)
	}
}

func describe(c board.Counts) string {
	parts := make([]string, 0, len(board.Kinds))
	for _, k := range board.Kinds {
		parts = append(parts, fmt.Sprintf("%s:%d", k, c.Of(k)))
	}
	return fmt.Sprintf("%d [%s]", c.Total, strings.Join(parts, " "))
}
