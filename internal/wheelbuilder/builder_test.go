package wheelbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/park285/piece-wheel/internal/config"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeLichess(t *testing.T, gotAuth chan<- string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/alice/current-game", func(w http.ResponseWriter, r *http.Request) {
		select {
		case gotAuth <- r.Header.Get("Authorization"):
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"g1","status":"started","players":{"white":{"user":{"name":"bob"},"rating":1500},"black":{"user":{"name":"Alice"},"rating":1600}}}`)
	})
	mux.HandleFunc("/api/stream/game/g1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"id":"g1","fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}`)
		fmt.Fprintln(w, `{"fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPP1/RNBQKBNR w KQkq - 0 1","lm":"h2h4"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	auth := make(chan string, 1)
	li := fakeLichess(t, auth)
	mr := miniredis.RunT(t)

	cfg := &config.AppConfig{
		Username:       "alice",
		LichessBaseURL: li.URL,
		LichessTimeout: 2 * time.Second,
		LichessToken:   "tok",
		RecheckDelay:   time.Hour,
		SpinDuration:   10 * time.Millisecond,
		WheelImageSize: 100,
		RedisURL:       "redis://" + mr.Addr(),
		RedisChannel:   "test:wheel",
		RedisStateTTL:  time.Minute,
	}
	deps, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })
	require.NotNil(t, deps.Relay)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = deps.Monitor.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Equal(t, "Bearer tok", <-auth)

	require.Eventually(t, func() bool {
		ev, err := deps.Relay.Latest(context.Background(), wheeldto.EventInventoryUpdated)
		if err != nil || ev == nil || ev.Inventory == nil {
			return false
		}
		return ev.Inventory.Sides[1].Counts["pawn"] == 7
	}, 3*time.Second, 10*time.Millisecond)

	srv := httptest.NewServer(deps.Router)
	t.Cleanup(srv.Close)

	var st wheeldto.State
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		st = wheeldto.State{}
		return json.NewDecoder(resp.Body).Decode(&st) == nil && st.Game == nil && st.Status != nil &&
			st.Status.Key == "stream_complete"
	}, 3*time.Second, 10*time.Millisecond, "stream end clears the game")
	require.Equal(t, "idle", st.Monitor)
	require.Equal(t, "black", st.Sides[0].Color, "alice plays black so the left wheel is black")
	require.Equal(t, "white", st.Sides[1].Color)
	require.Equal(t, 16, st.Sides[0].Total)
	require.Equal(t, 15, st.Sides[1].Total)

	found, err := deps.Relay.Latest(context.Background(), wheeldto.EventGameFound)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "g1", found.Game.GameID)
	require.Equal(t, "Alice", found.Game.Black.Name)
}
