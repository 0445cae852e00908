package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/piece-wheel/internal/board"
	"github.com/park285/piece-wheel/internal/lichess"
	"github.com/park285/piece-wheel/internal/msgcat"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pollResult struct {
	game *lichess.Game
	err  error
}

type fakeSource struct {
	mu       sync.Mutex
	polls    []pollResult
	pollN    int
	records  map[string][]string
	streamFn func(ctx context.Context, id string, on func([]byte)) error

	inflight atomic.Int32
	overlap  atomic.Bool
}

func (f *fakeSource) enter() func() {
	if f.inflight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	return func() { f.inflight.Add(-1) }
}

func (f *fakeSource) CurrentGame(ctx context.Context, user string) (*lichess.Game, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.pollN
	f.pollN++
	if i >= len(f.polls) {
		return &lichess.Game{ID: "old", Status: "mate"}, nil
	}
	return f.polls[i].game, f.polls[i].err
}

func (f *fakeSource) StreamGame(ctx context.Context, id string, on func([]byte)) error {
	defer f.enter()()
	if f.streamFn != nil {
		return f.streamFn(ctx, id, on)
	}
	f.mu.Lock()
	lines := f.records[id]
	f.mu.Unlock()
	for _, l := range lines {
		on([]byte(l))
	}
	return nil
}

func (f *fakeSource) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollN
}

type recordingHandler struct {
	mu        sync.Mutex
	found     []wheeldto.GameFound
	positions []board.Snapshot
	ended     []string
	statuses  []string
	calls     []string
}

func (h *recordingHandler) GameFound(g wheeldto.GameFound) {
	h.mu.Lock()
	h.found = append(h.found, g)
	h.calls = append(h.calls, "found")
	h.mu.Unlock()
}

func (h *recordingHandler) Position(s board.Snapshot) {
	h.mu.Lock()
	h.positions = append(h.positions, s)
	h.calls = append(h.calls, "position")
	h.mu.Unlock()
}

func (h *recordingHandler) GameEnded(id string) {
	h.mu.Lock()
	h.ended = append(h.ended, id)
	h.calls = append(h.calls, "ended")
	h.mu.Unlock()
}

func (h *recordingHandler) Status(st wheeldto.Status) {
	h.mu.Lock()
	h.statuses = append(h.statuses, st.Key)
	h.mu.Unlock()
}

func (h *recordingHandler) snapshot() recordingHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return recordingHandler{
		found:     append([]wheeldto.GameFound(nil), h.found...),
		positions: append([]board.Snapshot(nil), h.positions...),
		ended:     append([]string(nil), h.ended...),
		statuses:  append([]string(nil), h.statuses...),
		calls:     append([]string(nil), h.calls...),
	}
}

func startMonitor(t *testing.T, src Source, h Handler) (*Monitor, context.CancelFunc, <-chan error) {
	t.Helper()
	m := New("Magnus", src, h, WithDelay(20*time.Millisecond), WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		errc <- m.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return m, cancel, errc
}

func ongoing(id, white, black string) *lichess.Game {
	g := &lichess.Game{ID: id, Status: "started"}
	if white != "" {
		g.Players.White = lichess.Player{User: &lichess.User{Name: white}, Rating: 2800}
	}
	if black != "" {
		g.Players.Black = lichess.Player{User: &lichess.User{Name: black}, Rating: 2700}
	}
	return g
}

func TestNotFoundReschedules(t *testing.T) {
	src := &fakeSource{polls: []pollResult{{err: lichess.ErrUserNotFound}, {err: lichess.ErrUserNotFound}}}
	h := &recordingHandler{}
	startMonitor(t, src, h)

	require.Eventually(t, func() bool { return src.pollCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	st := h.snapshot().statuses
	require.Equal(t, []string{"monitoring", "checking", "not_found", "checking", "not_found"}, st[:5])
}

func TestTransportErrorReschedules(t *testing.T) {
	src := &fakeSource{polls: []pollResult{{err: &lichess.StatusError{Code: 500}}}}
	h := &recordingHandler{}
	startMonitor(t, src, h)

	require.Eventually(t, func() bool { return src.pollCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.Contains(t, h.snapshot().statuses, "check_error")
}

func TestStreamsOngoingGameThenResumes(t *testing.T) {
	src := &fakeSource{
		polls: []pollResult{{game: ongoing("g1", "magnus", "Hikaru")}},
		records: map[string][]string{"g1": {
			`{"fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}`,
			`not json`,
			`{"wc":30,"bc":30}`,
			`{"fen":"rnbqkbnr/pppp1ppp/8/8/8/8/PPPPPPPP/RNBQKBN1 w - - 0 1"}`,
		}},
	}
	h := &recordingHandler{}
	startMonitor(t, src, h)

	require.Eventually(t, func() bool { return src.pollCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	got := h.snapshot()
	require.Len(t, got.found, 1)
	require.Equal(t, "white", got.found[0].LeftColor)
	require.Equal(t, "black", got.found[0].RightColor)
	require.Equal(t, "Hikaru", got.found[0].Black.Name)
	require.Len(t, got.positions, 2)
	require.Equal(t, 16, got.positions[0].White.Total)
	require.Equal(t, 15, got.positions[1].White.Total)
	require.Equal(t, 15, got.positions[1].Black.Total)
	require.Equal(t, []string{"g1"}, got.ended)
	require.Equal(t, []string{"found", "position", "position", "ended"}, got.calls,
		"game found precedes every position and the end follows them")
	require.Subset(t, got.statuses, []string{"game_found", "streaming", "stream_complete"})
	require.False(t, src.overlap.Load())
}

func TestSubjectNotWhiteIsLeftBlack(t *testing.T) {
	src := &fakeSource{
		polls:   []pollResult{{game: ongoing("g2", "", "Magnus")}},
		records: map[string][]string{},
	}
	h := &recordingHandler{}
	startMonitor(t, src, h)

	require.Eventually(t, func() bool { return len(h.snapshot().found) == 1 }, 2*time.Second, 5*time.Millisecond)
	g := h.snapshot().found[0]
	require.Equal(t, "black", g.LeftColor)
	require.Equal(t, "Anonymous", g.White.Name)
	require.Equal(t, 0, g.White.Rating)
}

func TestStreamErrorEndsGameAndReschedules(t *testing.T) {
	src := &fakeSource{
		polls: []pollResult{{game: ongoing("g3", "Magnus", "x")}},
		streamFn: func(ctx context.Context, id string, on func([]byte)) error {
			on([]byte(`{"fen":"8/8/8/8/8/8/8/8 w - - 0 1"}`))
			return errors.New("connection reset")
		},
	}
	h := &recordingHandler{}
	startMonitor(t, src, h)

	require.Eventually(t, func() bool { return src.pollCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	got := h.snapshot()
	require.Contains(t, got.statuses, "stream_error")
	require.Equal(t, []string{"g3"}, got.ended)
	require.Len(t, got.positions, 1)
}

func TestStateDuringStreamAndCancel(t *testing.T) {
	streaming := make(chan struct{})
	src := &fakeSource{
		polls: []pollResult{{game: ongoing("g4", "Magnus", "x")}},
		streamFn: func(ctx context.Context, id string, on func([]byte)) error {
			close(streaming)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	h := &recordingHandler{}
	m, cancel, done := startMonitor(t, src, h)

	<-streaming
	require.Equal(t, Streaming, m.State())
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	require.Equal(t, Idle, m.State())
	require.Empty(t, h.snapshot().ended)
	require.Equal(t, 1, src.pollCount())
}

func TestScheduleReplacesPendingTimer(t *testing.T) {
	m := New("u", &fakeSource{}, &recordingHandler{}, WithDelay(time.Hour), WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.scheduleNextCheck(ctx)
	first := m.timer
	firstGen := m.gen
	m.scheduleNextCheck(ctx)
	require.NotSame(t, first, m.timer)
	require.Greater(t, m.gen, firstGen)
	require.False(t, first.Stop(), "previous timer should already be stopped")
	m.stopTimer()
	require.Nil(t, m.timer)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "checking", Checking.String())
	require.Equal(t, "streaming", Streaming.String())
}

func TestAnonymousNameFromCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "players.yaml"), []byte("player:\n  anonymous: Anonim\n"), 0o644))
	cat, err := msgcat.New(dir)
	require.NoError(t, err)

	src := &fakeSource{
		polls:   []pollResult{{game: ongoing("g5", "Magnus", "")}},
		records: map[string][]string{},
	}
	h := &recordingHandler{}
	m := New("Magnus", src, h, WithDelay(time.Hour), WithCatalog(cat), WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return len(h.snapshot().found) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, "Anonim", h.snapshot().found[0].Black.Name)
}

func TestNilGameWithoutErrorReschedules(t *testing.T) {
	src := &fakeSource{polls: []pollResult{{}, {}}}
	h := &recordingHandler{}
	m, _, _ := startMonitor(t, src, h)

	require.Eventually(t, func() bool { return src.pollCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.Contains(t, h.snapshot().statuses, "no_active_game")
	require.Empty(t, h.snapshot().found)
	require.NotEqual(t, Streaming, m.State())
}
