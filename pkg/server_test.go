package pkg

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/qnkhuat/chessterm/pkg/board"
	"github.com/qnkhuat/chessterm/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.IdleTimeout = time.Minute
	return NewServer(cfg, nil, nil)
}

// putMatch installs a match starting from fen and returns its id.
func putMatch(t *testing.T, s *Server, fen string) GameID {
	t.Helper()
	id := uuid.New()
	m, err := MatchFromFEN(id, fen, NewClock(s.cfg.IdleTimeout))
	if err != nil {
		t.Fatalf("MatchFromFEN: %v", err)
	}
	s.mu.Lock()
	s.matches[id] = m
	s.mu.Unlock()
	return GameID(id.String())
}

func moveBySquares(t *testing.T, pos Position, from, to board.Square) board.LegalMove {
	t.Helper()
	for _, mv := range pos.LegalMoves {
		if mv.From() == from && mv.To() == to {
			return mv
		}
	}
	t.Fatalf("no legal move %v -> %v", from, to)
	return board.LegalMove{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerUnknownGame(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	for _, id := range []GameID{"not-a-uuid", GameID(uuid.New().String())} {
		if _, err := s.FetchPosition(ctx, id); !errors.Is(err, ErrGameNotFound) {
			t.Errorf("FetchPosition(%s) err = %v, want ErrGameNotFound", id, err)
		}
		if _, err := s.SubmitMove(ctx, id, board.LegalMove{}); !errors.Is(err, ErrGameNotFound) {
			t.Errorf("SubmitMove(%s) err = %v, want ErrGameNotFound", id, err)
		}
	}
}

func TestServerSubmitMove(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id, err := s.NewGame(ctx)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	status, err := s.SubmitMove(ctx, id, sq(1, 4, 5, 4))
	if err != nil || status != StatusInvalidMove {
		t.Fatalf("illegal move: status %s err %v", status, err)
	}

	status, err = s.SubmitMoveIndex(ctx, id, 0)
	if err != nil || status != StatusBlackToMove {
		t.Fatalf("SubmitMoveIndex: status %s err %v", status, err)
	}
	pos, _ := s.FetchPosition(ctx, id)
	if pos.Status != StatusBlackToMove {
		t.Errorf("position status = %s", pos.Status)
	}
}

func TestServerSubscribe(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id, _ := s.NewGame(ctx)

	updates, cancel, err := s.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	pos, _ := s.FetchPosition(ctx, id)
	if _, err := s.SubmitMove(ctx, id, moveBySquares(t, pos, board.Square{Row: 1, Col: 4}, board.Square{Row: 3, Col: 4})); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	select {
	case p := <-updates:
		if p.Placement != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR" {
			t.Errorf("pushed placement = %q", p.Placement)
		}
	case <-time.After(time.Second):
		t.Fatal("no update pushed")
	}
	cancel()
	cancel()
	if len(s.subs) != 0 {
		t.Errorf("subscriptions left after cancel: %d", len(s.subs))
	}
}

func TestServerCleanIdle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	idle, _ := s.NewGame(ctx)
	busy, _ := s.NewGame(ctx)

	now := time.Now().Add(2 * time.Minute)
	s.mu.RLock()
	for id, m := range s.matches {
		if id.String() == string(idle) {
			m.Clock.now = func() time.Time { return now }
		}
	}
	s.mu.RUnlock()

	if n := s.cleanIdle(ctx); n != 1 {
		t.Fatalf("cleaned %d matches, want 1", n)
	}
	if s.Matches() != 1 {
		t.Errorf("%d matches left, want 1", s.Matches())
	}
	if _, err := s.FetchPosition(ctx, idle); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("idle game still reachable: %v", err)
	}
	if _, err := s.FetchPosition(ctx, busy); err != nil {
		t.Errorf("busy game: %v", err)
	}
}

// memoryGames is a GameStore kept in a map.
type memoryGames struct {
	mu    sync.Mutex
	games map[uuid.UUID]*store.Game
}

func newMemoryGames() *memoryGames {
	return &memoryGames{games: make(map[uuid.UUID]*store.Game)}
}

func (g *memoryGames) Create(_ context.Context, id uuid.UUID, fen, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.games[id]; !ok {
		g.games[id] = &store.Game{ID: id, FEN: fen, Status: status, Active: true}
	}
	return nil
}

func (g *memoryGames) RecordMove(_ context.Context, id uuid.UUID, number int, uci, notation, fen, status string, active bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[id]
	if !ok {
		return store.ErrNotFound
	}
	game.Moves = append(game.Moves, store.Move{ID: uuid.New(), GameID: id, Number: number, UCI: uci, Notation: notation})
	game.FEN, game.Status, game.Active = fen, status, active
	return nil
}

func (g *memoryGames) Load(_ context.Context, id uuid.UUID) (*store.Game, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *game
	cp.Moves = append([]store.Move(nil), game.Moves...)
	return &cp, nil
}

func (g *memoryGames) Deactivate(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if game, ok := g.games[id]; ok {
		game.Active = false
	}
	return nil
}

func TestServerResumesStoredGame(t *testing.T) {
	games := newMemoryGames()
	ctx := context.Background()
	cfg := DefaultServerConfig()
	cfg.IdleTimeout = time.Minute

	first := NewServer(cfg, games, nil)
	id, err := first.NewGame(ctx)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	start, _ := first.FetchPosition(ctx, id)
	if _, err := first.SubmitMove(ctx, id, moveBySquares(t, start, board.Square{Row: 1, Col: 4}, board.Square{Row: 3, Col: 4})); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	want, _ := first.FetchPosition(ctx, id)

	uid := uuid.MustParse(string(id))
	stored, err := games.Load(ctx, uid)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored.Moves) != 1 || stored.Moves[0].UCI != "e2e4" || stored.Status != string(StatusBlackToMove) {
		t.Errorf("stored game = %+v", stored)
	}

	second := NewServer(cfg, games, nil)
	got, err := second.FetchPosition(ctx, id)
	if err != nil {
		t.Fatalf("FetchPosition after restart: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resumed position mismatch (-want +got):\n%s", diff)
	}
	if second.Matches() != 1 {
		t.Errorf("%d matches held after resume, want 1", second.Matches())
	}
	if _, err := second.FetchPosition(ctx, GameID(uuid.NewString())); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("unknown game err = %v, want ErrGameNotFound", err)
	}

	status, err := second.SubmitMoveIndex(ctx, id, 0)
	if err != nil || status != StatusWhiteToMove {
		t.Fatalf("move after resume: status %s err %v", status, err)
	}
	if stored, _ := games.Load(ctx, uid); len(stored.Moves) != 2 {
		t.Errorf("%d moves stored, want 2", len(stored.Moves))
	}
}

func TestTCPTransport(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go s.ServeTCP(ctx, ln)

	tr, err := DialTCP(ctx, ln.Addr().String(), nil)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer tr.Close()

	id, err := tr.NewGame(ctx)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	pos, err := tr.FetchPosition(ctx, id)
	if err != nil {
		t.Fatalf("FetchPosition: %v", err)
	}
	if len(pos.LegalMoves) != 20 {
		t.Fatalf("got %d legal moves", len(pos.LegalMoves))
	}
	mv := moveBySquares(t, pos, board.Square{Row: 0, Col: 6}, board.Square{Row: 2, Col: 5})
	status, err := tr.SubmitMove(ctx, id, mv)
	if err != nil || status != StatusBlackToMove {
		t.Fatalf("SubmitMove: status %s err %v", status, err)
	}
	status, err = tr.SubmitMove(ctx, id, mv)
	if err != nil || status != StatusInvalidMove {
		t.Fatalf("replayed move: status %s err %v", status, err)
	}
	if _, err := tr.FetchPosition(ctx, GameID(uuid.New().String())); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("unknown game err = %v", err)
	}
}

func TestServerConfigValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.SSHAddr = SshPort
	if err := cfg.Validate(); err == nil {
		t.Error("ssh without host key accepted")
	}
	if err := (ServerConfig{}).Validate(); err == nil {
		t.Error("config without listeners accepted")
	}
}

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*ClientConfig)
		ok   bool
	}{
		{"default", func(*ClientConfig) {}, true},
		{"local without server", func(c *ClientConfig) { c.Transport = TransportLocal; c.Server = "" }, true},
		{"unknown transport", func(c *ClientConfig) { c.Transport = "pigeon" }, false},
		{"unknown gestures", func(c *ClientConfig) { c.Gestures = "swipe" }, false},
		{"missing server", func(c *ClientConfig) { c.Server = "" }, false},
		{"zero timeout", func(c *ClientConfig) { c.Timeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.edit(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
