package pkg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"github.com/qnkhuat/chessterm/pkg/board"
	"github.com/qnkhuat/chessterm/pkg/store"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/sys/unix"
)

// GameStore keeps games across server restarts. *store.Games is the Postgres implementation.
type GameStore interface {
	Create(ctx context.Context, id uuid.UUID, fen, status string) error
	RecordMove(ctx context.Context, id uuid.UUID, number int, uci, notation, fen, status string, active bool) error
	Load(ctx context.Context, id uuid.UUID) (*store.Game, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Server owns every match and is the authority the clients mirror. It satisfies Transport so a
// client can also run against it in process.
type Server struct {
	cfg    ServerConfig
	games  GameStore
	logger *zap.Logger

	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
	subs    map[uuid.UUID]map[chan Position]struct{}
}

// NewServer creates a server. games may be nil to keep games in memory only.
func NewServer(cfg ServerConfig, games GameStore, logger *zap.Logger) *Server {
	if games == nil {
		games = (*store.Games)(nil)
	}
	return &Server{
		cfg:     cfg,
		games:   games,
		logger:  orNop(logger),
		matches: make(map[uuid.UUID]*Match),
		subs:    make(map[uuid.UUID]map[chan Position]struct{}),
	}
}

func (s *Server) NewGame(ctx context.Context) (GameID, error) {
	id := uuid.New()
	m := NewMatch(id, NewClock(s.cfg.IdleTimeout))

	s.mu.Lock()
	s.matches[id] = m
	s.mu.Unlock()

	if err := s.games.Create(ctx, id, m.FEN(), string(m.Status())); err != nil {
		s.logger.Warn("failed to persist game", zap.Stringer("game", id), zap.Error(err))
	}
	s.logger.Info("new game", zap.Stringer("game", id))
	return GameID(id.String()), nil
}

func (s *Server) FetchPosition(ctx context.Context, id GameID) (Position, error) {
	m, err := s.match(ctx, id)
	if err != nil {
		return Position{}, err
	}
	return m.Position(), nil
}

// SubmitMove plays mv. A move that is not legal is reported as StatusInvalidMove, not as an error.
func (s *Server) SubmitMove(ctx context.Context, id GameID, mv board.LegalMove) (Status, error) {
	m, err := s.match(ctx, id)
	if err != nil {
		return "", err
	}
	return s.played(ctx, m, func() (Played, error) { return m.Move(mv) })
}

// SubmitMoveIndex plays the move at index i of the current legal-move list.
func (s *Server) SubmitMoveIndex(ctx context.Context, id GameID, i int) (Status, error) {
	m, err := s.match(ctx, id)
	if err != nil {
		return "", err
	}
	return s.played(ctx, m, func() (Played, error) { return m.MoveIndex(i) })
}

func (s *Server) played(ctx context.Context, m *Match, play func() (Played, error)) (Status, error) {
	p, err := play()
	if errors.Is(err, ErrMoveRejected) {
		s.logger.Info("rejected move", zap.Stringer("game", m.ID), zap.Error(err))
		return StatusInvalidMove, nil
	}
	if err != nil {
		return "", err
	}
	s.logger.Info("move",
		zap.Stringer("game", m.ID),
		zap.Int("ply", p.Ply),
		zap.String("uci", p.UCI),
		zap.String("status", string(p.Status)))

	if err := s.games.RecordMove(ctx, m.ID, p.Ply, p.UCI, p.Notation, m.FEN(), string(p.Status), !p.Status.Over()); err != nil {
		s.logger.Warn("failed to persist move", zap.Stringer("game", m.ID), zap.Error(err))
	}
	s.publish(m.ID, m.Position())
	return p.Status, nil
}

// match finds a match in memory or, failing that, in the game store.
func (s *Server) match(ctx context.Context, id GameID) (*Match, error) {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrGameNotFound, id)
	}

	s.mu.RLock()
	m, ok := s.matches[uid]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	stored, err := s.games.Load(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	m, err = MatchFromFEN(uid, stored.FEN, NewClock(s.cfg.IdleTimeout))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.matches[uid]; ok {
		return existing, nil
	}
	s.matches[uid] = m
	s.logger.Info("restored game", zap.Stringer("game", uid), zap.Int("moves", len(stored.Moves)))
	return m, nil
}

// Subscribe returns a channel receiving the position after every move of the game.
// Slow subscribers miss updates rather than block a move.
func (s *Server) Subscribe(ctx context.Context, id GameID) (<-chan Position, func(), error) {
	m, err := s.match(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan Position, 1)

	s.mu.Lock()
	if s.subs[m.ID] == nil {
		s.subs[m.ID] = make(map[chan Position]struct{})
	}
	s.subs[m.ID][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[m.ID], ch)
			if len(s.subs[m.ID]) == 0 {
				delete(s.subs, m.ID)
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// Watch calls fn with every new position of the game until ctx is done.
func (s *Server) Watch(ctx context.Context, id GameID, fn func(Position)) error {
	updates, cancel, err := s.Subscribe(ctx, id)
	if err != nil {
		return err
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-updates:
			fn(p)
		}
	}
}

func (s *Server) publish(id uuid.UUID, p Position) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs[id] {
		select {
		case ch <- p:
		default:
		}
	}
}

// Matches returns the number of matches held in memory.
func (s *Server) Matches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// CleanIdleMatches drops matches idle for longer than the configured timeout, every interval,
// until ctx is done. Dropped matches stay in the game store and are restored on next use.
func (s *Server) CleanIdleMatches(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanIdle(ctx)
		}
	}
}

func (s *Server) cleanIdle(ctx context.Context) int {
	var idle []uuid.UUID
	s.mu.Lock()
	for id, m := range s.matches {
		if m.Clock.Expired() && len(s.subs[id]) == 0 {
			s.logger.Info("dropping idle game", zap.Stringer("game", id), zap.Stringer("idle", m.Clock))
			delete(s.matches, id)
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	for _, id := range idle {
		if err := s.games.Deactivate(ctx, id); err != nil {
			s.logger.Warn("failed to deactivate game", zap.Stringer("game", id), zap.Error(err))
		}
	}
	return len(idle)
}

// ListenTCP accepts envelope-protocol clients on addr until ctx is done.
func (s *Server) ListenTCP(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("listening", zap.String("proto", "tcp"), zap.String("addr", addr))
	return s.ServeTCP(ctx, listener)
}

func (s *Server) ServeTCP(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("failed to accept", zap.Error(err))
			continue
		}
		go s.HandleConn(ctx, NewServerConn(conn, s.logger))
	}
}

func (s *Server) HandleConn(ctx context.Context, sc *ServerConn) {
	sc.logger.Info("connected", zap.Stringer("remote", sc.Conn.RemoteAddr()))
	defer sc.Disconnect()

	done := make(chan struct{})
	go func() {
		sc.HandleWrite()
		close(done)
	}()
	sc.HandleRead(func(mt MessageTransport) {
		sc.Out <- s.handleMessage(ctx, mt)
	})
	close(sc.Out)
	<-done
	sc.logger.Info("disconnected")
}

func (s *Server) handleMessage(ctx context.Context, mt MessageTransport) MessageTransport {
	fail := func(err error) MessageTransport {
		return Wrap(mt.Seq, MessageError{Message: err.Error(), NotFound: errors.Is(err, ErrGameNotFound)})
	}

	switch mt.MsgType {
	case TypeMessageNewGame:
		id, err := s.NewGame(ctx)
		if err != nil {
			return fail(err)
		}
		return Wrap(mt.Seq, MessageGameCreated{GameID: id})

	case TypeMessageGetPosition:
		var req MessageGetPosition
		if err := Decode(mt.Data, &req); err != nil {
			return fail(err)
		}
		pos, err := s.FetchPosition(ctx, req.GameID)
		if err != nil {
			return fail(err)
		}
		return Wrap(mt.Seq, MessagePosition{GameID: req.GameID, Position: pos})

	case TypeMessageMove:
		var req MessageMove
		if err := Decode(mt.Data, &req); err != nil {
			return fail(err)
		}
		status, err := s.SubmitMove(ctx, req.GameID, req.Move)
		if err != nil {
			return fail(err)
		}
		return Wrap(mt.Seq, MessageMoveResult{GameID: req.GameID, Status: status})

	default:
		return fail(fmt.Errorf("%w: %s", ErrUnexpected, mt.MsgType))
	}
}

func setWinsize(f *os.File, w, h int) error {
	return unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, &unix.Winsize{Row: uint16(h), Col: uint16(w)})
}

// sshHandler runs the terminal client in a pty for every interactive session.
func sshHandler(clientCmd string, logger *zap.Logger) ssh.Handler {
	argv := strings.Fields(clientCmd)
	return func(sess ssh.Session) {
		ptyReq, winCh, isPty := sess.Pty()
		if !isPty {
			io.WriteString(sess, "non-interactive terminals are not supported\n")
			sess.Exit(1)
			return
		}
		log := logger.With(zap.String("user", sess.User()), zap.Stringer("remote", sess.RemoteAddr()))

		cmdCtx, cancelCmd := context.WithCancel(sess.Context())
		defer cancelCmd()

		cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
		cmd.Env = append(sess.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

		f, err := pty.Start(cmd)
		if err != nil {
			io.WriteString(sess, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
			sess.Exit(1)
			return
		}
		defer f.Close()
		log.Info("ssh session started")

		if err := setWinsize(f, ptyReq.Window.Width, ptyReq.Window.Height); err != nil {
			log.Warn("failed to set window size", zap.Error(err))
		}
		go func() {
			for win := range winCh {
				setWinsize(f, win.Width, win.Height)
			}
		}()
		go func() {
			io.Copy(f, sess)
		}()
		io.Copy(sess, f)

		f.Close()
		cmd.Wait()
		log.Info("ssh session ended")
	}
}

// NewSSHServer builds the ssh front door that launches the terminal client for each session.
func NewSSHServer(cfg ServerConfig, logger *zap.Logger) (*ssh.Server, error) {
	logger = orNop(logger)
	if strings.TrimSpace(cfg.ClientCmd) == "" {
		return nil, errors.New("ssh: no client command")
	}
	keyData, err := os.ReadFile(cfg.HostKey)
	if err != nil {
		return nil, fmt.Errorf("ssh: reading host key: %w", err)
	}
	signer, err := gossh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("ssh: parsing host key: %w", err)
	}

	s := &ssh.Server{
		Addr:        cfg.SSHAddr,
		IdleTimeout: cfg.IdleTimeout,
		Handler:     sshHandler(cfg.ClientCmd, logger),
	}
	s.AddHostKey(signer)
	return s, nil
}
