package pkg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qnkhuat/chessterm/pkg/board"
	"go.uber.org/zap"
)

// View is a snapshot of the controller for one render.
type View struct {
	GameID    GameID
	Matrix    board.Matrix
	Promotion board.ResolverState
	Choices   []board.Kind
	// PromotionSquares is the pending promotion's origin and destination in UI coordinates.
	PromotionSquares board.Gesture
	// Waiting is set from a move submission until a fresh position has been applied.
	Waiting  bool
	Status   Status
	Message  string
	LastMove string
	Moves    int
}

// Controller owns the board state of one game and is the only thing that mutates it. It is safe
// for use from the UI goroutine and transport callbacks at once; transport calls are made without
// holding the lock.
type Controller struct {
	transport Transport
	logger    *zap.Logger

	mu       sync.Mutex
	id       GameID
	store    *board.Store
	resolver board.Resolver
	moves    []board.LegalMove
	status   Status
	message  string
	lastMove string
	inFlight bool // a submission is on the wire
	stale    bool // the last submission was not followed by a successful fetch
	onChange func(View)
}

func NewController(t Transport, logger *zap.Logger) *Controller {
	s, _ := board.NewStore(board.StartingPlacement)
	return &Controller{
		transport: t,
		logger:    orNop(logger),
		store:     s,
	}
}

// SetOnChange registers fn to be called, outside the lock, after every state change.
func (c *Controller) SetOnChange(fn func(View)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{
		GameID:    c.id,
		Matrix:    c.store.Matrix(),
		Promotion: c.resolver.State(),
		Choices:   c.resolver.Choices(),
		Waiting:   c.inFlight || c.stale,
		Status:    c.status,
		Message:   c.message,
		LastMove:  c.lastMove,
		Moves:     len(c.moves),
	}
	if mv, ok := c.resolver.Pending(); ok {
		v.PromotionSquares = board.Gesture{From: mv.From().FromServer(), To: mv.To().FromServer()}
	}
	return v
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	v := c.viewLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

func (c *Controller) GameID() GameID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// NewGame asks the server for a new game and loads its position.
func (c *Controller) NewGame(ctx context.Context) error {
	id, err := c.transport.NewGame(ctx)
	if err != nil {
		return c.failed("newGame", err)
	}
	c.logger.Info("new game", zap.String("game", string(id)))
	return c.Open(ctx, id)
}

// Open switches to an existing game.
func (c *Controller) Open(ctx context.Context, id GameID) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrPositionPending
	}
	c.id = id
	c.resolver.Cancel()
	c.lastMove = ""
	c.stale = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh fetches the position and replaces the board and legal moves with it. On failure the
// last known state is kept.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	id := c.id
	if id == "" {
		c.mu.Unlock()
		return ErrNoGame
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrPositionPending
	}
	c.mu.Unlock()

	pos, err := c.transport.FetchPosition(ctx, id)
	if err != nil {
		return c.failed("getPosition", err)
	}

	c.mu.Lock()
	if c.id != id || c.inFlight {
		c.mu.Unlock()
		return nil
	}
	c.applyLocked(pos, "")
	c.mu.Unlock()
	c.notify()
	return nil
}

// Apply takes a position pushed by the server, as Refresh would after fetching it.
func (c *Controller) Apply(id GameID, pos Position) {
	c.mu.Lock()
	if c.id != id || c.inFlight {
		c.mu.Unlock()
		return
	}
	c.applyLocked(pos, "")
	c.mu.Unlock()
	c.notify()
}

// applyLocked replaces the board and legal moves with pos. A pending promotion was matched against
// the old moves, so it is dropped.
func (c *Controller) applyLocked(pos Position, message string) {
	if c.resolver.State() == board.AwaitingChoice {
		c.resolver.Cancel()
		if message == "" {
			message = "Position changed, promotion cancelled"
		}
	}
	if anomalies := c.store.Reset(pos.Placement); len(anomalies) > 0 {
		for _, a := range anomalies {
			c.logger.Warn("placement anomaly", zap.String("placement", pos.Placement), zap.Error(a))
		}
	}
	c.moves = board.IndexMoves(pos.LegalMoves)
	if pos.Status != "" {
		c.status = pos.Status
	}
	c.stale = false
	c.message = message
}

// Gesture handles a completed drag or click pair in UI coordinates.
func (c *Controller) Gesture(ctx context.Context, g board.Gesture) error {
	c.mu.Lock()
	switch {
	case c.id == "":
		c.mu.Unlock()
		return ErrNoGame
	case c.inFlight || c.stale:
		c.mu.Unlock()
		c.logger.Debug("gesture while waiting", zap.Stringer("gesture", g))
		return ErrPositionPending
	case c.resolver.State() == board.AwaitingChoice:
		c.message = "Choose a promotion piece first"
		c.mu.Unlock()
		c.notify()
		return board.ErrPromotionPending
	}

	match := board.MatchGesture(g, c.moves)
	switch match.Kind {
	case board.NoMatch:
		c.message = "Invalid move"
		c.mu.Unlock()
		c.logger.Debug("no matching move", zap.Stringer("gesture", g))
		c.notify()
		return fmt.Errorf("%w: %s", board.ErrNoMatchingMove, g)

	case board.Promotion:
		if err := c.resolver.Begin(match.Candidates); err != nil {
			c.mu.Unlock()
			return err
		}
		c.message = "Promote to?"
		c.mu.Unlock()
		c.notify()
		return nil
	}
	id, prev := c.beginSubmitLocked(match.Move)
	c.mu.Unlock()
	return c.submit(ctx, id, match.Move, prev)
}

// ChoosePromotion finalises the pending promotion with kind.
func (c *Controller) ChoosePromotion(ctx context.Context, kind board.Kind) error {
	c.mu.Lock()
	if c.inFlight || c.stale {
		c.mu.Unlock()
		return ErrPositionPending
	}
	mv, err := c.resolver.Choose(kind)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	id, prev := c.beginSubmitLocked(mv)
	c.mu.Unlock()
	return c.submit(ctx, id, mv, prev)
}

// CancelPromotion drops the pending promotion, leaving the board as it was.
func (c *Controller) CancelPromotion() {
	c.mu.Lock()
	if c.resolver.State() == board.Idle {
		c.mu.Unlock()
		return
	}
	c.resolver.Cancel()
	c.message = ""
	c.mu.Unlock()
	c.notify()
}

// beginSubmitLocked applies mv optimistically and marks it in flight. It must run in the same
// critical section that matched mv, so no new position can replace the moves in between.
func (c *Controller) beginSubmitLocked(mv board.LegalMove) (GameID, board.Matrix) {
	prev := c.store.Apply(mv)
	c.inFlight = true
	c.lastMove = mv.Notation()
	c.message = ""
	return c.id, prev
}

// submit sends a move begun by beginSubmitLocked and re-fetches the position. Any failure puts the
// board back as it was before the move.
func (c *Controller) submit(ctx context.Context, id GameID, mv board.LegalMove, prev board.Matrix) error {
	c.notify()
	c.logger.Info("submitting move", zap.String("game", string(id)), zap.String("move", mv.Notation()), zap.Int("index", mv.Index))

	status, err := c.transport.SubmitMove(ctx, id, mv)
	if err != nil {
		c.mu.Lock()
		c.store.Restore(prev)
		c.inFlight = false
		c.lastMove = ""
		c.mu.Unlock()
		return c.failed("makeMove", err)
	}

	pos, err := c.transport.FetchPosition(ctx, id)
	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.store.Restore(prev)
		c.stale = true
		c.mu.Unlock()
		return c.failed("getPosition", err)
	}
	message := ""
	if status == StatusInvalidMove {
		message = "Move rejected by server"
		c.lastMove = ""
	} else {
		c.status = status
	}
	c.applyLocked(pos, message)
	c.mu.Unlock()
	c.notify()

	if status == StatusInvalidMove {
		return fmt.Errorf("%w: %s", ErrMoveRejected, mv.Notation())
	}
	return nil
}

// failed records a transport failure as the visible message and returns it wrapped.
func (c *Controller) failed(op string, err error) error {
	terr := &TransportError{Op: op, Err: err}
	c.logger.Warn("transport failure", zap.String("op", op), zap.Error(err))

	c.mu.Lock()
	c.message = terr.Error()
	if errors.Is(err, ErrGameNotFound) {
		c.message = "Game not found"
	}
	c.mu.Unlock()
	c.notify()
	return terr
}
