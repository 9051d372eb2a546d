package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/qnkhuat/chessterm/pkg/board"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrNoGame       = errors.New("no game in progress")
	ErrMoveRejected = errors.New("move rejected by server")
	ErrUnexpected   = errors.New("unexpected reply")

	// ErrPositionPending is returned for gestures made while a submitted move has not yet been
	// followed by a fresh position.
	ErrPositionPending = fmt.Errorf("%w: waiting for position", board.ErrNoMatchingMove)
)

// GameID scopes every call after NewGame.
type GameID string

// Position is the server's view of a game.
type Position struct {
	Placement  string            `json:"fenPosition"`
	LegalMoves []board.LegalMove `json:"legalMoves"`
	Status     Status            `json:"status,omitempty"`
}

// Transport is the client's link to the authority owning the game.
type Transport interface {
	NewGame(ctx context.Context) (GameID, error)
	FetchPosition(ctx context.Context, id GameID) (Position, error)
	SubmitMove(ctx context.Context, id GameID, mv board.LegalMove) (Status, error)
}

// Watcher is implemented by transports that can push position changes.
type Watcher interface {
	Watch(ctx context.Context, id GameID, fn func(Position)) error
}

// TransportError wraps a failure reported by a Transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransport builds the transport named in cfg. "local" runs the authority in process.
func NewTransport(cfg ClientConfig, logger *zap.Logger) (Transport, error) {
	switch cfg.Transport {
	case TransportHTTP:
		return NewHTTPTransport(cfg.Server, cfg.Timeout), nil
	case TransportTCP:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return DialTCP(ctx, cfg.Server, logger)
	case TransportLocal:
		return NewServer(DefaultServerConfig(), nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
