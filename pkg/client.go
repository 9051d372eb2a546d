package pkg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/qnkhuat/chessterm/pkg/board"
	"go.uber.org/zap"
)

// TCPTransport speaks the line-delimited envelope protocol. Requests are serialised: one
// request is outstanding at a time.
type TCPTransport struct {
	Conn net.Conn

	mu      sync.Mutex
	scanner *bufio.Scanner
	seq     int
	logger  *zap.Logger
}

func DialTCP(ctx context.Context, addr string, logger *zap.Logger) (*TCPTransport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	orNop(logger).Info("connected", zap.String("addr", addr))
	return NewTCPTransport(conn, logger), nil
}

func NewTCPTransport(conn net.Conn, logger *zap.Logger) *TCPTransport {
	return &TCPTransport{
		Conn:    conn,
		scanner: newLineScanner(conn),
		logger:  orNop(logger),
	}
}

func (t *TCPTransport) Close() error {
	return t.Conn.Close()
}

func (t *TCPTransport) NewGame(ctx context.Context) (GameID, error) {
	var reply MessageGameCreated
	if err := t.roundTrip(ctx, MessageNewGame{}, TypeMessageGameCreated, &reply); err != nil {
		return "", err
	}
	return reply.GameID, nil
}

func (t *TCPTransport) FetchPosition(ctx context.Context, id GameID) (Position, error) {
	var reply MessagePosition
	if err := t.roundTrip(ctx, MessageGetPosition{GameID: id}, TypeMessagePosition, &reply); err != nil {
		return Position{}, err
	}
	return reply.Position, nil
}

func (t *TCPTransport) SubmitMove(ctx context.Context, id GameID, mv board.LegalMove) (Status, error) {
	var reply MessageMoveResult
	if err := t.roundTrip(ctx, MessageMove{GameID: id, Move: mv}, TypeMessageMoveResult, &reply); err != nil {
		return "", err
	}
	return reply.Status, nil
}

func (t *TCPTransport) roundTrip(ctx context.Context, req MessageInterface, want MessageType, reply any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := t.Conn.SetDeadline(deadline); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.seq++
	if err := writeMessage(t.Conn, Wrap(t.seq, req)); err != nil {
		return err
	}
	t.logger.Debug("sent", zap.Stringer("type", req.Type()), zap.Int("seq", t.seq))

	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}
	var mt MessageTransport
	if err := Decode(t.scanner.Bytes(), &mt); err != nil {
		return err
	}
	if mt.MsgType == TypeMessageError {
		var e MessageError
		if err := Decode(mt.Data, &e); err != nil {
			return err
		}
		if e.NotFound {
			return fmt.Errorf("%w: %s", ErrGameNotFound, e.Message)
		}
		return errors.New(e.Message)
	}
	if mt.MsgType != want || mt.Seq != t.seq {
		return fmt.Errorf("%w: %s seq %d, want %s seq %d", ErrUnexpected, mt.MsgType, mt.Seq, want, t.seq)
	}
	return Decode(mt.Data, reply)
}
