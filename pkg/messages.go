package pkg

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/qnkhuat/chessterm/pkg/board"
)

type MessageType int

const (
	TypeMessageTransport MessageType = iota
	TypeMessageNewGame
	TypeMessageGameCreated
	TypeMessageGetPosition
	TypeMessagePosition
	TypeMessageMove
	TypeMessageMoveResult
	TypeMessageError
)

func (m MessageType) String() string {
	switch m {
	case TypeMessageTransport:
		return "TypeMessageTransport"
	case TypeMessageNewGame:
		return "TypeMessageNewGame"
	case TypeMessageGameCreated:
		return "TypeMessageGameCreated"
	case TypeMessageGetPosition:
		return "TypeMessageGetPosition"
	case TypeMessagePosition:
		return "TypeMessagePosition"
	case TypeMessageMove:
		return "TypeMessageMove"
	case TypeMessageMoveResult:
		return "TypeMessageMoveResult"
	case TypeMessageError:
		return "TypeMessageError"
	default:
		return "Unknown MessageType"
	}
}

type MessageInterface interface {
	Type() MessageType
}

// MessageTransport is the envelope written one per line on the TCP connection.
// Seq pairs a reply with its request.
type MessageTransport struct {
	MsgType MessageType
	Seq     int
	Data    json.RawMessage
}

func (m MessageTransport) Type() MessageType { return TypeMessageTransport }

// Wrap puts m in an envelope.
func Wrap(seq int, m MessageInterface) MessageTransport {
	return MessageTransport{MsgType: m.Type(), Seq: seq, Data: Encode(m)}
}

type MessageNewGame struct{}

func (m MessageNewGame) Type() MessageType { return TypeMessageNewGame }

type MessageGameCreated struct {
	GameID GameID
}

func (m MessageGameCreated) Type() MessageType { return TypeMessageGameCreated }

type MessageGetPosition struct {
	GameID GameID
}

func (m MessageGetPosition) Type() MessageType { return TypeMessageGetPosition }

type MessagePosition struct {
	GameID   GameID
	Position Position
}

func (m MessagePosition) Type() MessageType { return TypeMessagePosition }

type MessageMove struct {
	GameID GameID
	Move   board.LegalMove
}

func (m MessageMove) Type() MessageType { return TypeMessageMove }

type MessageMoveResult struct {
	GameID GameID
	Status Status
}

func (m MessageMoveResult) Type() MessageType { return TypeMessageMoveResult }

type MessageError struct {
	Message  string
	NotFound bool
}

func (m MessageError) Type() MessageType { return TypeMessageError }

func writeMessage(w io.Writer, mt MessageTransport) error {
	b := Encode(mt)
	b = append(b, '\n')
	_, err := w.Write(b)
	return err
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return scanner
}
