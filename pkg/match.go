package pkg

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"github.com/qnkhuat/chessterm/pkg/board"
)

// Status is the game state string reported after each move.
type Status string

const (
	StatusWhiteToMove  Status = "WHITE_TO_MOVE"
	StatusBlackToMove  Status = "BLACK_TO_MOVE"
	StatusVictoryWhite Status = "VICTORY_WHITE"
	StatusVictoryBlack Status = "VICTORY_BLACK"
	StatusStalemate    Status = "STALEMATE"
	StatusDraw         Status = "DRAW"
	StatusInvalidMove  Status = "INVALID_MOVE"
)

// Over reports whether the status ends the game.
func (s Status) Over() bool {
	switch s {
	case StatusVictoryWhite, StatusVictoryBlack, StatusStalemate, StatusDraw:
		return true
	}
	return false
}

func (s Status) Text() string {
	switch s {
	case StatusWhiteToMove:
		return "White to move"
	case StatusBlackToMove:
		return "Black to move"
	case StatusVictoryWhite:
		return "White wins"
	case StatusVictoryBlack:
		return "Black wins"
	case StatusStalemate:
		return "Stalemate"
	case StatusDraw:
		return "Draw"
	case StatusInvalidMove:
		return "Invalid move"
	default:
		return string(s)
	}
}

// Match is one game held by the server. notnil/chess is the authority on legality.
type Match struct {
	ID    uuid.UUID
	Clock *Clock

	mu   sync.Mutex
	game *chess.Game
}

func NewMatch(id uuid.UUID, clock *Clock) *Match {
	if clock == nil {
		clock = NewClock(0)
	}
	return &Match{
		ID:    id,
		Clock: clock,
		game:  chess.NewGame(chess.UseNotation(chess.UCINotation{})),
	}
}

// MatchFromFEN restores a match from a stored FEN record.
func MatchFromFEN(id uuid.UUID, fen string, clock *Clock) (*Match, error) {
	game, err := GameFromFEN(fen)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = NewClock(0)
	}
	return &Match{ID: id, Clock: clock, game: game}, nil
}

func (m *Match) FEN() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.FEN()
}

func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return statusOf(m.game)
}

// Position returns the placement and the legal moves of the side to move.
func (m *Match) Position() Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clock.Touch()
	return positionOf(m.game)
}

// Played is the outcome of a move accepted by a match.
type Played struct {
	Ply      int
	UCI      string
	Notation string
	Status   Status
}

// Move plays mv if it is legal in the current position. Only the squares and, for promotions,
// the class have to agree with a generated move.
func (m *Match) Move(mv board.LegalMove) (Played, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clock.Touch()
	return m.moveLocked(mv)
}

// MoveIndex plays the move at index i of the current legal-move list. The list is built and the
// move played under one lock, so i always refers to the position it is played in.
func (m *Match) MoveIndex(i int) (Played, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clock.Touch()

	moves := positionOf(m.game).LegalMoves
	if i < 0 || i >= len(moves) {
		return Played{Status: StatusInvalidMove}, fmt.Errorf("%w: index %d of %d", ErrMoveRejected, i, len(moves))
	}
	return m.moveLocked(moves[i])
}

func (m *Match) moveLocked(mv board.LegalMove) (Played, error) {
	pos := m.game.Position()
	for _, cm := range m.game.ValidMoves() {
		lm := LegalMoveFromChess(pos, cm)
		if !lm.SameSquares(mv) {
			continue
		}
		if lm.Class.IsPromotion() && lm.Class != mv.Class {
			continue
		}
		if err := m.game.Move(cm); err != nil {
			return Played{}, err
		}
		return Played{
			Ply:      len(m.game.Moves()),
			UCI:      cm.String(),
			Notation: lm.Notation(),
			Status:   statusOf(m.game),
		}, nil
	}
	return Played{Status: StatusInvalidMove}, fmt.Errorf("%w: %s", ErrMoveRejected, mv.Notation())
}

func positionOf(g *chess.Game) Position {
	pos := g.Position()
	p := Position{
		Placement: pos.Board().String(),
		Status:    statusOf(g),
	}
	if g.Outcome() != chess.NoOutcome {
		p.LegalMoves = []board.LegalMove{}
		return p
	}
	valid := g.ValidMoves()
	p.LegalMoves = make([]board.LegalMove, 0, len(valid))
	for _, cm := range valid {
		p.LegalMoves = append(p.LegalMoves, LegalMoveFromChess(pos, cm))
	}
	board.IndexMoves(p.LegalMoves)
	return p
}

func statusOf(g *chess.Game) Status {
	switch g.Outcome() {
	case chess.WhiteWon:
		return StatusVictoryWhite
	case chess.BlackWon:
		return StatusVictoryBlack
	case chess.Draw:
		if g.Method() == chess.Stalemate {
			return StatusStalemate
		}
		return StatusDraw
	}
	if g.Position().Turn() == chess.White {
		return StatusWhiteToMove
	}
	return StatusBlackToMove
}

var kindOfPiece = map[chess.PieceType]board.Kind{
	chess.Pawn:   board.Pawn,
	chess.Knight: board.Knight,
	chess.Bishop: board.Bishop,
	chess.Rook:   board.Rook,
	chess.Queen:  board.Queen,
	chess.King:   board.King,
}

// LegalMoveFromChess describes cm in server coordinates: row is the rank index, column the file.
func LegalMoveFromChess(pos *chess.Position, cm *chess.Move) board.LegalMove {
	lm := board.LegalMove{
		StartRow: int(cm.S1().Rank()),
		StartCol: int(cm.S1().File()),
		EndRow:   int(cm.S2().Rank()),
		EndCol:   int(cm.S2().File()),
		Class:    board.Standard,
		Piece:    kindOfPiece[pos.Board().Piece(cm.S1()).Type()],
	}
	switch {
	case cm.HasTag(chess.EnPassant):
		lm.Class = board.EnPassant
	case cm.HasTag(chess.KingSideCastle), cm.HasTag(chess.QueenSideCastle):
		lm.Class = board.Castle
	case cm.Promo() != chess.NoPieceType:
		lm.Class = board.PromotionClass(kindOfPiece[cm.Promo()])
	case cm.HasTag(chess.Capture):
		lm.Class = board.Capture
	}
	return lm
}
