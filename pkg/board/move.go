package board

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MoveClass is the server's move-type tag.
type MoveClass string

const (
	Standard         MoveClass = "STANDARD"
	Capture          MoveClass = "CAPTURE"
	EnPassant        MoveClass = "EN_PASSANT"
	Castle           MoveClass = "CASTLE"
	PromotionKnight  MoveClass = "PROMOTION_KNIGHT"
	PromotionBishop  MoveClass = "PROMOTION_BISHOP"
	PromotionRook    MoveClass = "PROMOTION_ROOK"
	PromotionQueen   MoveClass = "PROMOTION_QUEEN"
	unknownMoveClass MoveClass = ""
)

// IsPromotion reports whether the class is one of the four promotion variants.
func (c MoveClass) IsPromotion() bool {
	return c.PromotionKind() != NoKind
}

// PromotionKind returns the piece a promotion class turns the pawn into, or NoKind.
func (c MoveClass) PromotionKind() Kind {
	switch c {
	case PromotionKnight:
		return Knight
	case PromotionBishop:
		return Bishop
	case PromotionRook:
		return Rook
	case PromotionQueen:
		return Queen
	default:
		return NoKind
	}
}

// PromotionClass is the inverse of PromotionKind.
func PromotionClass(k Kind) MoveClass {
	switch k {
	case Knight:
		return PromotionKnight
	case Bishop:
		return PromotionBishop
	case Rook:
		return PromotionRook
	case Queen:
		return PromotionQueen
	default:
		return unknownMoveClass
	}
}

// LegalMove is one entry of the server's legal-move list. Coordinates are in server space.
// Fields other than the coordinates and class are kept verbatim in Raw and echoed back.
type LegalMove struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
	Class    MoveClass
	Piece    Kind // moving piece, when the server sends it

	// Index is the position of the move in the list it was received in.
	Index int

	// Raw is the JSON object as received from the server.
	Raw json.RawMessage
}

func (m LegalMove) From() Square { return Square{Row: m.StartRow, Col: m.StartCol} }
func (m LegalMove) To() Square   { return Square{Row: m.EndRow, Col: m.EndCol} }

// SameSquares reports whether both moves share origin and destination.
func (m LegalMove) SameSquares(o LegalMove) bool {
	return m.From() == o.From() && m.To() == o.To()
}

// wireMove is the server's field layout. The start*/end* names come from an older DTO and are
// still accepted on decode.
type wireMove struct {
	InitialRow *int      `json:"initialRow,omitempty"`
	InitialCol *int      `json:"initialCol,omitempty"`
	FinalRow   *int      `json:"finalRow,omitempty"`
	FinalCol   *int      `json:"finalCol,omitempty"`
	StartRow   *int      `json:"startRow,omitempty"`
	StartCol   *int      `json:"startCol,omitempty"`
	EndRow     *int      `json:"endRow,omitempty"`
	EndCol     *int      `json:"endCol,omitempty"`
	MoveType   MoveClass `json:"moveType"`
	PieceType  string    `json:"typeOfPiece,omitempty"`
}

func firstOf(a, b *int) (int, bool) {
	if a != nil {
		return *a, true
	}
	if b != nil {
		return *b, true
	}
	return 0, false
}

func (m *LegalMove) UnmarshalJSON(data []byte) error {
	var w wireMove
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var ok [4]bool
	m.StartRow, ok[0] = firstOf(w.InitialRow, w.StartRow)
	m.StartCol, ok[1] = firstOf(w.InitialCol, w.StartCol)
	m.EndRow, ok[2] = firstOf(w.FinalRow, w.EndRow)
	m.EndCol, ok[3] = firstOf(w.FinalCol, w.EndCol)
	for _, present := range ok {
		if !present {
			return fmt.Errorf("legal move %s: missing coordinates", data)
		}
	}
	m.Class = w.MoveType
	m.Piece = kindFromName(w.PieceType)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON echoes the payload as received; moves built locally are written in the
// server's field layout.
func (m LegalMove) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	w := wireMove{
		InitialRow: &m.StartRow,
		InitialCol: &m.StartCol,
		FinalRow:   &m.EndRow,
		FinalCol:   &m.EndCol,
		MoveType:   m.Class,
	}
	if m.Piece != NoKind {
		w.PieceType = strings.ToUpper(m.Piece.String())
	}
	return json.Marshal(w)
}

func kindFromName(name string) Kind {
	switch strings.ToUpper(name) {
	case "PAWN":
		return Pawn
	case "KNIGHT":
		return Knight
	case "BISHOP":
		return Bishop
	case "ROOK":
		return Rook
	case "QUEEN":
		return Queen
	case "KING":
		return King
	default:
		return NoKind
	}
}

// Notation renders the move in short algebraic form from its coordinates and class alone.
// Server rows count from White's back rank, so row 0 is rank 1.
func (m LegalMove) Notation() string {
	file := func(col int) string { return string(rune('a' + col)) }
	dest := fmt.Sprintf("%s%d", file(m.EndCol), m.EndRow+1)

	if m.Class == Castle {
		if m.EndCol == 2 {
			return "O-O-O"
		}
		return "O-O"
	}
	if m.Piece == Pawn || m.Class == EnPassant || m.Class.IsPromotion() {
		s := dest
		if m.Class == Capture || m.Class == EnPassant || (m.Class.IsPromotion() && m.StartCol != m.EndCol) {
			s = file(m.StartCol) + "x" + dest
		}
		if k := m.Class.PromotionKind(); k != NoKind {
			s += "=" + string(Piece{Kind: k}.Letter())
		}
		return s
	}
	prefix := ""
	if m.Piece != NoKind {
		prefix = string(Piece{Kind: m.Piece}.Letter())
	}
	if m.Class == Capture {
		return prefix + "x" + dest
	}
	return prefix + dest
}

// IndexMoves stamps each move with its position in the list.
func IndexMoves(moves []LegalMove) []LegalMove {
	for i := range moves {
		moves[i].Index = i
	}
	return moves
}
