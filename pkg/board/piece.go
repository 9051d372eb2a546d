// Package board holds the client-side view of a server-owned chess game: it decodes placement
// encodings, maps UI gestures onto the server's legal moves, resolves promotions and applies
// optimistic moves until the next authoritative position arrives.
package board

import "unicode"

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

type Kind int

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	names := []string{"None", "Pawn", "Knight", "Bishop", "Rook", "Queen", "King"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Piece is the content of one board cell. The zero value is an empty cell.
type Piece struct {
	Color Color
	Kind  Kind
}

var NoPiece = Piece{}

func (p Piece) Empty() bool {
	return p.Kind == NoKind
}

// Letter returns the placement letter: upper case for White, lower case for Black.
func (p Piece) Letter() rune {
	letters := []rune{' ', 'P', 'N', 'B', 'R', 'Q', 'K'}
	if int(p.Kind) >= len(letters) {
		return '?'
	}
	l := letters[p.Kind]
	if p.Color == Black {
		return unicode.ToLower(l)
	}
	return l
}

// Symbol returns the unicode chess glyph for the piece, or a space for an empty cell.
func (p Piece) Symbol() rune {
	white := []rune{' ', '♙', '♘', '♗', '♖', '♕', '♔'}
	black := []rune{' ', '♟', '♞', '♝', '♜', '♛', '♚'}
	if int(p.Kind) >= len(white) {
		return '?'
	}
	if p.Color == Black {
		return black[p.Kind]
	}
	return white[p.Kind]
}

func (p Piece) String() string {
	if p.Empty() {
		return "-"
	}
	return string(p.Letter())
}

func pieceFromLetter(c rune) (Piece, bool) {
	var kind Kind
	switch unicode.ToLower(c) {
	case 'p':
		kind = Pawn
	case 'n':
		kind = Knight
	case 'b':
		kind = Bishop
	case 'r':
		kind = Rook
	case 'q':
		kind = Queen
	case 'k':
		kind = King
	default:
		return NoPiece, false
	}
	color := White
	if unicode.IsLower(c) {
		color = Black
	}
	return Piece{Color: color, Kind: kind}, true
}
