package board

import (
	"strings"
)

const (
	NumRows = 8
	NumCols = 8
)

// StartingPlacement is the placement the board shows before any server position arrives.
const StartingPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR/"

// Matrix is the board in encoding order: row 0 is the first rank of the placement string
// (Black's back rank from White's side), column 0 the first square of that rank.
// Rows are normally eight cells long; a truncated encoding may leave the last row short.
type Matrix [][]Piece

// Decode parses the piece-placement field of an encoding. It never fails: characters it cannot
// interpret are reported as anomalies and skipped. A full FEN record is accepted and only its
// first field is read.
func Decode(encoding string) (Matrix, []DecodeAnomaly) {
	if i := strings.IndexAny(encoding, " \t\n"); i >= 0 {
		encoding = encoding[:i]
	}

	var (
		m         Matrix
		anomalies []DecodeAnomaly
		rank      = make([]Piece, 0, NumCols)
	)
	for off, c := range encoding {
		switch {
		case c == '/':
			m = append(m, rank)
			rank = make([]Piece, 0, NumCols)
		case c >= '1' && c <= '8':
			for n := int(c - '0'); n > 0; n-- {
				rank = append(rank, NoPiece)
			}
		default:
			p, ok := pieceFromLetter(c)
			if !ok {
				anomalies = append(anomalies, DecodeAnomaly{Offset: off, Char: c})
				continue
			}
			rank = append(rank, p)
		}
	}
	if len(rank) > 0 {
		m = append(m, rank)
	}
	return m, anomalies
}

// Encode writes the matrix back as a placement string without a trailing slash.
func Encode(m Matrix) string {
	var sb strings.Builder
	for r, rank := range m {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for _, p := range rank {
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

// At returns the piece at (row, col), or NoPiece when the cell lies outside the decoded ranks.
func (m Matrix) At(row, col int) Piece {
	if row < 0 || row >= len(m) || col < 0 || col >= len(m[row]) {
		return NoPiece
	}
	return m[row][col]
}

// Clone returns a deep copy; rows never share backing arrays with m.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for r, rank := range m {
		out[r] = append([]Piece(nil), rank...)
	}
	return out
}

// Count returns the number of occupied cells.
func (m Matrix) Count() int {
	n := 0
	for _, rank := range m {
		for _, p := range rank {
			if !p.Empty() {
				n++
			}
		}
	}
	return n
}

func (m Matrix) set(row, col int, p Piece) {
	if row < 0 || row >= len(m) || col < 0 || col >= len(m[row]) {
		return
	}
	m[row][col] = p
}
