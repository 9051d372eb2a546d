package board

// ApplyOptimistic returns a copy of m with mv played on it. m is indexed in UI coordinates and mv
// carries server coordinates. The input matrix is left untouched.
func ApplyOptimistic(m Matrix, mv LegalMove) Matrix {
	out := m.Clone()
	from := mv.From().FromServer()
	to := mv.To().FromServer()

	moving := out.At(from.Row, from.Col)
	out.set(from.Row, from.Col, NoPiece)

	switch {
	case mv.Class == EnPassant:
		out.set(from.Row, to.Col, NoPiece)
	case mv.Class == Castle:
		rookFrom, rookTo := 7, 5
		if to.Col == 2 {
			rookFrom, rookTo = 0, 3
		}
		rook := out.At(to.Row, rookFrom)
		out.set(to.Row, rookFrom, NoPiece)
		out.set(to.Row, rookTo, rook)
	case mv.Class.IsPromotion() && !moving.Empty():
		moving = Piece{Color: moving.Color, Kind: mv.Class.PromotionKind()}
	}
	out.set(to.Row, to.Col, moving)
	return out
}

// Store holds the matrix currently shown.
type Store struct {
	matrix Matrix
}

// NewStore returns a store decoded from encoding along with any anomalies found in it.
func NewStore(encoding string) (*Store, []DecodeAnomaly) {
	s := &Store{}
	anomalies := s.Reset(encoding)
	return s, anomalies
}

// Reset replaces the matrix from a fresh encoding, discarding any optimistic mutation.
func (s *Store) Reset(encoding string) []DecodeAnomaly {
	m, anomalies := Decode(encoding)
	s.matrix = m
	return anomalies
}

// Restore puts back a matrix saved with Matrix, e.g. after a failed submission.
func (s *Store) Restore(m Matrix) {
	s.matrix = m.Clone()
}

// Apply plays mv optimistically and returns the matrix as it was before.
func (s *Store) Apply(mv LegalMove) Matrix {
	prev := s.matrix
	s.matrix = ApplyOptimistic(prev, mv)
	return prev
}

// Matrix returns a copy of the current matrix.
func (s *Store) Matrix() Matrix {
	return s.matrix.Clone()
}
