package board

import "fmt"

// Square is a (row, col) pair. Whether it is in UI or server space depends on who holds it.
type Square struct {
	Row, Col int
}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

// Gesture is a completed drag or two-click sequence in UI coordinates.
type Gesture struct {
	From, To Square
}

func (g Gesture) String() string {
	return fmt.Sprintf("%s->%s", g.From, g.To)
}

// ToServer maps UI coordinates onto the server's, whose row 0 is White's back rank.
// Inputs outside 0..7 are not checked.
func ToServer(row, col int) (int, int) {
	r := (row - 7) % 8
	if r < 0 {
		r = -r
	}
	return r, col
}

// FromServer is the inverse of ToServer; the row transform is its own inverse.
func FromServer(row, col int) (int, int) {
	return ToServer(row, col)
}

func (s Square) ToServer() Square {
	r, c := ToServer(s.Row, s.Col)
	return Square{Row: r, Col: c}
}

func (s Square) FromServer() Square {
	r, c := FromServer(s.Row, s.Col)
	return Square{Row: r, Col: c}
}
