package gui

import (
	"github.com/qnkhuat/chessterm/pkg"
	"github.com/qnkhuat/chessterm/pkg/board"
)

// GestureSource turns pointer presses and releases on squares into completed gestures, passed to
// its OnGestureComplete. Squares are in UI coordinates.
type GestureSource interface {
	Press(sq board.Square)
	Release(sq board.Square)
	// Selected is the square a gesture started on, if one is in progress.
	Selected() (board.Square, bool)
	Reset()
}

// ClickSource completes a gesture on the second press. Pressing the selected square again
// deselects it.
type ClickSource struct {
	OnGestureComplete func(board.Gesture)

	selected *board.Square
}

func (c *ClickSource) Press(sq board.Square) {
	switch {
	case c.selected == nil:
		c.selected = &sq
	case *c.selected == sq:
		c.selected = nil
	default:
		g := board.Gesture{From: *c.selected, To: sq}
		c.selected = nil
		if c.OnGestureComplete != nil {
			c.OnGestureComplete(g)
		}
	}
}

func (c *ClickSource) Release(board.Square) {}

func (c *ClickSource) Selected() (board.Square, bool) {
	if c.selected == nil {
		return board.Square{}, false
	}
	return *c.selected, true
}

func (c *ClickSource) Reset() { c.selected = nil }

// DragSource completes a gesture when the pointer is released away from where it went down.
type DragSource struct {
	OnGestureComplete func(board.Gesture)

	from *board.Square
}

func (d *DragSource) Press(sq board.Square) {
	d.from = &sq
}

func (d *DragSource) Release(sq board.Square) {
	if d.from == nil {
		return
	}
	g := board.Gesture{From: *d.from, To: sq}
	d.from = nil
	if g.From == g.To {
		return
	}
	if d.OnGestureComplete != nil {
		d.OnGestureComplete(g)
	}
}

func (d *DragSource) Selected() (board.Square, bool) {
	if d.from == nil {
		return board.Square{}, false
	}
	return *d.from, true
}

func (d *DragSource) Reset() { d.from = nil }

// NewGestureSource returns the source for a gestures setting.
func NewGestureSource(style string, fn func(board.Gesture)) GestureSource {
	if style == pkg.GesturesDrag {
		return &DragSource{OnGestureComplete: fn}
	}
	return &ClickSource{OnGestureComplete: fn}
}
