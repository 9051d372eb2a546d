package gui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/qnkhuat/chessterm/pkg"
	"github.com/qnkhuat/chessterm/pkg/board"
	"github.com/rivo/tview"
)

const (
	rankWidth   = 2
	squareWidth = 3
	boardWidth  = rankWidth + board.NumCols*squareWidth
	boardHeight = board.NumRows + 1
)

// drawText places text at the specified coordinates with the provided style
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// BoardView draws the board matrix of a pkg.View and feeds mouse and keyboard input to a
// GestureSource.
type BoardView struct {
	*tview.Box

	theme   Theme
	view    pkg.View
	flipped bool
	source  GestureSource
	keys    *ClickSource
	cursor  board.Square
}

func NewBoardView(theme Theme, source GestureSource, onGesture func(board.Gesture)) *BoardView {
	return &BoardView{
		Box:    tview.NewBox(),
		theme:  theme,
		source: source,
		keys:   &ClickSource{OnGestureComplete: onGesture},
		cursor: board.Square{Row: 6, Col: 4},
	}
}

func (b *BoardView) SetView(v pkg.View) {
	b.view = v
}

// Flip toggles drawing the board from Black's side.
func (b *BoardView) Flip() {
	b.flipped = !b.flipped
}

func (b *BoardView) SetFlipped(flipped bool) {
	b.flipped = flipped
}

func (b *BoardView) Flipped() bool {
	return b.flipped
}

// display converts between UI squares and on-screen rows and columns. It is its own inverse.
func (b *BoardView) display(sq board.Square) board.Square {
	if b.flipped {
		return board.Square{Row: board.NumRows - 1 - sq.Row, Col: board.NumCols - 1 - sq.Col}
	}
	return sq
}

// squareAt returns the UI square under screen position (x, y).
func (b *BoardView) squareAt(x, y int) (board.Square, bool) {
	bx, by, _, _ := b.GetInnerRect()
	x -= bx + rankWidth
	y -= by
	if x < 0 || y < 0 || x >= board.NumCols*squareWidth || y >= board.NumRows {
		return board.Square{}, false
	}
	return b.display(board.Square{Row: y, Col: x / squareWidth}), true
}

func (b *BoardView) squareBg(sq board.Square) tcell.Color {
	v := b.view
	if v.Promotion == board.AwaitingChoice && (sq == v.PromotionSquares.From || sq == v.PromotionSquares.To) {
		return b.theme.SquarePromo
	}
	if sel, ok := b.source.Selected(); ok && sel == sq {
		return b.theme.SquareHigh
	}
	if sel, ok := b.keys.Selected(); ok && sel == sq {
		return b.theme.SquareHigh
	}
	if b.HasFocus() && sq == b.cursor {
		return b.theme.SquareCursor
	}
	if (sq.Row+sq.Col)%2 == 0 {
		return b.theme.SquareLight
	}
	return b.theme.SquareDark
}

func (b *BoardView) Draw(screen tcell.Screen) {
	b.Box.Draw(screen)
	x0, y0, _, _ := b.GetInnerRect()

	for row := 0; row < board.NumRows; row++ {
		y := y0 + row
		// Rank labels follow the display, so a flipped board counts up from the top.
		rank := b.display(board.Square{Row: row}).Row
		drawText(screen, x0, y, tcell.StyleDefault.Foreground(b.theme.Rank), string(rune('8'-rank)))

		for col := 0; col < board.NumCols; col++ {
			sq := b.display(board.Square{Row: row, Col: col})
			bg := b.squareBg(sq)
			style := tcell.StyleDefault.Background(bg)
			p := b.view.Matrix.At(sq.Row, sq.Col)
			if p.Color == board.Black {
				style = style.Foreground(b.theme.Black)
			} else {
				style = style.Foreground(b.theme.White)
			}
			x := x0 + rankWidth + col*squareWidth
			screen.SetContent(x, y, ' ', nil, style)
			screen.SetContent(x+1, y, p.Symbol(), nil, style)
			screen.SetContent(x+2, y, ' ', nil, style)
		}
	}

	fileStyle := tcell.StyleDefault.Foreground(b.theme.File)
	for col := 0; col < board.NumCols; col++ {
		file := b.display(board.Square{Col: col}).Col
		drawText(screen, x0+rankWidth+col*squareWidth+1, y0+board.NumRows, fileStyle, string(rune('a'+file)))
	}
}

func (b *BoardView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return b.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		x, y := event.Position()
		sq, onBoard := b.squareAt(x, y)
		switch action {
		case tview.MouseLeftDown:
			if !b.InRect(x, y) {
				return false, nil
			}
			setFocus(b)
			if !onBoard {
				return true, nil
			}
			b.cursor = sq
			b.source.Press(sq)
			// Keep receiving events until the button comes up, wherever that is.
			return true, b
		case tview.MouseLeftUp:
			if onBoard {
				b.source.Release(sq)
			} else if _, ok := b.source.(*DragSource); ok {
				b.source.Reset()
			}
			return true, nil
		}
		return false, nil
	})
}

func (b *BoardView) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return b.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		// Arrows move in screen directions, whichever way up the board is drawn.
		d := b.display(b.cursor)
		switch event.Key() {
		case tcell.KeyUp:
			d.Row--
		case tcell.KeyDown:
			d.Row++
		case tcell.KeyLeft:
			d.Col--
		case tcell.KeyRight:
			d.Col++
		case tcell.KeyEnter:
			b.keys.Press(b.cursor)
			return
		case tcell.KeyEscape:
			b.keys.Reset()
			b.source.Reset()
			return
		case tcell.KeyRune:
			if event.Rune() == ' ' {
				b.keys.Press(b.cursor)
			}
			return
		default:
			return
		}
		if d.Row >= 0 && d.Row < board.NumRows && d.Col >= 0 && d.Col < board.NumCols {
			b.cursor = b.display(d)
		}
	})
}
