// Package gui is the terminal front end: it draws the controller's view with tview and turns
// mouse and keyboard input into gestures.
package gui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/qnkhuat/chessterm/pkg"
	"github.com/qnkhuat/chessterm/pkg/board"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	boardPage     = "board"
	promotionPage = "promotion"
)

type App struct {
	App    *tview.Application
	Pages  *tview.Pages
	Layout *tview.Grid
	Board  *BoardView

	status  *tview.TextView
	message *tview.TextView

	ctrl    *pkg.Controller
	watcher pkg.Watcher
	logger  *zap.Logger
	theme   Theme
	timeout time.Duration

	// OnGame is called with the id of every game opened.
	OnGame func(pkg.GameID)

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	watchCancel context.CancelFunc
	prompting   bool

	// queue runs UI updates on the draw goroutine; spawn runs transport calls off it.
	queue func(func())
	spawn func(func())
}

// NewApp builds the UI around ctrl. watcher may be nil when the transport cannot push positions.
func NewApp(ctrl *pkg.Controller, watcher pkg.Watcher, cfg pkg.ClientConfig, theme Theme, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		App:     tview.NewApplication(),
		ctrl:    ctrl,
		watcher: watcher,
		logger:  logger,
		theme:   theme,
		timeout: cfg.Timeout,
		ctx:     ctx,
		cancel:  cancel,
		spawn:   func(f func()) { go f() },
	}
	a.queue = func(f func()) { a.App.QueueUpdateDraw(f) }

	a.Board = NewBoardView(theme, NewGestureSource(cfg.Gestures, a.gesture), a.gesture)
	a.Board.SetFlipped(cfg.Flip)
	a.Board.SetBorder(true).SetTitle(" chessterm ")

	a.status = tview.NewTextView().SetDynamicColors(false).SetTextColor(theme.Status)
	a.message = tview.NewTextView().SetTextColor(theme.Msg)

	gameOptions := tview.NewGrid().
		SetColumns(-1).
		SetRows(1, 1, 1, 1, 1, 4, -1)
	for i, act := range pkg.MenuActions {
		btn := tview.NewButton(act.Label()).SetSelectedFunc(func() { a.Do(act) })
		gameOptions.AddItem(btn, i, 0, 1, 1, 0, 0, false)
	}
	gameOptions.
		AddItem(a.status, len(pkg.MenuActions)+1, 0, 1, 1, 0, 0, false).
		AddItem(a.message, len(pkg.MenuActions)+2, 0, 1, 1, 0, 0, false)

	a.Layout = tview.NewGrid().
		SetRows(-1, boardHeight+2, -1).
		SetColumns(-1, boardWidth+2, 1, 28, -1).
		AddItem(a.Board, 1, 1, 1, 1, 0, 0, true).
		AddItem(gameOptions, 1, 3, 1, 1, 0, 0, false)

	a.Pages = tview.NewPages().AddPage(boardPage, a.Layout, true, true)

	a.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if name, _ := a.Pages.GetFrontPage(); name == promotionPage {
			return event
		}
		if event.Key() != tcell.KeyRune {
			return event
		}
		for _, act := range pkg.MenuActions {
			if act.Key() == event.Rune() {
				a.Do(act)
				return nil
			}
		}
		return event
	})

	ctrl.SetOnChange(func(v pkg.View) {
		a.queue(func() { a.render(v) })
	})
	a.render(ctrl.View())
	return a
}

// Run blocks until the UI exits.
func (a *App) Run() error {
	defer a.cancel()
	return a.App.SetRoot(a.Pages, true).SetFocus(a.Board).EnableMouse(true).Run()
}

func (a *App) Stop() {
	a.cancel()
	a.App.Stop()
}

func (a *App) render(v pkg.View) {
	a.Board.SetView(v)
	a.status.SetText(statusText(v))
	a.message.SetText(v.Message)

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case v.Promotion == board.AwaitingChoice && !a.prompting:
		a.prompting = true
		a.showPromotion(v.Choices)
	case v.Promotion == board.Idle && a.prompting:
		a.prompting = false
		a.Pages.RemovePage(promotionPage)
		a.App.SetFocus(a.Board)
	}
}

func statusText(v pkg.View) string {
	var lines []string
	if v.GameID == "" {
		lines = append(lines, "No game")
	} else {
		id := string(v.GameID)
		if len(id) > 8 {
			id = id[:8]
		}
		lines = append(lines, "Game "+id)
	}
	if v.Status != "" {
		lines = append(lines, v.Status.Text())
	}
	if v.LastMove != "" {
		lines = append(lines, "Last move: "+v.LastMove)
	}
	if v.Waiting {
		lines = append(lines, "Waiting for server...")
	} else if v.GameID != "" {
		lines = append(lines, fmt.Sprintf("%d legal moves", v.Moves))
	}
	return strings.Join(lines, "\n")
}

func (a *App) showPromotion(choices []board.Kind) {
	labels := make([]string, 0, len(choices)+1)
	for _, k := range choices {
		labels = append(labels, k.String())
	}
	labels = append(labels, string(pkg.ActionCancel))

	modal := tview.NewModal().
		SetText(string(pkg.ActionPromotePrompt)).
		AddButtons(labels).
		SetDoneFunc(func(i int, label string) {
			a.Pages.RemovePage(promotionPage)
			a.App.SetFocus(a.Board)
			if i < 0 || i >= len(choices) {
				a.ctrl.CancelPromotion()
				return
			}
			kind := choices[i]
			a.run("promote", func(ctx context.Context) error {
				return a.ctrl.ChoosePromotion(ctx, kind)
			})
		})
	a.Pages.AddPage(promotionPage, modal, false, true)
	a.App.SetFocus(modal)
}
