package gui

import (
	"context"
	"errors"

	"github.com/qnkhuat/chessterm/pkg"
	"github.com/qnkhuat/chessterm/pkg/board"
	"go.uber.org/zap"
)

// Do performs a menu action.
func (a *App) Do(act pkg.Action) {
	a.logger.Debug("action", zap.String("action", string(act)))
	switch act {
	case pkg.ActionNewGame:
		a.NewGame()
	case pkg.ActionRefresh:
		a.run("refresh", a.ctrl.Refresh)
	case pkg.ActionFlip:
		a.Board.Flip()
	case pkg.ActionExit:
		a.Stop()
	}
}

func (a *App) NewGame() {
	a.run("newGame", func(ctx context.Context) error {
		if err := a.ctrl.NewGame(ctx); err != nil {
			return err
		}
		a.opened(a.ctrl.GameID())
		return nil
	})
}

// Open switches to an existing game, as when resuming.
func (a *App) Open(id pkg.GameID) {
	a.run("open", func(ctx context.Context) error {
		if err := a.ctrl.Open(ctx, id); err != nil {
			return err
		}
		a.opened(id)
		return nil
	})
}

func (a *App) opened(id pkg.GameID) {
	a.watch(id)
	if a.OnGame != nil {
		a.OnGame(id)
	}
}

func (a *App) gesture(g board.Gesture) {
	a.run("gesture", func(ctx context.Context) error {
		return a.ctrl.Gesture(ctx, g)
	})
}

// run calls f off the UI goroutine with the request timeout. The controller has already put any
// failure into the view, so errors are only logged.
func (a *App) run(op string, f func(ctx context.Context) error) {
	a.spawn(func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
		defer cancel()
		err := f(ctx)
		switch {
		case err == nil:
		case errors.Is(err, board.ErrNoMatchingMove), errors.Is(err, board.ErrPromotionPending):
			a.logger.Debug("gesture rejected", zap.String("op", op), zap.Error(err))
		default:
			a.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		}
	})
}

// watch follows pushed positions of id, replacing any previous watch.
func (a *App) watch(id pkg.GameID) {
	if a.watcher == nil {
		return
	}
	a.mu.Lock()
	if a.watchCancel != nil {
		a.watchCancel()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.watchCancel = cancel
	a.mu.Unlock()

	go func() {
		err := a.watcher.Watch(ctx, id, func(p pkg.Position) {
			a.ctrl.Apply(id, p)
		})
		if err != nil && ctx.Err() == nil {
			a.logger.Warn("watch ended", zap.String("game", string(id)), zap.Error(err))
		}
	}()
}
