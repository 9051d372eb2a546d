package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/qnkhuat/chessterm/pkg/board"
	"go.uber.org/zap"
)

// WatchMessage is pushed on /ws/game/:id after every move.
type WatchMessage struct {
	Type     string   `json:"type"`
	Position Position `json:"payload"`
}

const watchTypePosition = "position"

// makeMoveRequest is the body of makeMove: either a move index or a move object as received
// from getPosition.
type makeMoveRequest struct {
	MoveIndex *int `json:"moveIndex"`
}

// NewHTTPServer serves the REST API and the websocket push for s.
func NewHTTPServer(s *Server, logger *zap.Logger) *fiber.App {
	logger = orNop(logger)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)))
		return err
	})

	api := app.Group("/api/v1")
	api.Post("/newGame", func(c *fiber.Ctx) error {
		id, err := s.NewGame(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendString(string(id))
	})

	api.Get("/:id/getPosition", func(c *fiber.Ctx) error {
		pos, err := s.FetchPosition(c.UserContext(), GameID(c.Params("id")))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(pos)
	})

	api.Post("/:id/makeMove", func(c *fiber.Ctx) error {
		id := GameID(c.Params("id"))
		body := c.Body()

		var req makeMoveRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(string(StatusInvalidMove))
		}

		var (
			status Status
			err    error
		)
		if req.MoveIndex != nil {
			status, err = s.SubmitMoveIndex(c.UserContext(), id, *req.MoveIndex)
		} else {
			var mv board.LegalMove
			if err := json.Unmarshal(body, &mv); err != nil {
				return c.Status(fiber.StatusBadRequest).SendString(string(StatusInvalidMove))
			}
			status, err = s.SubmitMove(c.UserContext(), id, mv)
		}
		if err != nil {
			return errorResponse(c, err)
		}
		if status == StatusInvalidMove {
			return c.Status(fiber.StatusBadRequest).SendString(string(status))
		}
		return c.SendString(string(status))
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/game/:id", websocket.New(func(c *websocket.Conn) {
		watchGame(s, c, logger)
	}))

	return app
}

func errorResponse(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrGameNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func watchGame(s *Server, c *websocket.Conn, logger *zap.Logger) {
	id := GameID(c.Params("id"))
	log := logger.With(zap.String("game", string(id)))

	updates, cancel, err := s.Subscribe(context.Background(), id)
	if err != nil {
		log.Info("watch refused", zap.Error(err))
		if err := c.WriteJSON(fiber.Map{"type": "error", "payload": err.Error()}); err != nil {
			log.Info("watch write failed", zap.Error(err))
		}
		if err := c.Close(); err != nil {
			log.Info("watch close failed", zap.Error(err))
		}
		return
	}
	defer cancel()
	log.Info("watching")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.Info("watch ended")
			return
		case pos := <-updates:
			if err := c.WriteJSON(WatchMessage{Type: watchTypePosition, Position: pos}); err != nil {
				log.Info("watch write failed", zap.Error(err))
				return
			}
		}
	}
}
