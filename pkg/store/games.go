package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Game is a persisted server game.
type Game struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FEN       string
	Status    string
	Active    bool `gorm:"index"`
	LastSeen  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Moves     []Move
}

// Move is one move played in a persisted game.
type Move struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;index"`
	Number    int
	UCI       string
	Notation  string
	CreatedAt time.Time
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// OpenGames connects to Postgres and migrates the schema.
func OpenGames(dsn string) (*Games, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Game{}, &Move{}); err != nil {
		return nil, err
	}
	return NewGames(db), nil
}

// Games persists games. A nil *Games is valid and stores nothing.
type Games struct {
	db *gorm.DB
}

func NewGames(db *gorm.DB) *Games {
	if db == nil {
		return nil
	}
	return &Games{db: db}
}

func (s *Games) Create(ctx context.Context, id uuid.UUID, fen, status string) error {
	if s == nil {
		return nil
	}
	game := Game{
		ID:       id,
		FEN:      fen,
		Status:   status,
		Active:   true,
		LastSeen: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&game).Error
}

// RecordMove stores the move and the position it produced.
func (s *Games) RecordMove(ctx context.Context, id uuid.UUID, number int, uci, notation, fen, status string, active bool) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		move := Move{
			ID:       uuid.New(),
			GameID:   id,
			Number:   number,
			UCI:      uci,
			Notation: notation,
		}
		if err := tx.Create(&move).Error; err != nil {
			return err
		}
		return tx.Model(&Game{}).Where("id = ?", id).Updates(map[string]any{
			"fen":       fen,
			"status":    status,
			"active":    active,
			"last_seen": time.Now(),
		}).Error
	})
}

// Load returns the game with its moves in play order.
func (s *Games) Load(ctx context.Context, id uuid.UUID) (*Game, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var game Game
	err := s.db.WithContext(ctx).
		Preload("Moves", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		First(&game, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Deactivate marks a game as no longer held in memory by the server.
func (s *Games) Deactivate(ctx context.Context, id uuid.UUID) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", id).Update("active", false).Error
}
