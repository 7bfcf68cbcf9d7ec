// Package storage archives finished games.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	WinnerBlack = "Black"
	WinnerWhite = "White"
	WinnerDraw  = "Draw"
)

// GameResult is one finished board. The score is the server's, not the one
// reported by either client.
type GameResult struct {
	BoardID    string    `gorm:"primaryKey;size:64" json:"board_id"`
	Black      string    `gorm:"size:64;not null" json:"black"`
	White      string    `gorm:"size:64;not null" json:"white"`
	BlackScore int       `gorm:"not null" json:"black_score"`
	WhiteScore int       `gorm:"not null" json:"white_score"`
	Winner     string    `gorm:"size:8;not null" json:"winner"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `gorm:"index" json:"finished_at"`
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// gormWriter routes gorm's own logging (slow queries, errors) into zap.
type gormWriter struct{ *zap.SugaredLogger }

func (w gormWriter) Printf(format string, args ...any) { w.Warnf(format, args...) }

// Open connects through dialector and migrates the schema.
func Open(dialector gorm.Dialector, log *zap.Logger) (*Store, error) {
	log = log.Named("storage")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormWriter{log.Sugar()}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&GameResult{}); err != nil {
		return nil, multierr.Combine(fmt.Errorf("migrate: %w", err), closeDB(db))
	}
	return &Store{db: db, log: log}, nil
}

func OpenPostgres(dsn string, log *zap.Logger) (*Store, error) {
	return Open(postgres.Open(dsn), log)
}

// Save stores r; a board that was already recorded is left untouched.
func (s *Store) Save(ctx context.Context, r GameResult) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&r)
	if res.Error != nil {
		return fmt.Errorf("save result %s: %w", r.BoardID, res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.Debug("result already recorded", zap.String("board", r.BoardID))
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]GameResult, error) {
	var out []GameResult
	err := s.db.WithContext(ctx).
		Order("finished_at desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error { return closeDB(s.db) }

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WinnerOf names the winner for a final score.
func WinnerOf(black, white int) string {
	switch {
	case black > white:
		return WinnerBlack
	case white > black:
		return WinnerWhite
	}
	return WinnerDraw
}
