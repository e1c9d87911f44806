package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"souverain/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is a Store backed by a gorm database.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite creates a sqlite database connection and migrates the schema.
func OpenSQLite(dbPath string, logger *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(
		sqlite.Open(dbPath),
		&gorm.Config{
			TranslateError: true,
			Logger:         newGormLogger(logger),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// sqlite allows one writer, and every connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	logger.Info("Connected to database.", zap.String("backend", "sqlite"), zap.String("path", dbPath))

	store, err := NewGormStore(db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("Migrated database.")

	return store, nil
}

// NewGormStore wraps an open gorm connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.Birthday{}, &models.GuildConfig{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateBirthday inserts a new birthday. A second birthday for the same guild member
// fails with ErrAlreadyRegistered.
func (s *GormStore) CreateBirthday(ctx context.Context, birthday models.Birthday) error {
	err := s.db.WithContext(ctx).Create(&birthday).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyRegistered
	}
	return err
}

// UpdateBirthday replaces the date of an existing birthday.
func (s *GormStore) UpdateBirthday(
	ctx context.Context,
	guildID string,
	userID string,
	date time.Time,
) (*models.Birthday, error) {
	var birthday models.Birthday
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("guild_id = ? AND user_id = ?", guildID, userID).
			Take(&birthday).Error
		if err != nil {
			return err
		}

		birthday.SetDate(date)
		return tx.Model(&birthday).
			Select("birthday", "month", "day").
			Updates(&birthday).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &birthday, nil
}

// GetBirthday gets the birthday for the given guild & user.
func (s *GormStore) GetBirthday(
	ctx context.Context,
	guildID string,
	userID string,
) (*models.Birthday, error) {
	var birthday models.Birthday
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Take(&birthday).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &birthday, nil
}

// BirthdaysOn returns every birthday falling on the given month and day, in any year
// and any guild.
func (s *GormStore) BirthdaysOn(
	ctx context.Context,
	month time.Month,
	day int,
) ([]models.Birthday, error) {
	var birthdays []models.Birthday
	err := s.db.WithContext(ctx).
		Where("month = ? AND day = ?", uint(month), uint(day)).
		Order("guild_id, user_id").
		Find(&birthdays).Error
	if err != nil {
		return nil, err
	}

	return birthdays, nil
}

// UpsertGuildConfig inserts or updates the given guild configuration.
func (s *GormStore) UpsertGuildConfig(ctx context.Context, config models.GuildConfig) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"birthday_channel_id", "updated_at"}),
	}).Create(&config).Error
}

// GetGuildConfig returns the saved configuration for the given guild.
func (s *GormStore) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	var config models.GuildConfig
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Take(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// Ping checks the database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
