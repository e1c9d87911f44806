package dal

import (
	"context"
	"errors"
	"strings"
	"time"

	"souverain/models"

	"go.uber.org/zap"
)

// Errors returned by every Store implementation.
var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyRegistered  = errors.New("birthday already registered")
	ErrUnsupportedBackend = errors.New("unsupported database url")
)

// Store persists birthdays and guild configuration.
type Store interface {
	CreateBirthday(ctx context.Context, birthday models.Birthday) error
	UpdateBirthday(ctx context.Context, guildID, userID string, date time.Time) (*models.Birthday, error)
	GetBirthday(ctx context.Context, guildID, userID string) (*models.Birthday, error)
	BirthdaysOn(ctx context.Context, month time.Month, day int) ([]models.Birthday, error)

	UpsertGuildConfig(ctx context.Context, config models.GuildConfig) error
	GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the store named by url. MongoDB urls select the document
// backend; anything else is treated as a sqlite database path.
func Open(ctx context.Context, url, dbName string, logger *zap.Logger) (Store, error) {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return OpenMongo(ctx, url, dbName, logger)
	case strings.Contains(url, "://") && !strings.HasPrefix(url, "sqlite://"):
		return nil, ErrUnsupportedBackend
	default:
		return OpenSQLite(strings.TrimPrefix(url, "sqlite://"), logger)
	}
}
