// Package birthdays implements the member and administrator operations behind the
// bot's slash commands.
package birthdays

import (
	"context"
	"errors"
	"time"

	"souverain/calendar"
	"souverain/dal"
	"souverain/models"

	"go.uber.org/zap"
)

// Store is the persistence the service needs.
type Store interface {
	CreateBirthday(ctx context.Context, birthday models.Birthday) error
	UpdateBirthday(ctx context.Context, guildID, userID string, date time.Time) (*models.Birthday, error)
	GetBirthday(ctx context.Context, guildID, userID string) (*models.Birthday, error)
	UpsertGuildConfig(ctx context.Context, config models.GuildConfig) error
}

// Service registers, changes and looks up birthdays, and configures guilds.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService creates a service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, log: logger}
}

// Register saves a member's birthday. It fails with calendar.ErrInvalidDate or
// dal.ErrAlreadyRegistered, in which case nothing is written.
func (s *Service) Register(ctx context.Context, guildID, userID, text string) (time.Time, error) {
	date, err := calendar.ParseDate(text)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.store.CreateBirthday(ctx, models.NewBirthday(guildID, userID, date)); err != nil {
		return time.Time{}, err
	}

	s.log.Info("Registered birthday.", zap.String("guild_id", guildID), zap.String("user_id", userID))
	return date, nil
}

// Change replaces a registered birthday. It fails with calendar.ErrInvalidDate or
// dal.ErrNotFound.
func (s *Service) Change(ctx context.Context, guildID, userID, text string) (time.Time, error) {
	date, err := calendar.ParseDate(text)
	if err != nil {
		return time.Time{}, err
	}

	birthday, err := s.store.UpdateBirthday(ctx, guildID, userID, date)
	if err != nil {
		return time.Time{}, err
	}

	s.log.Info("Changed birthday.", zap.String("guild_id", guildID), zap.String("user_id", userID))
	return birthday.Date, nil
}

// Lookup returns a member's birthday or dal.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, guildID, userID string) (*models.Birthday, error) {
	return s.store.GetBirthday(ctx, guildID, userID)
}

// SetAnnouncementChannel sets the channel birthdays are announced in. The last call
// wins.
func (s *Service) SetAnnouncementChannel(ctx context.Context, guildID, channelID string) error {
	err := s.store.UpsertGuildConfig(ctx, models.GuildConfig{
		GuildID:           guildID,
		BirthdayChannelID: channelID,
	})
	if err != nil {
		return err
	}

	s.log.Info("Set birthday channel.", zap.String("guild_id", guildID), zap.String("channel_id", channelID))
	return nil
}

// IsUserError reports whether err is caused by the request rather than the system.
func IsUserError(err error) bool {
	return errors.Is(err, calendar.ErrInvalidDate) ||
		errors.Is(err, dal.ErrNotFound) ||
		errors.Is(err, dal.ErrAlreadyRegistered)
}
