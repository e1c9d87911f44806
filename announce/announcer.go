package announce

import (
	"context"
	"errors"
	"fmt"

	"souverain/dal"
	"souverain/models"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Reasons an announcement could not be delivered.
var (
	ErrNoChannelConfigured = errors.New("no birthday channel configured")
	ErrGuildUnresolvable   = errors.New("guild unresolvable")
	ErrChannelUnresolvable = errors.New("birthday channel unresolvable")
)

// Announcer delivers birthday announcements to each guild's configured channel.
type Announcer struct {
	configs  GuildConfigs
	platform Platform
	log      *zap.Logger
}

// NewAnnouncer creates an announcer.
func NewAnnouncer(configs GuildConfigs, platform Platform, logger *zap.Logger) *Announcer {
	return &Announcer{
		configs:  configs,
		platform: platform,
		log:      logger,
	}
}

// Deliver announces a single birthday. Every step stops at the first failure; the
// member's display name is the only optional step.
func (a *Announcer) Deliver(ctx context.Context, birthday models.Birthday) error {
	channel, err := a.resolveChannel(ctx, birthday.GuildID)
	if err != nil {
		return err
	}

	name := UnknownMember
	member, err := a.platform.Member(ctx, birthday.GuildID, birthday.UserID)
	if err != nil {
		a.log.Debug(
			"Failed to resolve birthday member.",
			zap.String("guild_id", birthday.GuildID),
			zap.String("user_id", birthday.UserID),
			zap.Error(err),
		)
	} else {
		name = DisplayName(member)
	}

	err = a.platform.SendMessage(ctx, channel.ID, BirthdayMessage(birthday.UserID))
	if err != nil {
		return fmt.Errorf("send birthday message to channel %s: %w", channel.ID, err)
	}

	a.log.Info(
		"Announced birthday.",
		zap.String("guild_id", birthday.GuildID),
		zap.String("channel_id", channel.ID),
		zap.String("user_id", birthday.UserID),
		zap.String("member", name),
	)
	return nil
}

// SendTest posts a test message to the guild's configured channel and returns it.
func (a *Announcer) SendTest(ctx context.Context, guildID string) (*discordgo.Channel, error) {
	channel, err := a.resolveChannel(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := a.platform.SendMessage(ctx, channel.ID, TestMessage()); err != nil {
		return nil, fmt.Errorf("send test message to channel %s: %w", channel.ID, err)
	}

	return channel, nil
}

func (a *Announcer) resolveChannel(ctx context.Context, guildID string) (*discordgo.Channel, error) {
	config, err := a.configs.GetGuildConfig(ctx, guildID)
	if errors.Is(err, dal.ErrNotFound) {
		return nil, ErrNoChannelConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load guild config: %w", err)
	}
	if config.BirthdayChannelID == "" {
		return nil, ErrNoChannelConfigured
	}

	if _, err := a.platform.Guild(ctx, guildID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGuildUnresolvable, err)
	}

	channel, err := a.platform.Channel(ctx, guildID, config.BirthdayChannelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChannelUnresolvable, err)
	}

	return channel, nil
}
