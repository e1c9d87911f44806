package announce

import (
	"context"
	"time"

	"souverain/models"

	"github.com/bwmarrin/discordgo"
)

// Platform resolves Discord handles and sends messages. Implementations prefer
// locally cached state and fall back to a remote fetch.
type Platform interface {
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	Channel(ctx context.Context, guildID, channelID string) (*discordgo.Channel, error)
	Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error)
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
}

// BirthdayFinder finds the birthdays falling on a given day.
type BirthdayFinder interface {
	BirthdaysOn(ctx context.Context, month time.Month, day int) ([]models.Birthday, error)
}

// GuildConfigs reads per-guild configuration.
type GuildConfigs interface {
	GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
}
