package discordutils

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ErrForeignChannel is returned when a channel does not belong to the requested guild.
var ErrForeignChannel = errors.New("channel belongs to another guild")

// SessionPlatform resolves guilds, channels and members from the session state cache,
// falling back to the REST API.
type SessionPlatform struct {
	session *discordgo.Session
}

// NewSessionPlatform wraps session.
func NewSessionPlatform(session *discordgo.Session) *SessionPlatform {
	return &SessionPlatform{session: session}
}

// Guild returns the guild with the given ID.
func (p *SessionPlatform) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if guild, err := p.session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	return p.session.Guild(guildID, discordgo.WithContext(ctx))
}

// Channel returns the channel with the given ID if it belongs to guildID.
func (p *SessionPlatform) Channel(ctx context.Context, guildID, channelID string) (*discordgo.Channel, error) {
	channel, err := p.session.State.Channel(channelID)
	if err != nil {
		channel, err = p.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
	}

	if channel.GuildID != guildID {
		return nil, ErrForeignChannel
	}
	return channel, nil
}

// Member returns the guild member with the given user ID.
func (p *SessionPlatform) Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if member, err := p.session.State.Member(guildID, userID); err == nil {
		return member, nil
	}
	return p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
}

// SendMessage posts msg to the channel.
func (p *SessionPlatform) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return err
}
