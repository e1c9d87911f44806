package discordutils

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// MemberHasAdminPermissions returns true if the given member has admin permissions,
// either from the interaction's computed permissions, ownership, or one of their roles.
func MemberHasAdminPermissions(guild *discordgo.Guild, member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if guild == nil {
		return false
	}
	if member.User != nil && guild.OwnerID == member.User.ID {
		return true
	}

	guildRoles := make(map[string]*discordgo.Role)
	for _, role := range guild.Roles {
		guildRoles[role.ID] = role
	}

	for _, roleID := range member.Roles {
		if role, ok := guildRoles[roleID]; ok {
			if RoleAllowsAdminPermissions(role) {
				return true
			}
		}
	}

	return false
}

// RoleAllowsAdminPermissions returns true if the given role allows admin permissions.
func RoleAllowsAdminPermissions(role *discordgo.Role) bool {
	return role.Permissions&discordgo.PermissionAdministrator > 0
}

// AckInteraction sends a deferred ephemeral response for the given interaction.
func AckInteraction(
	interaction *discordgo.Interaction,
	session *discordgo.Session,
) error {
	return session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// SendFollowup creates an ephemeral followup message with the given content.
// Mentions in the content are rendered but never ping.
func SendFollowup(
	content string,
	interaction *discordgo.Interaction,
	session *discordgo.Session,
) error {
	_, err := session.FollowupMessageCreate(
		interaction,
		true,
		&discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse: []discordgo.AllowedMentionType{},
			},
		},
	)
	return err
}

// UseLogger routes discordgo's internal logging through logger.
func UseLogger(logger *zap.Logger) {
	log := logger.Named("discordgo")
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			log.Error(msg)
		case discordgo.LogWarning:
			log.Warn(msg)
		case discordgo.LogInformational:
			log.Info(msg)
		default:
			log.Debug(msg)
		}
	}
}
