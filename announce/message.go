package announce

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// UnknownMember replaces a member's name when it cannot be resolved.
const UnknownMember = "Utilisateur inconnu"

const testMessage = "🎉 Ceci est un test : le bot peut envoyer des messages d'anniversaire ici !"

const birthdayTemplate = "Chers citoyens, chères citoyennes\n\n" +
	"> **Voyez donc ce jour béni, où le destin lui-même s’est arrêté pour tisser la venue de %[1]s dans la trame du monde.**\n" +
	"> Un anniversaire… non, un rappel que même les étoiles, un instant, ont brillé pour toi.\n" +
	"> Profite de cette gloire, car rares sont ceux que le temps célèbre sans regret.\n\n" +
	"🎉 **Joyeux anniversaire, %[1]s !** 🎉\n" +
	"Que ta grandeur égale la mienne… ou du moins, qu’elle essaie."

// Mention formats a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// BirthdayMessage builds the announcement for userID. Only that user may be pinged.
func BirthdayMessage(userID string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf(birthdayTemplate, Mention(userID)),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
			Users: []string{userID},
		},
	}
}

// TestMessage builds the message sent by the test command. It pings nobody.
func TestMessage() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: testMessage,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}
}

// DisplayName returns the best human readable name for a member.
func DisplayName(member *discordgo.Member) string {
	if member == nil || member.User == nil {
		return UnknownMember
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	if member.User.Username != "" {
		return member.User.Username
	}
	return UnknownMember
}
