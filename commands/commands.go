package commands

import (
	"fmt"

	"souverain/calendar"

	"github.com/bwmarrin/discordgo"
)

// Command and option names.
const (
	SetBirthday    = "set-birthday"
	ChangeBirthday = "change-birthday"
	GetBirthday    = "get-birthday"
	Config         = "config"
	ConfigChannel  = "set-channel"
	Test           = "test"

	DateOption    = "date"
	UserOption    = "user"
	ChannelOption = "channel"
)

var adminPermissions int64 = discordgo.PermissionAdministrator

var guildOnly = false

// Definitions returns the slash commands the bot registers.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         SetBirthday,
			Description:  fmt.Sprintf("Enregistre ta date d'anniversaire (format %v)", calendar.DateFormat),
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        DateOption,
					Description: fmt.Sprintf("Ta date (exemple : %v)", calendar.DateExample),
					Required:    true,
				},
			},
		}, {
			Name:         ChangeBirthday,
			Description:  fmt.Sprintf("Change ta date d'anniversaire (format %v)", calendar.DateFormat),
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        DateOption,
					Description: "Ta nouvelle date",
					Required:    true,
				},
			},
		}, {
			Name:         GetBirthday,
			Description:  "Affiche la date d'anniversaire de l'utilisateur",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        UserOption,
					Description: "L'utilisateur dont tu veux voir l'anniversaire",
					Required:    true,
				},
			},
		}, {
			Name:                     Config,
			Description:              "Configuration du bot",
			DefaultMemberPermissions: &adminPermissions,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        ConfigChannel,
					Description: "Définit le salon pour les anniversaires",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         ChannelOption,
							Description:  "Le salon à définir",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
			},
		}, {
			Name:                     Test,
			Description:              "Test d'anniversaire : envoie un message dans le salon configuré",
			DefaultMemberPermissions: &adminPermissions,
			DMPermission:             &guildOnly,
		},
	}
}
