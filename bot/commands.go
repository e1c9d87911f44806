package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"souverain/announce"
	"souverain/birthdays"
	"souverain/calendar"
	"souverain/commands"
	"souverain/dal"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	replyAdminOnly         = "❌ Cette commande est réservée aux administrateurs."
	replyInvalidDate       = "❌ Date invalide. Utilisez le format " + calendar.DateFormat + "."
	replyRegistered        = "🎉 Votre anniversaire a été enregistré avec succès !"
	replyAlreadyRegistered = "❌ Votre anniversaire est déjà enregistré. Utilisez `/change-birthday` pour le modifier."
	replyRegisterFailed    = "❌ Une erreur est survenue lors de l'enregistrement."
	replyChanged           = "🎉 Votre anniversaire a été mis à jour avec succès !"
	replyNotRegistered     = "❌ Aucune date d'anniversaire trouvée. Utilisez `/set-birthday` pour enregistrer votre anniversaire."
	replyChangeFailed      = "❌ Une erreur est survenue lors de la mise à jour de l'anniversaire."
	replyLookupMissing     = "❌ Aucune date d'anniversaire trouvée pour %v."
	replyLookup            = "%v a son anniversaire le %v. %v"
	replyLookupToday       = "C'est aujourd'hui ! 🎉"
	replyLookupNext        = "Prochain anniversaire %v."
	replyLookupFailed      = "❌ Une erreur est survenue lors de la récupération de l'anniversaire."
	replyChannelSet        = "✅ Le salon %v a été défini pour les anniversaires."
	replyChannelFailed     = "❌ Une erreur est survenue lors de la configuration du salon."
	replyUnknownSubcommand = "❌ Sous-commande inconnue pour la configuration."
	replyNoChannel         = "❌ Aucun salon d'anniversaire n'est configuré pour ce serveur."
	replyChannelGone       = "❌ Le salon configuré n'existe plus ou je n'ai pas accès."
	replyTestSent          = "✅ Message de test envoyé dans %v."
	replyTestFailed        = "❌ Une erreur est survenue lors du test."
)

// SetBirthday registers the invoking member's birthday.
func (bot *Bot) SetBirthday(ctx context.Context, i *discordgo.InteractionCreate) string {
	text := dateOption(i.ApplicationCommandData().Options)

	_, err := bot.birthdays.Register(ctx, i.GuildID, i.Member.User.ID, text)
	switch {
	case err == nil:
		return replyRegistered
	case errors.Is(err, calendar.ErrInvalidDate):
		return replyInvalidDate
	case errors.Is(err, dal.ErrAlreadyRegistered):
		return replyAlreadyRegistered
	default:
		bot.commandFailed(i, err)
		return replyRegisterFailed
	}
}

// ChangeBirthday replaces the invoking member's birthday.
func (bot *Bot) ChangeBirthday(ctx context.Context, i *discordgo.InteractionCreate) string {
	text := dateOption(i.ApplicationCommandData().Options)

	_, err := bot.birthdays.Change(ctx, i.GuildID, i.Member.User.ID, text)
	switch {
	case err == nil:
		return replyChanged
	case errors.Is(err, calendar.ErrInvalidDate):
		return replyInvalidDate
	case errors.Is(err, dal.ErrNotFound):
		return replyNotRegistered
	default:
		bot.commandFailed(i, err)
		return replyChangeFailed
	}
}

// GetBirthday looks up another member's birthday.
func (bot *Bot) GetBirthday(ctx context.Context, i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()
	user, ok := userOption(data, commands.UserOption)
	if !ok {
		user = i.Member.User
	}

	birthday, err := bot.birthdays.Lookup(ctx, i.GuildID, user.ID)
	switch {
	case err == nil:
		return fmt.Sprintf(replyLookup, user.Mention(), calendar.Format(birthday.Date), bot.untilNext(birthday.Date))
	case errors.Is(err, dal.ErrNotFound):
		return fmt.Sprintf(replyLookupMissing, userName(user))
	default:
		bot.commandFailed(i, err)
		return replyLookupFailed
	}
}

func (bot *Bot) untilNext(date time.Time) string {
	now := bot.now()
	next := calendar.NextOccurrence(date, now)
	if !next.After(now) {
		return replyLookupToday
	}
	return fmt.Sprintf(replyLookupNext, calendar.Until(next, now))
}

// Config dispatches the config subcommands.
func (bot *Bot) Config(ctx context.Context, i *discordgo.InteractionCreate) string {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return replyUnknownSubcommand
	}

	handler, ok := bot.configHandlers[options[0].Name]
	if !ok {
		return replyUnknownSubcommand
	}
	return handler(ctx, i)
}

// ConfigSetChannel sets the channel to use for announcements.
func (bot *Bot) ConfigSetChannel(ctx context.Context, i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()
	channel, ok := channelOption(data, data.Options[0].Options, commands.ChannelOption)
	if !ok {
		return replyChannelFailed
	}

	if err := bot.birthdays.SetAnnouncementChannel(ctx, i.GuildID, channel.ID); err != nil {
		bot.commandFailed(i, err)
		return replyChannelFailed
	}

	return fmt.Sprintf(replyChannelSet, channel.Mention())
}

// Test sends a test announcement to the configured channel.
func (bot *Bot) Test(ctx context.Context, i *discordgo.InteractionCreate) string {
	channel, err := bot.announcer.SendTest(ctx, i.GuildID)
	switch {
	case err == nil:
		return fmt.Sprintf(replyTestSent, channel.Mention())
	case errors.Is(err, announce.ErrNoChannelConfigured):
		return replyNoChannel
	case errors.Is(err, announce.ErrChannelUnresolvable), errors.Is(err, announce.ErrGuildUnresolvable):
		return replyChannelGone
	default:
		bot.commandFailed(i, err)
		return replyTestFailed
	}
}

func (bot *Bot) commandFailed(i *discordgo.InteractionCreate, err error) {
	log := bot.log.Error
	if birthdays.IsUserError(err) {
		log = bot.log.Info
	}
	log(
		"Command failed.",
		zap.String("command", i.ApplicationCommandData().Name),
		zap.String("guild_id", i.GuildID),
		zap.String("user_id", i.Member.User.ID),
		zap.Error(err),
	)
}

func findOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
	name string,
) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, option := range options {
		if option.Name == name {
			return option, true
		}
	}
	return nil, false
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	option, ok := findOption(options, name)
	if !ok {
		return "", false
	}
	value, ok := option.Value.(string)
	return value, ok
}

// dateOption returns the date option without surrounding whitespace.
func dateOption(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	text, _ := stringOption(options, commands.DateOption)
	return strings.TrimSpace(text)
}

func userOption(data discordgo.ApplicationCommandInteractionData, name string) (*discordgo.User, bool) {
	id, ok := stringOption(data.Options, name)
	if !ok || id == "" {
		return nil, false
	}
	if data.Resolved != nil {
		if user, ok := data.Resolved.Users[id]; ok {
			return user, true
		}
	}
	return &discordgo.User{ID: id}, true
}

func channelOption(
	data discordgo.ApplicationCommandInteractionData,
	options []*discordgo.ApplicationCommandInteractionDataOption,
	name string,
) (*discordgo.Channel, bool) {
	id, ok := stringOption(options, name)
	if !ok || id == "" {
		return nil, false
	}
	if data.Resolved != nil {
		if channel, ok := data.Resolved.Channels[id]; ok {
			return channel, true
		}
	}
	return &discordgo.Channel{ID: id}, true
}

func userName(user *discordgo.User) string {
	if user.GlobalName != "" {
		return user.GlobalName
	}
	if user.Username != "" {
		return user.Username
	}
	return user.Mention()
}
