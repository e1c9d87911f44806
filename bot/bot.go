package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"souverain/birthdays"
	"souverain/commands"
	"souverain/discordutils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ErrNotReady is reported by Ready until the gateway session is up.
var ErrNotReady = errors.New("discord session not ready")

// commandHandler handles one interaction and returns the reply to show the user.
type commandHandler = func(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) string

// TestAnnouncer sends the test announcement for a guild.
type TestAnnouncer interface {
	SendTest(ctx context.Context, guildID string) (*discordgo.Channel, error)
}

// Bot represents an instance of the birthday discord bot.
type Bot struct {
	session            *discordgo.Session
	birthdays          *birthdays.Service
	announcer          TestAnnouncer
	log                *zap.Logger
	appID              string
	guildID            string
	registeredCommands []*discordgo.ApplicationCommand
	commandHandlers    map[string]commandHandler
	configHandlers     map[string]commandHandler
	ready              atomic.Bool
	now                func() time.Time
}

// New creates a bot over session. Nothing is opened until Open is called.
func New(
	session *discordgo.Session,
	service *birthdays.Service,
	announcer TestAnnouncer,
	logger *zap.Logger,
) *Bot {
	bot := &Bot{
		session:   session,
		birthdays: service,
		announcer: announcer,
		log:       logger,
		now:       time.Now,
	}

	bot.commandHandlers = map[string]commandHandler{
		commands.SetBirthday:    bot.SetBirthday,
		commands.ChangeBirthday: bot.ChangeBirthday,
		commands.GetBirthday:    bot.GetBirthday,
		commands.Config:         bot.adminOnly(bot.Config),
		commands.Test:           bot.adminOnly(bot.Test),
	}
	bot.configHandlers = map[string]commandHandler{
		commands.ConfigChannel: bot.ConfigSetChannel,
	}

	return bot
}

// Open connects to the gateway and registers the slash commands for appID. An empty
// guildID registers them globally.
func (bot *Bot) Open(appID, guildID string) error {
	bot.appID = appID
	bot.guildID = guildID

	bot.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	bot.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		bot.ready.Store(true)
		bot.log.Info("Bot is up!", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	bot.session.AddHandler(func(*discordgo.Session, *discordgo.Disconnect) {
		bot.ready.Store(false)
		bot.log.Warn("Disconnected from gateway.")
	})
	bot.session.AddHandler(bot.onInteraction)

	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		_ = bot.session.Close()
		return err
	}

	return nil
}

func (bot *Bot) registerCommands() error {
	for _, command := range commands.Definitions() {
		newCommand, err := bot.session.ApplicationCommandCreate(
			bot.appID,
			bot.guildID,
			command,
		)
		if err != nil {
			return fmt.Errorf("create %v command: %w", command.Name, err)
		}
		bot.registeredCommands = append(bot.registeredCommands, newCommand)
		bot.log.Info("Created command.", zap.String("command", command.Name))
	}
	return nil
}

// Shutdown deletes the registered commands and closes the session.
func (bot *Bot) Shutdown() {
	bot.log.Info("Shutting down.")

	for _, command := range bot.registeredCommands {
		err := bot.session.ApplicationCommandDelete(
			bot.appID,
			bot.guildID,
			command.ID,
		)
		if err != nil {
			bot.log.Warn("Failed to delete command.", zap.String("command", command.Name), zap.Error(err))
		} else {
			bot.log.Info("Deleted command.", zap.String("command", command.Name))
		}
	}

	if err := bot.session.Close(); err != nil {
		bot.log.Warn("Failed to close session.", zap.Error(err))
	}
}

// Ready reports whether the gateway session is established.
func (bot *Bot) Ready(context.Context) error {
	if !bot.ready.Load() {
		return ErrNotReady
	}
	return nil
}

func (bot *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	reply, ok := bot.dispatch(context.Background(), i, func() {
		if err := discordutils.AckInteraction(i.Interaction, s); err != nil {
			bot.log.Warn("Failed to acknowledge interaction.", zap.Error(err))
		}
	})
	if !ok {
		return
	}

	if err := discordutils.SendFollowup(reply, i.Interaction, s); err != nil {
		bot.log.Warn("Failed to send reply.", zap.String("guild_id", i.GuildID), zap.Error(err))
	}
}

// dispatch routes a guild application command to its handler. ack runs before the
// handler so slow stores don't expire the interaction.
func (bot *Bot) dispatch(ctx context.Context, i *discordgo.InteractionCreate, ack func()) (string, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return "", false
	}

	handler, ok := bot.commandHandlers[i.ApplicationCommandData().Name]
	if !ok {
		return "", false
	}

	ack()
	return handler(ctx, i), true
}

func (bot *Bot) adminOnly(handler commandHandler) commandHandler {
	return func(ctx context.Context, i *discordgo.InteractionCreate) string {
		if !discordutils.MemberHasAdminPermissions(bot.cachedGuild(i.GuildID), i.Member) {
			return replyAdminOnly
		}
		return handler(ctx, i)
	}
}

func (bot *Bot) cachedGuild(guildID string) *discordgo.Guild {
	if bot.session == nil || bot.session.State == nil {
		return nil
	}
	guild, err := bot.session.State.Guild(guildID)
	if err != nil {
		return nil
	}
	return guild
}
