package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"souverain/announce"
	"souverain/birthdays"
	"souverain/calendar"
	"souverain/commands"
	"souverain/dal"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePlatform struct {
	channels map[string]string
	sent     map[string][]string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{channels: make(map[string]string), sent: make(map[string][]string)}
}

func (p *fakePlatform) Guild(_ context.Context, guildID string) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID}, nil
}

func (p *fakePlatform) Channel(_ context.Context, guildID, channelID string) (*discordgo.Channel, error) {
	if p.channels[channelID] != guildID {
		return nil, errors.New("unknown channel")
	}
	return &discordgo.Channel{ID: channelID, GuildID: guildID}, nil
}

func (p *fakePlatform) Member(context.Context, string, string) (*discordgo.Member, error) {
	return nil, errors.New("unknown member")
}

func (p *fakePlatform) SendMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) error {
	p.sent[channelID] = append(p.sent[channelID], msg.Content)
	return nil
}

type testBot struct {
	*Bot
	store    *dal.GormStore
	platform *fakePlatform
	acks     int
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	store, err := dal.OpenSQLite(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	platform := newFakePlatform()
	announcer := announce.NewAnnouncer(store, platform, zap.NewNop())
	service := birthdays.NewService(store, zap.NewNop())

	return &testBot{
		Bot:      New(nil, service, announcer, zap.NewNop()),
		store:    store,
		platform: platform,
	}
}

// run dispatches i and returns the reply.
func (tb *testBot) run(t *testing.T, i *discordgo.InteractionCreate) string {
	t.Helper()

	reply, ok := tb.dispatch(context.Background(), i, func() { tb.acks++ })
	require.True(t, ok, "interaction was not handled")
	return reply
}

func interaction(userID string, perms int64, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: "G",
			Member: &discordgo.Member{
				User:        &discordgo.User{ID: userID, Username: "user-" + userID},
				Permissions: perms,
			},
			Data: data,
		},
	}
}

func dateCommand(name, userID, date string) *discordgo.InteractionCreate {
	return interaction(userID, 0, discordgo.ApplicationCommandInteractionData{
		Name: name,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: commands.DateOption, Type: discordgo.ApplicationCommandOptionString, Value: date},
		},
	})
}

func getCommand(userID, target string) *discordgo.InteractionCreate {
	return interaction(userID, 0, discordgo.ApplicationCommandInteractionData{
		Name: commands.GetBirthday,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: commands.UserOption, Type: discordgo.ApplicationCommandOptionUser, Value: target},
		},
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Users: map[string]*discordgo.User{target: {ID: target, Username: "user-" + target}},
		},
	})
}

func setChannelCommand(userID string, perms int64, channelID string) *discordgo.InteractionCreate {
	return interaction(userID, perms, discordgo.ApplicationCommandInteractionData{
		Name: commands.Config,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{
				Name: commands.ConfigChannel,
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: commands.ChannelOption, Type: discordgo.ApplicationCommandOptionChannel, Value: channelID},
				},
			},
		},
	})
}

func testCommand(userID string, perms int64) *discordgo.InteractionCreate {
	return interaction(userID, perms, discordgo.ApplicationCommandInteractionData{Name: commands.Test})
}

const admin = int64(discordgo.PermissionAdministrator)

func TestBot_SetBirthday(t *testing.T) {
	tb := newTestBot(t)

	assert.Equal(t, replyRegistered, tb.run(t, dateCommand(commands.SetBirthday, "A", "2000-06-10")))
	assert.Equal(t, replyAlreadyRegistered, tb.run(t, dateCommand(commands.SetBirthday, "A", "2001-01-01")))
	assert.Equal(t, replyInvalidDate, tb.run(t, dateCommand(commands.SetBirthday, "B", "10/06/2000")))
	assert.Equal(t, replyInvalidDate, tb.run(t, dateCommand(commands.SetBirthday, "B", "2000-02-30")))
	assert.Equal(t, replyRegistered, tb.run(t, dateCommand(commands.SetBirthday, "C", " 2001-01-01 ")))
	assert.Equal(t, 5, tb.acks)

	_, err := tb.store.GetBirthday(context.Background(), "G", "B")
	assert.ErrorIs(t, err, dal.ErrNotFound)
}

func TestBot_ChangeBirthday(t *testing.T) {
	tb := newTestBot(t)

	assert.Equal(t, replyNotRegistered, tb.run(t, dateCommand(commands.ChangeBirthday, "A", "2000-06-10")))

	tb.run(t, dateCommand(commands.SetBirthday, "A", "2000-06-10"))
	assert.Equal(t, replyChanged, tb.run(t, dateCommand(commands.ChangeBirthday, "A", "1999-12-24")))
	assert.Equal(t, replyInvalidDate, tb.run(t, dateCommand(commands.ChangeBirthday, "A", "1999-12-32")))

	got, err := tb.store.GetBirthday(context.Background(), "G", "A")
	require.NoError(t, err)
	assert.Equal(t, "1999-12-24", got.Date.UTC().Format(calendar.DateLayout))
}

func TestBot_GetBirthday(t *testing.T) {
	tb := newTestBot(t)

	assert.Equal(t, "❌ Aucune date d'anniversaire trouvée pour user-A.", tb.run(t, getCommand("B", "A")))

	tb.run(t, dateCommand(commands.SetBirthday, "A", "2000-06-10"))

	tb.now = func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) }
	assert.Equal(t,
		"<@A> a son anniversaire le 10/06/2000. Prochain anniversaire dans 2 semaines.",
		tb.run(t, getCommand("B", "A")),
	)

	tb.now = func() time.Time { return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC) }
	assert.Equal(t,
		"<@A> a son anniversaire le 10/06/2000. C'est aujourd'hui ! 🎉",
		tb.run(t, getCommand("B", "A")),
	)
}

func TestBot_ConfigSetChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse members without admin permissions", func(t *testing.T) {
		tb := newTestBot(t)

		assert.Equal(t, replyAdminOnly, tb.run(t, setChannelCommand("U", 0, "C1")))

		_, err := tb.store.GetGuildConfig(ctx, "G")
		assert.ErrorIs(t, err, dal.ErrNotFound)
	})

	t.Run("should keep the last channel", func(t *testing.T) {
		tb := newTestBot(t)

		assert.Equal(t, "✅ Le salon <#C1> a été défini pour les anniversaires.", tb.run(t, setChannelCommand("U", admin, "C1")))
		tb.run(t, setChannelCommand("U", admin, "C2"))

		config, err := tb.store.GetGuildConfig(ctx, "G")
		require.NoError(t, err)
		assert.Equal(t, "C2", config.BirthdayChannelID)
	})

	t.Run("should reject unknown subcommands", func(t *testing.T) {
		tb := newTestBot(t)

		i := interaction("U", admin, discordgo.ApplicationCommandInteractionData{
			Name: commands.Config,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "set-role", Type: discordgo.ApplicationCommandOptionSubCommand},
			},
		})
		assert.Equal(t, replyUnknownSubcommand, tb.run(t, i))
	})
}

func TestBot_Test(t *testing.T) {
	tb := newTestBot(t)

	assert.Equal(t, replyAdminOnly, tb.run(t, testCommand("U", 0)))
	assert.Equal(t, replyNoChannel, tb.run(t, testCommand("U", admin)))

	tb.run(t, setChannelCommand("U", admin, "C"))
	assert.Equal(t, replyChannelGone, tb.run(t, testCommand("U", admin)))

	tb.platform.channels["C"] = "G"
	assert.Equal(t, "✅ Message de test envoyé dans <#C>.", tb.run(t, testCommand("U", admin)))
	assert.Len(t, tb.platform.sent["C"], 1)
}

func TestBot_dispatch_Ignored(t *testing.T) {
	tb := newTestBot(t)

	t.Run("should ignore direct messages", func(t *testing.T) {
		i := dateCommand(commands.SetBirthday, "A", "2000-06-10")
		i.GuildID = ""
		i.Member = nil
		i.User = &discordgo.User{ID: "A"}

		_, ok := tb.dispatch(context.Background(), i, func() { tb.acks++ })
		assert.False(t, ok)
	})

	t.Run("should ignore other interaction types", func(t *testing.T) {
		i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}}

		_, ok := tb.dispatch(context.Background(), i, func() { tb.acks++ })
		assert.False(t, ok)
	})

	t.Run("should ignore unknown commands", func(t *testing.T) {
		i := interaction("A", 0, discordgo.ApplicationCommandInteractionData{Name: "meatball"})

		_, ok := tb.dispatch(context.Background(), i, func() { tb.acks++ })
		assert.False(t, ok)
	})

	assert.Zero(t, tb.acks)
}

func TestBot_Ready(t *testing.T) {
	tb := newTestBot(t)

	assert.ErrorIs(t, tb.Ready(context.Background()), ErrNotReady)
	tb.ready.Store(true)
	assert.NoError(t, tb.Ready(context.Background()))
}

func TestBot_RegisteredBirthdayIsAnnounced(t *testing.T) {
	tb := newTestBot(t)
	tb.platform.channels["C"] = "G"

	tb.run(t, dateCommand(commands.SetBirthday, "A", "2000-06-10"))
	tb.run(t, setChannelCommand("admin", admin, "C"))

	announcer := announce.NewAnnouncer(tb.store, tb.platform, zap.NewNop())
	sweeper := announce.NewSweeper(tb.store, announcer, zap.NewNop())
	report := sweeper.Sweep(context.Background(), time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, 1, report.Delivered)
	require.Len(t, tb.platform.sent["C"], 1)
	assert.Contains(t, tb.platform.sent["C"][0], "<@A>")
}
