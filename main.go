package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"souverain/announce"
	"souverain/birthdays"
	"souverain/bot"
	"souverain/config"
	"souverain/dal"
	"souverain/discordutils"
	"souverain/health"
	"souverain/logging"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	envFile = flag.String(
		"env",
		".env",
		"Environment file to load before reading the environment.",
	)
	guildID = flag.String(
		"guild",
		"",
		"Test guild ID. Overrides GUILD_ID. If neither is set, slash commands are registered globally.",
	)
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *guildID != "" {
		cfg.GuildID = *guildID
	}

	logger, err := logging.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	discordutils.UseLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := dal.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("Failed to close store.", zap.Error(err))
		}
	}()

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	if cfg.Development() {
		session.LogLevel = discordgo.LogInformational
	}

	announcer := announce.NewAnnouncer(store, discordutils.NewSessionPlatform(session), logger)
	b := bot.New(session, birthdays.NewService(store, logger), announcer, logger)
	if err := b.Open(cfg.ApplicationID, cfg.GuildID); err != nil {
		return err
	}
	defer b.Shutdown()

	go announce.NewSweeper(store, announcer, logger).Run(ctx)

	if cfg.HealthAddr != "" {
		router := health.Routes(health.NewHandler(map[string]health.Check{
			"store":   store.Ping,
			"gateway": b.Ready,
		}, logger))
		go func() {
			if err := health.Serve(ctx, cfg.HealthAddr, router, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Health server failed.", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	return nil
}
