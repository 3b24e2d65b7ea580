// Package main contains the entrypoint for the chat bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/chanbot/internal/bot"
	"github.com/edgard/chanbot/internal/bot/tasks"
	"github.com/edgard/chanbot/internal/chatters"
	"github.com/edgard/chanbot/internal/config"
	"github.com/edgard/chanbot/internal/logger"
	"github.com/edgard/chanbot/internal/state"
	"github.com/edgard/chanbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires configuration, state, the Telegram transport, the scheduler
// and the bot, and blocks until shutdown. It returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	clock := clockwork.NewRealClock()
	registry := chatters.NewRegistry(chatters.WithClock(clock), chatters.WithLogger(log))
	channels := state.NewChannelContainer(cfg.Bot.DataDir, channelTemplate(log, clock), log)

	tg, err := telegram.New(ctx, log, cfg, cfg.Bot.Buffer)
	if err != nil {
		log.Error("Failed to connect to Telegram", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Chatters: registry,
		Channels: channels,
		Config:   cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), clock)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.New(log, tg.Connection(), newCommandSet(log),
		bot.WithChannelContainer(channels),
		bot.WithChatters(registry),
		bot.WithFilter(blocklistFilter(log)),
		bot.WithIgnoreSelf(cfg.Bot.IgnoreSelf),
		bot.WithEventTimeout(cfg.Bot.EventTimeout),
		bot.WithScheduler(sched),
	)
	if err := bot.RegisterState(app, Settings{ChattersWindow: cfg.Bot.ChattersWindow}); err != nil {
		log.Error("Failed to register settings", "error", err)
		_ = sched.Stop()
		return 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tg.Run(gCtx)
	})
	g.Go(func() error {
		return app.Run(gCtx)
	})

	runErr := g.Wait()
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
