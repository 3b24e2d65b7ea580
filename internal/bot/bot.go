// Package bot runs the chat event loop: it tracks chatters, applies the
// message filter, dispatches commands and delivers responses, alongside
// the task scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/chanbot/internal/chatters"
	"github.com/edgard/chanbot/internal/command"
	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/state"
	"github.com/edgard/chanbot/internal/user"
)

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("bot is already running")

// Filter sees every message before dispatch. Returning false deletes the
// message.
type Filter func(ctx context.Context, req *request.FilterRequest) bool

// Bot is the event loop bound to one connection.
type Bot struct {
	logger       *slog.Logger
	conn         event.Connection
	processor    command.Processor
	global       *state.TypeMap
	channels     *state.ChannelContainer
	chatters     *chatters.Registry
	scheduler    *Scheduler
	filter       Filter
	ignoreSelf   bool
	eventTimeout time.Duration

	started atomic.Bool
	self    user.User
}

// Option configures a Bot.
type Option func(*Bot)

// WithChannelContainer enables per-channel state.
func WithChannelContainer(c *state.ChannelContainer) Option {
	return func(b *Bot) {
		b.channels = c
	}
}

// WithChatters shares a registry, e.g. with scheduled tasks.
func WithChatters(r *chatters.Registry) Option {
	return func(b *Bot) {
		b.chatters = r
	}
}

// WithFilter installs a message filter.
func WithFilter(f Filter) Option {
	return func(b *Bot) {
		b.filter = f
	}
}

// WithIgnoreSelf controls whether the bot's own messages are dispatched.
// Defaults to true.
func WithIgnoreSelf(ignore bool) Option {
	return func(b *Bot) {
		b.ignoreSelf = ignore
	}
}

// WithScheduler runs s for the lifetime of Run.
func WithScheduler(s *Scheduler) Option {
	return func(b *Bot) {
		b.scheduler = s
	}
}

// WithEventTimeout bounds the handling of a single event.
func WithEventTimeout(d time.Duration) Option {
	return func(b *Bot) {
		b.eventTimeout = d
	}
}

// New creates a bot reading events from conn and answering through processor.
func New(logger *slog.Logger, conn event.Connection, processor command.Processor, opts ...Option) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		logger:     logger.With("component", "bot"),
		conn:       conn,
		processor:  processor,
		global:     state.NewTypeMap(),
		ignoreSelf: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.chatters == nil {
		b.chatters = chatters.NewRegistry(chatters.WithLogger(logger))
	}
	return b
}

// RegisterState adds a global value reachable through request.State.
// It fails once Run has started.
func RegisterState[T any](b *Bot, v T) error {
	if err := state.Set(b.global, v); err != nil {
		return fmt.Errorf("bot state: %w", err)
	}
	return nil
}

// Chatters returns the bot's chatters registry.
func (b *Bot) Chatters() *chatters.Registry {
	return b.chatters
}

// Run processes events until the connection ends or ctx is cancelled.
// Events are handled one at a time in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	b.global.Freeze()

	self, err := b.conn.Identity(ctx)
	if err != nil {
		return fmt.Errorf("resolve bot identity: %w", err)
	}
	b.self = self
	b.logger.Info("Starting bot...", "username", self.Username, "user_id", self.ID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return b.loop(gCtx)
	})

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(gCtx); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				_ = b.scheduler.Stop()
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully.")
	return nil
}

func (b *Bot) loop(ctx context.Context) error {
	for {
		ev, err := b.conn.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.logger.Info("Event stream ended")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("next event: %w", err)
		}
		b.handle(ctx, ev)
	}
}

func (b *Bot) handle(ctx context.Context, ev event.Event) {
	if b.eventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.eventTimeout)
		defer cancel()
	}

	switch ev := ev.(type) {
	case event.Message:
		b.handleMessage(ctx, ev)
	case event.ClearChat:
		b.handleClearChat(ctx, ev)
	case event.ClearMessage:
		b.handleClearMessage(ctx, ev)
	default:
		b.logger.WarnContext(ctx, "Ignoring unknown event", "type", fmt.Sprintf("%T", ev))
	}
}
