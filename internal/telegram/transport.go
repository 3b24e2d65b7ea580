// Package telegram connects the bot to Telegram through go-telegram/bot.
// Updates are published into a message bus and whatever the bot sends
// is delivered back to the chats.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/chanbot/internal/bus"
	"github.com/edgard/chanbot/internal/config"
	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/user"
)

// Transport relays between Telegram and a message bus.
type Transport struct {
	api         *bot.Bot
	bus         *bus.MessageBus
	self        user.User
	logger      *slog.Logger
	isModerator func(int64) bool
	timeout     time.Duration
}

// NewTelegramBot creates a go-telegram/bot client.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return b, nil
}

// New connects to Telegram and resolves the bot's identity. buffer sizes
// the bus queues.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, buffer int, opts ...bot.Option) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		logger:      logger.With("component", "telegram"),
		isModerator: cfg.IsModerator,
		timeout:     cfg.Telegram.RequestTimeout,
	}

	allOpts := append([]bot.Option{
		bot.WithMiddlewares(Middleware(t.logger)),
		bot.WithDefaultHandler(t.handleUpdate),
		bot.WithAllowedUpdates(bot.AllowedUpdates{"message", "chat_member"}),
	}, opts...)

	api, err := NewTelegramBot(cfg.Telegram.Token, logger, allOpts...)
	if err != nil {
		return nil, err
	}

	me, err := api.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}

	t.api = api
	t.self = fromTelegramUser(me)
	t.bus = bus.New(t.self, buffer)
	t.logger.Info("Connected to Telegram", "username", t.self.Username, "user_id", t.self.ID)
	return t, nil
}

// Connection returns the bus the bot reads from and writes to.
func (t *Transport) Connection() event.Connection {
	return t.bus
}

// Run polls for updates and delivers outgoing messages until ctx ends.
// The bus is closed on return so that the bot sees the end of stream.
func (t *Transport) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer t.bus.Close()
		t.api.Start(gCtx)
		return nil
	})

	g.Go(func() error {
		for {
			msg, ok := t.bus.Consume(gCtx)
			if !ok {
				return nil
			}
			if err := t.deliver(gCtx, msg); err != nil {
				t.logger.ErrorContext(gCtx, "Failed to deliver message", "chat_id", msg.Channel.ID, "error", err)
			}
		}
	})

	return g.Wait()
}

func (t *Transport) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	var ev event.Event
	if msg, ok := toMessage(update, t.isModerator); ok {
		ev = msg
	} else if cc, ok := toClearChat(update); ok {
		ev = cc
	} else {
		return
	}

	if err := t.bus.Publish(ctx, ev); err != nil {
		t.logger.WarnContext(ctx, "Dropped update", "update_id", update.ID, "error", err)
	}
}

func (t *Transport) deliver(ctx context.Context, msg event.Outgoing) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if msg.Command {
		id, ok := deleteTarget(msg.Text)
		if !ok {
			t.logger.WarnContext(ctx, "Unsupported moderation command", "text", msg.Text)
			return nil
		}
		_, err := t.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
			ChatID:    msg.Channel.ID,
			MessageID: id,
		})
		return err
	}

	params := &bot.SendMessageParams{
		ChatID: msg.Channel.ID,
		Text:   msg.Text,
	}
	if replyTo, err := strconv.Atoi(msg.ReplyTo); err == nil {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}
	_, err := t.api.SendMessage(ctx, params)
	return err
}
