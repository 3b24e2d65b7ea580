package bot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/logger"
	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/response"
	"github.com/edgard/chanbot/internal/state"
)

func (b *Bot) requestContext() *request.Context {
	rc := &request.Context{
		Global:   b.global,
		Chatters: b.chatters,
	}
	if b.channels != nil {
		rc.Channels = state.NewCache(b.channels)
	}
	return rc
}

func (b *Bot) handleMessage(ctx context.Context, msg event.Message) {
	b.chatters.Notice(msg.Channel.ID, msg.Sender.User, msg.Text, msg.ID)

	if b.ignoreSelf && msg.Sender.User.Equal(b.self) {
		return
	}

	rc := b.requestContext()

	if b.filter != nil {
		fr := request.NewFilterRequest(msg.Text, msg.ID, msg.Sender, msg.Channel, b.self, rc)
		if !b.filter(ctx, fr) {
			b.logger.InfoContext(ctx, "Message rejected by filter",
				"channel", msg.Channel.Name,
				"user", msg.Sender.Username,
				"message_id", msg.ID)
			b.chatters.ClearMessage(msg.Channel.ID, msg.ID, msg.Sender.Username)
			if msg.ID != "" {
				b.send(ctx, msg.Channel, "", response.New(".delete "+msg.ID).AsCommand())
			}
			return
		}
	}

	req, ok := request.ParseCommand(msg.Text, msg.Sender, msg.Channel, b.self)
	if !ok {
		return
	}
	req.ID = uuid.NewString()
	req.MessageID = msg.ID
	req = req.WithContext(rc)

	log := b.logger.With("request_id", req.ID, "channel", msg.Channel.Name, "user", msg.Sender.Username)
	start := time.Now()

	resp, err := b.processor.Process(ctx, req)
	if err != nil {
		log.WarnContext(ctx, "Command failed", "command", logger.Truncate(req.Command, 50), "error", err)
		return
	}
	log.DebugContext(ctx, "Command processed", "response", resp.String(), "duration", time.Since(start))

	b.send(ctx, msg.Channel, msg.ID, resp)
}

func (b *Bot) handleClearChat(ctx context.Context, ev event.ClearChat) {
	b.logger.DebugContext(ctx, "Clear chat", "channel", ev.Channel.Name, "target", ev.Target.Username)
	b.chatters.ClearChat(ev.Channel.ID, ev.Target)
}

func (b *Bot) handleClearMessage(ctx context.Context, ev event.ClearMessage) {
	b.logger.DebugContext(ctx, "Clear message", "channel", ev.Channel.Name, "message_id", ev.MessageID)
	b.chatters.ClearMessage(ev.Channel.ID, ev.MessageID, ev.Login)
}

// send delivers resp unless the outgoing filter drops it.
func (b *Bot) send(ctx context.Context, channel request.Channel, replyTo string, resp response.Response) {
	text, ok := resp.Deliverable()
	if !ok {
		return
	}

	out := event.Outgoing{
		Channel: channel,
		Text:    text,
		Command: resp.IsCommand(),
	}
	if resp.IsReply() {
		out.ReplyTo = replyTo
	}

	if err := b.conn.Send(ctx, out); err != nil {
		b.logger.ErrorContext(ctx, "Failed to send message", "channel", channel.Name, "error", err)
	}
}
