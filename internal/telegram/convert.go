package telegram

import (
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/user"
)

// fromTelegramUser maps a Telegram account to a chat user. Users without
// a @username are addressed by their first and last name.
func fromTelegramUser(u *models.User) user.User {
	if u == nil {
		return user.User{}
	}
	display := strings.TrimSpace(u.FirstName + " " + u.LastName)
	username := u.Username
	if username == "" {
		username = strconv.FormatInt(u.ID, 10)
	}
	return user.New(strings.ToLower(username), display, u.ID)
}

// channelOf names a chat by its numeric id, which survives renames and
// keeps per-channel data directories stable.
func channelOf(chat models.Chat) request.Channel {
	return request.Channel{Name: strconv.FormatInt(chat.ID, 10), ID: chat.ID}
}

// toMessage converts a text message. Private chats make the sender the
// broadcaster.
func toMessage(update *models.Update, isModerator func(int64) bool) (event.Message, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return event.Message{}, false
	}

	sender := request.Sender{
		User:        fromTelegramUser(msg.From),
		Broadcaster: msg.Chat.Type == models.ChatTypePrivate,
	}
	if isModerator != nil {
		sender.Moderator = isModerator(msg.From.ID)
	}

	return event.Message{
		Channel: channelOf(msg.Chat),
		Sender:  sender,
		Text:    msg.Text,
		ID:      strconv.Itoa(msg.ID),
	}, true
}

// toClearChat turns a ban or restriction into a clear for that user.
func toClearChat(update *models.Update) (event.ClearChat, bool) {
	cm := update.ChatMember
	if cm == nil {
		return event.ClearChat{}, false
	}

	var target *models.User
	switch cm.NewChatMember.Type {
	case models.ChatMemberTypeBanned:
		if cm.NewChatMember.Banned != nil {
			target = cm.NewChatMember.Banned.User
		}
	case models.ChatMemberTypeRestricted:
		if cm.NewChatMember.Restricted != nil {
			target = cm.NewChatMember.Restricted.User
		}
	default:
		return event.ClearChat{}, false
	}
	if target == nil {
		return event.ClearChat{}, false
	}

	return event.ClearChat{
		Channel: channelOf(cm.Chat),
		Target:  fromTelegramUser(target),
	}, true
}

// deleteTarget parses a ".delete <id>" moderation command.
func deleteTarget(text string) (int, bool) {
	rest, ok := strings.CutPrefix(text, ".delete ")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return id, true
}
