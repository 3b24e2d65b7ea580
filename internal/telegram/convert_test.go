package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/user"
)

func TestFromTelegramUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *models.User
		want user.User
	}{
		{"nil", nil, user.User{}},
		{"username", &models.User{ID: 7, Username: "Amy", FirstName: "Amy", LastName: "Pond"}, user.New("amy", "Amy Pond", 7)},
		{"no username", &models.User{ID: 8, FirstName: "Rory"}, user.New("8", "Rory", 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fromTelegramUser(tt.in))
		})
	}
}

func TestToMessage(t *testing.T) {
	t.Parallel()

	update := &models.Update{Message: &models.Message{
		ID:   42,
		From: &models.User{ID: 7, Username: "amy", FirstName: "Amy"},
		Chat: models.Chat{ID: -100, Type: models.ChatTypeSupergroup},
		Text: "!ping",
	}}

	msg, ok := toMessage(update, func(id int64) bool { return id == 7 })
	require.True(t, ok)
	assert.Equal(t, event.Message{
		Channel: request.Channel{Name: "-100", ID: -100},
		Sender:  request.Sender{User: user.New("amy", "Amy", 7), Moderator: true},
		Text:    "!ping",
		ID:      "42",
	}, msg)

	update.Message.Chat.Type = models.ChatTypePrivate
	msg, ok = toMessage(update, nil)
	require.True(t, ok)
	assert.True(t, msg.Sender.Broadcaster)
	assert.False(t, msg.Sender.Moderator)

	_, ok = toMessage(&models.Update{}, nil)
	assert.False(t, ok)
	_, ok = toMessage(&models.Update{Message: &models.Message{From: &models.User{ID: 1}}}, nil)
	assert.False(t, ok, "messages without text are ignored")
}

func TestToClearChat(t *testing.T) {
	t.Parallel()

	chat := models.Chat{ID: -100}
	target := &models.User{ID: 9, Username: "spammer"}

	cc, ok := toClearChat(&models.Update{ChatMember: &models.ChatMemberUpdated{
		Chat: chat,
		NewChatMember: models.ChatMember{
			Type:   models.ChatMemberTypeBanned,
			Banned: &models.ChatMemberBanned{User: target},
		},
	}})
	require.True(t, ok)
	assert.Equal(t, event.ClearChat{
		Channel: request.Channel{Name: "-100", ID: -100},
		Target:  user.New("spammer", "", 9),
	}, cc)

	_, ok = toClearChat(&models.Update{ChatMember: &models.ChatMemberUpdated{
		Chat:          chat,
		NewChatMember: models.ChatMember{Type: models.ChatMemberTypeMember, Member: &models.ChatMemberMember{User: target}},
	}})
	assert.False(t, ok)

	_, ok = toClearChat(&models.Update{})
	assert.False(t, ok)
}

func TestDeleteTarget(t *testing.T) {
	t.Parallel()

	id, ok := deleteTarget(".delete 42")
	require.True(t, ok)
	assert.Equal(t, 42, id)

	_, ok = deleteTarget(".delete abc")
	assert.False(t, ok)
	_, ok = deleteTarget(".ban 42")
	assert.False(t, ok)
}
