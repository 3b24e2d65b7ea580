// Package event defines the normalized chat events a transport delivers
// and the messages the bot sends back.
package event

import (
	"context"

	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/user"
)

// Event is one of Message, ClearMessage or ClearChat.
type Event interface {
	ChannelOf() request.Channel
}

// Message is a chat message.
type Message struct {
	Channel request.Channel
	Sender  request.Sender
	Text    string
	ID      string
}

// ClearMessage reports a deleted message.
type ClearMessage struct {
	Channel   request.Channel
	MessageID string
	Login     string
}

// ClearChat reports a ban or timeout of Target, or a cleared channel
// when Target is zero.
type ClearChat struct {
	Channel request.Channel
	Target  user.User
}

func (m Message) ChannelOf() request.Channel      { return m.Channel }
func (m ClearMessage) ChannelOf() request.Channel { return m.Channel }
func (m ClearChat) ChannelOf() request.Channel    { return m.Channel }

// Outgoing is text for a channel. ReplyTo threads it under a message.
// Command marks moderation commands such as ".delete <id>".
type Outgoing struct {
	Channel request.Channel
	Text    string
	ReplyTo string
	Command bool
}

// Connection is a chat transport: a source of events and a sink for
// outgoing text.
type Connection interface {
	// Identity returns the bot's own user.
	Identity(ctx context.Context) (user.User, error)
	// Next blocks until an event arrives. It returns io.EOF once the
	// stream has ended.
	Next(ctx context.Context) (Event, error)
	// Send delivers one outgoing message.
	Send(ctx context.Context, msg Outgoing) error
}
