// Package request describes an incoming command and gives handlers
// access to global state, channel state, persisted values and chatters.
package request

import (
	"strings"
	"unicode"

	"github.com/edgard/chanbot/internal/user"
)

// CommandPrefix starts every command message.
const CommandPrefix = "!"

// Sender is the author of a message.
type Sender struct {
	user.User
	Moderator   bool
	Broadcaster bool
}

// Privileged reports whether the sender may run moderator commands.
func (s Sender) Privileged() bool {
	return s.Moderator || s.Broadcaster
}

// Channel identifies a chat room. ID is 0 when unknown.
type Channel struct {
	Name string
	ID   int64
}

func (c Channel) String() string {
	return c.Name
}

// CommandRequest is one command message being dispatched.
type CommandRequest struct {
	// ID correlates log lines of one dispatch.
	ID        string
	Command   string
	MessageID string
	Sender    Sender
	Channel   Channel
	Bot       user.User

	rc *Context
}

// ParseCommand returns a request when text is a command, i.e. starts
// with '!' after leading whitespace.
func ParseCommand(text string, sender Sender, channel Channel, bot user.User) (*CommandRequest, bool) {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, CommandPrefix) {
		return nil, false
	}
	return &CommandRequest{
		Command: trimmed,
		Sender:  sender,
		Channel: channel,
		Bot:     bot,
	}, true
}

// WithContext returns a shallow copy carrying rc.
func (r *CommandRequest) WithContext(rc *Context) *CommandRequest {
	cp := *r
	cp.rc = rc
	return &cp
}

// Context returns the request's state context, or nil in contexts such
// as unit tests where none was attached.
func (r *CommandRequest) Context() *Context {
	return r.rc
}

// ChannelName implements Source.
func (r *CommandRequest) ChannelName() string {
	return r.Channel.Name
}

// FromBot reports whether the bot itself sent the command.
func (r *CommandRequest) FromBot() bool {
	return r.Sender.User.Equal(r.Bot)
}

// FilterRequest is any message, command or not, shown to a message
// filter before dispatch.
type FilterRequest struct {
	Text      string
	MessageID string
	Sender    Sender
	Channel   Channel
	Bot       user.User

	rc *Context
}

// NewFilterRequest returns a filter request carrying rc.
func NewFilterRequest(text, messageID string, sender Sender, channel Channel, bot user.User, rc *Context) *FilterRequest {
	return &FilterRequest{
		Text:      text,
		MessageID: messageID,
		Sender:    sender,
		Channel:   channel,
		Bot:       bot,
		rc:        rc,
	}
}

// Context implements Source.
func (r *FilterRequest) Context() *Context {
	return r.rc
}

// ChannelName implements Source.
func (r *FilterRequest) ChannelName() string {
	return r.Channel.Name
}
