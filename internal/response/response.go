// Package response describes what a command sends back to the channel.
package response

import (
	"fmt"
	"strings"
	"unicode"
)

// Response is an optional chat message. The zero value sends nothing.
type Response struct {
	text    string
	has     bool
	reply   bool
	command bool
}

// New returns a response carrying text.
func New(text string) Response {
	return Response{text: text, has: true}
}

// Newf formats a response.
func Newf(format string, args ...any) Response {
	return New(fmt.Sprintf(format, args...))
}

// None returns an empty response.
func None() Response {
	return Response{}
}

// Reply returns a response threaded to the triggering message.
func Reply(text string) Response {
	return New(text).AsReply()
}

// AsReply marks the response as a reply to the triggering message.
func (r Response) AsReply() Response {
	r.reply = true
	return r
}

// AsCommand lets the text through the outgoing filter, which otherwise
// drops texts starting with '/' or '.'. Moderation commands such as
// ".delete <id>" need it.
func (r Response) AsCommand() Response {
	r.command = true
	return r
}

// Text returns the text and whether there is any.
func (r Response) Text() (string, bool) {
	return r.text, r.has
}

// IsReply reports whether the response is threaded.
func (r Response) IsReply() bool {
	return r.reply
}

// IsCommand reports whether the response bypasses the outgoing filter.
func (r Response) IsCommand() bool {
	return r.command
}

// Empty reports whether the response carries no text.
func (r Response) Empty() bool {
	return !r.has
}

// Deliverable returns the text to send, or false when the response must
// not reach the channel: no text, only whitespace, or a '/' or '.' prefix
// after leading whitespace on a non-command response.
func (r Response) Deliverable() (string, bool) {
	if !r.has || strings.TrimSpace(r.text) == "" {
		return "", false
	}
	lead := strings.TrimLeftFunc(r.text, unicode.IsSpace)
	if !r.command && (strings.HasPrefix(lead, "/") || strings.HasPrefix(lead, ".")) {
		return "", false
	}
	return r.text, true
}

func (r Response) String() string {
	if !r.has {
		return "<none>"
	}
	return r.text
}

// Responder is implemented by values that render themselves as a chat
// message.
type Responder interface {
	Response() Response
}

// Of converts a handler result into a Response. Strings and Stringers
// become plain text and nil becomes None.
func Of(v any) Response {
	switch v := v.(type) {
	case nil:
		return None()
	case Response:
		return v
	case Responder:
		return v.Response()
	case string:
		return New(v)
	case fmt.Stringer:
		return New(v.String())
	default:
		return New(fmt.Sprint(v))
	}
}
