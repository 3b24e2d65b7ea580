// Package command compiles command templates, matches chat input against
// them and dispatches to the first handler that matches.
package command

import (
	"context"
	"fmt"

	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/response"
)

// Handler runs a matched command.
type Handler func(ctx context.Context, req *request.CommandRequest, args Args) (response.Response, error)

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Command is a compiled template bound to a handler.
type Command struct {
	name       string
	pattern    *Pattern
	handler    Handler
	parsers    map[string]Parser
	syntax     bool
	middleware []Middleware
}

// Option configures a Command.
type Option func(*Command)

// WithName sets the name used in logs. Defaults to the template.
func WithName(name string) Option {
	return func(c *Command) {
		c.name = name
	}
}

// WithParser sets the parser of one argument.
func WithParser(arg string, p Parser) Option {
	return func(c *Command) {
		if c.parsers == nil {
			c.parsers = make(map[string]Parser)
		}
		c.parsers[arg] = p
	}
}

// WithSyntax makes argument and subcommand mismatches answer with the
// command's syntax.
func WithSyntax() Option {
	return func(c *Command) {
		c.syntax = true
	}
}

// WithMiddleware wraps the handler. The first middleware is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Command) {
		c.middleware = append(c.middleware, mw...)
	}
}

// New compiles template and binds it to h.
func New(template string, h Handler, opts ...Option) (*Command, error) {
	if h == nil {
		return nil, fmt.Errorf("command %q: nil handler", template)
	}
	p, err := Compile(template)
	if err != nil {
		return nil, err
	}

	c := &Command{pattern: p, handler: h}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		c.name = p.Template()
	}

	declared := make(map[string]bool)
	for _, name := range p.Arguments() {
		declared[name] = true
	}
	for name := range c.parsers {
		if !declared[name] {
			return nil, fmt.Errorf("%w: %q has no argument %q", ErrInvalidPattern, template, name)
		}
	}

	for i := len(c.middleware) - 1; i >= 0; i-- {
		c.handler = c.middleware[i](c.handler)
	}
	return c, nil
}

// MustNew is like New but panics on error. Meant for static command sets.
func MustNew(template string, h Handler, opts ...Option) *Command {
	c, err := New(template, h, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the command's log name.
func (c *Command) Name() string {
	return c.name
}

// Template returns the normalized template.
func (c *Command) Template() string {
	return c.pattern.Template()
}

// ShowsSyntax reports whether WithSyntax was set.
func (c *Command) ShowsSyntax() bool {
	return c.syntax
}

// Match binds the request's command text.
func (c *Command) Match(req *request.CommandRequest) (Args, error) {
	return c.pattern.Match(req.Command, c.parsers)
}

// Call runs the handler with already matched arguments.
func (c *Command) Call(ctx context.Context, req *request.CommandRequest, args Args) (response.Response, error) {
	return c.handler(ctx, req, args)
}

// ModeratorOnly answers nothing unless the sender is a moderator or the
// broadcaster.
func ModeratorOnly() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *request.CommandRequest, args Args) (response.Response, error) {
			if !req.Sender.Privileged() {
				return response.None(), nil
			}
			return next(ctx, req, args)
		}
	}
}
