package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/response"
)

// Processor turns a command request into a response.
type Processor interface {
	Process(ctx context.Context, req *request.CommandRequest) (response.Response, error)
}

// Set is an ordered list of commands; the first one that matches answers.
type Set struct {
	commands []*Command
	logger   *slog.Logger
}

// NewSet returns a set dispatching to cmds in order.
func NewSet(logger *slog.Logger, cmds ...*Command) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		commands: cmds,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Add appends commands after the existing ones.
func (s *Set) Add(cmds ...*Command) {
	s.commands = append(s.commands, cmds...)
}

// Commands returns the registered commands in dispatch order.
func (s *Set) Commands() []*Command {
	return append([]*Command(nil), s.commands...)
}

// Process runs the first matching command. A syntax-enabled command that
// fails on its arguments answers with its own template right away. A
// handler error is logged and dispatch moves on to the next command.
// When nothing answers, the shared syntax of the syntax-enabled commands
// whose subcommand did not match is the reply, if any.
func (s *Set) Process(ctx context.Context, req *request.CommandRequest) (response.Response, error) {
	log := s.logger.With("request_id", req.ID, "channel", req.Channel.Name)
	mention := req.Sender.Mention()

	var shared SharedSyntax
	for _, cmd := range s.commands {
		if err := ctx.Err(); err != nil {
			return response.None(), err
		}

		args, err := cmd.Match(req)
		if err != nil {
			switch {
			case errors.Is(err, ErrCommandMismatch):
			case errors.Is(err, ErrSubcommandMismatch):
				if cmd.ShowsSyntax() {
					shared.Add(cmd.Template())
				}
				log.DebugContext(ctx, "Subcommand did not match", "command", cmd.Name(), "error", err)
			case IsArgumentError(err) && cmd.ShowsSyntax():
				log.DebugContext(ctx, "Arguments did not match, answering with syntax", "command", cmd.Name(), "error", err)
				return response.New(mention + " " + cmd.Template()), nil
			default:
				log.DebugContext(ctx, "Command did not match", "command", cmd.Name(), "error", err)
			}
			continue
		}

		log.DebugContext(ctx, "Command matched", "command", cmd.Name(), "args", args.Len())
		resp, err := cmd.Call(ctx, req, args)
		if err != nil {
			log.WarnContext(ctx, "Command failed, trying the next one", "error", &Error{Kind: RequestError, Name: cmd.Name(), Err: err})
			continue
		}
		return resp, nil
	}

	if !shared.Empty() {
		return response.New(mention + " " + shared.String()), nil
	}
	return response.None(), nil
}
