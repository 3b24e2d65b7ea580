package command

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern is returned by Compile for malformed templates.
var ErrInvalidPattern = errors.New("invalid command pattern")

// Kind classifies why a command did not produce a response.
type Kind int

const (
	// CommandMismatch means the first literal word differs. The message is
	// meant for another command.
	CommandMismatch Kind = iota + 1
	// SubcommandMismatch means the command matched but a later literal did not.
	SubcommandMismatch
	// ArgumentMissing means a required argument had no input left.
	ArgumentMissing
	// ArgumentParsing means a value could not be converted to the requested type.
	ArgumentParsing
	// NamedArgumentParsing means a named argument's parser rejected its input.
	NamedArgumentParsing
	// ArgumentsLeftOver means input remained after every token was consumed.
	ArgumentsLeftOver
	// RequestError wraps a failure returned by a matched handler, usually a
	// state extraction error.
	RequestError
)

func (k Kind) String() string {
	switch k {
	case CommandMismatch:
		return "command mismatch"
	case SubcommandMismatch:
		return "subcommand mismatch"
	case ArgumentMissing:
		return "argument missing"
	case ArgumentParsing:
		return "argument parsing"
	case NamedArgumentParsing:
		return "named argument parsing"
	case ArgumentsLeftOver:
		return "arguments left over"
	case RequestError:
		return "request error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type produced by matching and dispatch.
type Error struct {
	Kind Kind
	// Name is the argument name or the expected literal, when known.
	Name string
	Err  error
}

// Sentinels for errors.Is checks against a Kind.
var (
	ErrCommandMismatch      = &Error{Kind: CommandMismatch}
	ErrSubcommandMismatch   = &Error{Kind: SubcommandMismatch}
	ErrArgumentMissing      = &Error{Kind: ArgumentMissing}
	ErrArgumentParsing      = &Error{Kind: ArgumentParsing}
	ErrNamedArgumentParsing = &Error{Kind: NamedArgumentParsing}
	ErrArgumentsLeftOver    = &Error{Kind: ArgumentsLeftOver}
	ErrRequest              = &Error{Kind: RequestError}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Name)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind when target carries no detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Name == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsArgumentError reports whether err is a user input error.
func IsArgumentError(err error) bool {
	switch KindOf(err) {
	case ArgumentMissing, ArgumentParsing, NamedArgumentParsing, ArgumentsLeftOver:
		return true
	default:
		return false
	}
}

func mismatch(tok Token) *Error {
	if tok.Kind == KindCommand {
		return &Error{Kind: CommandMismatch, Name: tok.Text}
	}
	return &Error{Kind: SubcommandMismatch, Name: tok.Text}
}
