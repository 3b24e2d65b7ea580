package command

import (
	"errors"
	"fmt"
)

// Args holds the values bound by a successful match.
type Args struct {
	values map[string]any
	raw    map[string]string
}

func newArgs() Args {
	return Args{values: make(map[string]any), raw: make(map[string]string)}
}

// Has reports whether the argument was bound. Absent optional arguments
// are not bound.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Raw returns the input text bound to name.
func (a Args) Raw(name string) string {
	return a.raw[name]
}

// Value returns the parsed value bound to name.
func (a Args) Value(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Len returns the number of bound arguments.
func (a Args) Len() int {
	return len(a.values)
}

// Get returns the argument converted to T.
func Get[T any](a Args, name string) (T, error) {
	var zero T
	v, ok := a.values[name]
	if !ok {
		return zero, &Error{Kind: ArgumentMissing, Name: name}
	}
	t, ok := v.(T)
	if !ok {
		return zero, &Error{Kind: ArgumentParsing, Name: name, Err: fmt.Errorf("have %T, want %T", v, zero)}
	}
	return t, nil
}

// Lookup is Get for optional arguments.
func Lookup[T any](a Args, name string) (T, bool) {
	t, err := Get[T](a, name)
	return t, err == nil
}

// Match binds input against the pattern. Tokens before the take-all
// token consume words from the front, literals after it consume words
// from the back, and the take-all token gets whatever is left in the
// middle. Parsers are keyed by argument name; unlisted arguments bind
// strings.
func (p *Pattern) Match(input string, parsers map[string]Parser) (Args, error) {
	args := NewArguments(input)
	out := newArgs()

	head := p.tokens
	if p.rest >= 0 {
		head = p.tokens[:p.rest]
	}
	for _, tok := range head {
		word, ok := args.Next()
		if err := bind(&out, tok, word, ok, parsers); err != nil {
			return Args{}, err
		}
	}

	if p.rest < 0 {
		if !args.Empty() {
			return Args{}, &Error{Kind: ArgumentsLeftOver, Name: args.String()}
		}
		return out, nil
	}

	tail := p.tokens[p.rest+1:]
	for i := len(tail) - 1; i >= 0; i-- {
		word, ok := args.NextBack()
		if !ok || word != tail[i].Text {
			return Args{}, mismatch(tail[i])
		}
	}

	word, ok := args.NextRest()
	if err := bind(&out, p.tokens[p.rest], word, ok, parsers); err != nil {
		return Args{}, err
	}
	return out, nil
}

func bind(out *Args, tok Token, word string, ok bool, parsers map[string]Parser) error {
	switch tok.Kind {
	case KindCommand, KindSubcommand:
		if !ok || word != tok.Text {
			return mismatch(tok)
		}
		return nil
	case KindTakeAll:
		return nil
	}

	if !ok {
		if tok.Optional {
			return nil
		}
		return &Error{Kind: ArgumentMissing, Name: tok.Text}
	}

	parse := parsers[tok.Text]
	if parse == nil {
		parse = String
	}
	v, err := parse(word)
	if errors.Is(err, errAbsent) {
		return nil
	}
	if err != nil {
		return &Error{Kind: NamedArgumentParsing, Name: tok.Text, Err: err}
	}
	out.values[tok.Text] = v
	out.raw[tok.Text] = word
	return nil
}
