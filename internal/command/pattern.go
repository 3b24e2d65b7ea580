package command

import (
	"fmt"
	"strings"
)

// TokenKind tags a Token.
type TokenKind int

const (
	// KindCommand is a literal word starting with '!'.
	KindCommand TokenKind = iota + 1
	// KindSubcommand is any other literal word.
	KindSubcommand
	// KindArgument binds input to a name.
	KindArgument
	// KindTakeAll is the bare ".." marker that swallows the rest unbound.
	KindTakeAll
)

// Token is one compiled word of a command template.
type Token struct {
	Kind     TokenKind
	Text     string // literal text or argument name
	Optional bool
	TakeAll  bool
}

// Literal reports whether the token must equal the input word.
func (t Token) Literal() bool {
	return t.Kind == KindCommand || t.Kind == KindSubcommand
}

func (t Token) String() string {
	switch t.Kind {
	case KindTakeAll:
		return ".."
	case KindArgument:
		name := t.Text
		if t.TakeAll {
			name += ".."
		}
		if t.Optional {
			return "[" + name + "]"
		}
		return "<" + name + ">"
	default:
		return t.Text
	}
}

// Pattern is a compiled command template.
type Pattern struct {
	template string
	tokens   []Token
	// rest is the index of the take-all token, or -1.
	rest int
}

// Compile parses a template such as "!song add <command> <url> <cooldown..>".
func Compile(template string) (*Pattern, error) {
	words := strings.Fields(template)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidPattern)
	}

	p := &Pattern{
		template: strings.Join(words, " "),
		tokens:   make([]Token, 0, len(words)),
		rest:     -1,
	}
	names := make(map[string]struct{})

	for i, w := range words {
		tok, err := parseToken(w)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, template, err)
		}
		if tok.Kind == KindArgument {
			if _, dup := names[tok.Text]; dup {
				return nil, fmt.Errorf("%w: %q: duplicate argument %q", ErrInvalidPattern, template, tok.Text)
			}
			names[tok.Text] = struct{}{}
		}
		if tok.TakeAll {
			if p.rest >= 0 {
				return nil, fmt.Errorf("%w: %q: more than one take-all token", ErrInvalidPattern, template)
			}
			p.rest = i
		} else if p.rest >= 0 && !tok.Literal() {
			return nil, fmt.Errorf("%w: %q: %s follows the take-all token", ErrInvalidPattern, template, tok)
		}
		p.tokens = append(p.tokens, tok)
	}

	// Literals after the take-all anchor to the tail and are exempt.
	optional := false
	for i, tok := range p.tokens {
		if p.rest >= 0 && i > p.rest {
			break
		}
		if tok.Optional {
			optional = true
			continue
		}
		if optional {
			return nil, fmt.Errorf("%w: %q: required %s after an optional token", ErrInvalidPattern, template, tok)
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

func parseToken(w string) (Token, error) {
	switch {
	case w == "..":
		return Token{Kind: KindTakeAll, Optional: true, TakeAll: true}, nil
	case strings.HasPrefix(w, "!"):
		return Token{Kind: KindCommand, Text: w}, nil
	case strings.HasPrefix(w, "<") && strings.HasSuffix(w, ">"):
		return parseArgument(w[1:len(w)-1], false)
	case strings.HasPrefix(w, "[") && strings.HasSuffix(w, "]"):
		return parseArgument(w[1:len(w)-1], true)
	default:
		return Token{Kind: KindSubcommand, Text: w}, nil
	}
}

func parseArgument(inner string, optional bool) (Token, error) {
	name, takeAll := strings.CutSuffix(inner, "..")
	if name == "" {
		return Token{}, fmt.Errorf("empty argument name")
	}
	return Token{Kind: KindArgument, Text: name, Optional: optional, TakeAll: takeAll}, nil
}

// Template returns the normalized template text.
func (p *Pattern) Template() string {
	return p.template
}

// Tokens returns a copy of the compiled tokens.
func (p *Pattern) Tokens() []Token {
	return append([]Token(nil), p.tokens...)
}

// Arguments returns the argument names in declaration order.
func (p *Pattern) Arguments() []string {
	var names []string
	for _, tok := range p.tokens {
		if tok.Kind == KindArgument {
			names = append(names, tok.Text)
		}
	}
	return names
}

func (p *Pattern) String() string {
	return p.template
}
