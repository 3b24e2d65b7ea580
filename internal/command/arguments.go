package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Arguments splits a command line into whitespace separated words from
// either end. The zero value is empty.
type Arguments struct {
	s          string
	start, end int
}

// NewArguments returns an iterator over every word of s.
func NewArguments(s string) Arguments {
	return Arguments{s: s, end: len(s)}
}

func notSpace(r rune) bool {
	return !unicode.IsSpace(r)
}

// String returns the unconsumed part of the input with surrounding
// whitespace trimmed.
func (a *Arguments) String() string {
	return strings.TrimSpace(a.s[a.start:a.end])
}

// Empty reports whether no word is left.
func (a *Arguments) Empty() bool {
	return a.String() == ""
}

// Next consumes and returns the first remaining word.
func (a *Arguments) Next() (string, bool) {
	rest := a.s[a.start:a.end]
	i := strings.IndexFunc(rest, notSpace)
	if i < 0 {
		return "", false
	}
	begin := a.start + i
	stop := a.end
	if j := strings.IndexFunc(a.s[begin:a.end], unicode.IsSpace); j >= 0 {
		stop = begin + j
	}
	a.start = stop
	return a.s[begin:stop], true
}

// NextBack consumes and returns the last remaining word.
func (a *Arguments) NextBack() (string, bool) {
	rest := a.s[a.start:a.end]
	i := strings.LastIndexFunc(rest, notSpace)
	if i < 0 {
		return "", false
	}
	_, size := utf8.DecodeRuneInString(rest[i:])
	stop := a.start + i + size
	begin := a.start
	if j := strings.LastIndexFunc(a.s[a.start:stop], unicode.IsSpace); j >= 0 {
		_, sp := utf8.DecodeRuneInString(a.s[a.start+j:])
		begin = a.start + j + sp
	}
	a.end = begin
	return a.s[begin:stop], true
}

// NextRest consumes everything left and returns it trimmed.
func (a *Arguments) NextRest() (string, bool) {
	rest := a.String()
	a.start = a.end
	return rest, rest != ""
}

// ConsumedBegin returns the input consumed from the front so far.
func (a *Arguments) ConsumedBegin() Arguments {
	return NewArguments(a.s[:a.start])
}

// ConsumedEnd returns the input consumed from the back so far.
func (a *Arguments) ConsumedEnd() Arguments {
	return NewArguments(a.s[a.end:])
}

// Words returns the remaining words without consuming them.
func (a Arguments) Words() []string {
	var words []string
	for {
		w, ok := a.Next()
		if !ok {
			return words
		}
		words = append(words, w)
	}
}
