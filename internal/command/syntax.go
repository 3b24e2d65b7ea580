package command

import "strings"

// SharedSyntax accumulates templates into a common prefix plus the
// alternatives that diverge right after it, e.g. "!song add|rm|list".
// The zero value is empty.
type SharedSyntax struct {
	prefix  []string
	choices []string
	set     bool
}

// Add folds a template into the summary.
func (s *SharedSyntax) Add(template string) {
	words := strings.Fields(template)
	if !s.set {
		s.prefix = words
		s.set = true
		return
	}

	for i := 0; ; i++ {
		if i == len(s.prefix) {
			if i < len(words) {
				s.choices = append(s.choices, words[i])
			}
			return
		}
		if i < len(words) && s.prefix[i] == words[i] {
			continue
		}
		diverged := s.prefix[i]
		s.prefix = s.prefix[:i]
		s.choices = append(s.choices[:0:0], diverged)
		if i < len(words) {
			s.choices = append(s.choices, words[i])
		}
		return
	}
}

// Empty reports whether nothing was added.
func (s *SharedSyntax) Empty() bool {
	return !s.set
}

// Prefix returns the words shared by every added template.
func (s *SharedSyntax) Prefix() []string {
	return append([]string(nil), s.prefix...)
}

// Choices returns the alternatives following the prefix.
func (s *SharedSyntax) Choices() []string {
	return append([]string(nil), s.choices...)
}

func (s *SharedSyntax) String() string {
	prefix := strings.Join(s.prefix, " ")
	if len(s.choices) == 0 {
		return prefix
	}
	alts := strings.Join(s.choices, "|")
	if prefix == "" {
		return alts
	}
	return prefix + " " + alts
}
