package command

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cast"

	"github.com/edgard/chanbot/internal/user"
)

// Parser converts one argument's input text into a typed value.
type Parser func(s string) (any, error)

var errAbsent = errors.New("argument absent")

// String binds the input unchanged. It is the default parser.
func String(s string) (any, error) {
	return s, nil
}

// Int parses an int.
func Int(s string) (any, error) {
	return cast.ToIntE(s)
}

// Int64 parses an int64.
func Int64(s string) (any, error) {
	return cast.ToInt64E(s)
}

// Uint parses a non-negative int.
func Uint(s string) (any, error) {
	return cast.ToUintE(s)
}

// Float parses a float64.
func Float(s string) (any, error) {
	return cast.ToFloat64E(s)
}

// Bool parses true/false, 1/0 and similar.
func Bool(s string) (any, error) {
	return cast.ToBoolE(s)
}

// Duration parses values such as "20m" or "1h30m".
func Duration(s string) (any, error) {
	return cast.ToDurationE(s)
}

// Time parses dates and timestamps in the common layouts.
func Time(s string) (any, error) {
	return cast.ToTimeE(s)
}

// URL accepts absolute URLs with a host.
func URL(s string) (any, error) {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url %q is not absolute", s)
	}
	return u, nil
}

// UserArg binds a user.Argument, stripping a leading '@'.
func UserArg(s string) (any, error) {
	return user.ParseArgument(s), nil
}

// Optional wraps p so that unparsable input leaves the argument unbound
// instead of failing the match.
func Optional(p Parser) Parser {
	return func(s string) (any, error) {
		v, err := p(s)
		if err != nil {
			return nil, errAbsent
		}
		return v, nil
	}
}
