package request

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/edgard/chanbot/internal/chatters"
	"github.com/edgard/chanbot/internal/state"
)

var (
	// ErrNoContext is returned when a request carries no Context.
	ErrNoContext = errors.New("request has no context")
	// ErrNoChannelContainer is returned when channel state is requested
	// but no channel container was configured.
	ErrNoChannelContainer = errors.New("no channel state container configured")
)

// NoValueError reports a state type that was never registered.
type NoValueError struct {
	Type  reflect.Type
	Scope string // "global" or the channel name
}

func (e *NoValueError) Error() string {
	return fmt.Sprintf("no %s state of type %s", e.Scope, e.Type)
}

// Context is what a request can reach beyond its own fields. Channels is
// a request-scoped cache and must not outlive the request.
type Context struct {
	Global   *state.TypeMap
	Channels *state.Cache
	Chatters *chatters.Registry
}

// Source is implemented by CommandRequest and FilterRequest.
type Source interface {
	Context() *Context
	ChannelName() string
}

// State returns the global value of type T.
func State[T any](src Source) (T, error) {
	var zero T
	rc := src.Context()
	if rc == nil {
		return zero, ErrNoContext
	}
	if rc.Global == nil {
		return zero, &NoValueError{Type: reflect.TypeFor[T](), Scope: "global"}
	}
	v, ok := state.Get[T](rc.Global)
	if !ok {
		return zero, &NoValueError{Type: reflect.TypeFor[T](), Scope: "global"}
	}
	return v, nil
}

// ChannelState returns the value of type T registered for the request's
// channel.
func ChannelState[T any](src Source) (T, error) {
	var zero T
	rc := src.Context()
	if rc == nil {
		return zero, ErrNoContext
	}
	if rc.Channels == nil {
		return zero, ErrNoChannelContainer
	}
	m, err := rc.Channels.Get(src.ChannelName())
	if err != nil {
		return zero, err
	}
	v, ok := state.Get[T](m)
	if !ok {
		return zero, &NoValueError{Type: reflect.TypeFor[T](), Scope: src.ChannelName()}
	}
	return v, nil
}

// Persisted returns the channel's persisted value of type T.
func Persisted[T any](src Source) (*state.Persisted[T], error) {
	return ChannelState[*state.Persisted[T]](src)
}

// Chatters returns the shared registry, or an empty one when the
// request carries none.
func Chatters(src Source) *chatters.Registry {
	if rc := src.Context(); rc != nil && rc.Chatters != nil {
		return rc.Chatters
	}
	return chatters.NewRegistry()
}

// FromRequest is implemented by types that can be built from a request.
type FromRequest interface {
	FromRequest(req *CommandRequest) error
}

// Extract builds a T through its FromRequest method.
func Extract[T any, PT interface {
	*T
	FromRequest
}](req *CommandRequest) (T, error) {
	var v T
	err := PT(&v).FromRequest(req)
	return v, err
}

// Maybe turns an extraction result into an optional value.
func Maybe[T any](v T, err error) (T, bool) {
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
