// Package bus is an in-process chat transport. Transports publish
// inbound events into it and consume what the bot sends; tests drive the
// bot through it directly.
package bus

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/user"
)

// DefaultBuffer is the capacity of the inbound and outbound queues.
const DefaultBuffer = 100

// ErrClosed is returned when publishing to a closed bus.
var ErrClosed = errors.New("bus closed")

// MessageBus implements event.Connection.
type MessageBus struct {
	inbound   chan event.Event
	outbound  chan event.Outgoing
	identity  user.User
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// New returns a bus whose bot identity is self.
func New(self user.User, buffer int) *MessageBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MessageBus{
		inbound:  make(chan event.Event, buffer),
		outbound: make(chan event.Outgoing, buffer),
		identity: self,
		done:     make(chan struct{}),
	}
}

// Identity implements event.Connection.
func (mb *MessageBus) Identity(context.Context) (user.User, error) {
	return mb.identity, nil
}

// Publish queues an inbound event, blocking while the queue is full.
func (mb *MessageBus) Publish(ctx context.Context, ev event.Event) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.inbound <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next implements event.Connection. Events queued before Close are still
// delivered; afterwards it returns io.EOF.
func (mb *MessageBus) Next(ctx context.Context) (event.Event, error) {
	select {
	case ev := <-mb.inbound:
		return ev, nil
	case <-mb.done:
		select {
		case ev := <-mb.inbound:
			return ev, nil
		default:
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send implements event.Connection.
func (mb *MessageBus) Send(ctx context.Context, msg event.Outgoing) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until the bot sends something. ok is false once the
// context ends or the bus is closed and drained.
func (mb *MessageBus) Consume(ctx context.Context) (msg event.Outgoing, ok bool) {
	select {
	case msg := <-mb.outbound:
		return msg, true
	case <-mb.done:
		select {
		case msg := <-mb.outbound:
			return msg, true
		default:
			return event.Outgoing{}, false
		}
	case <-ctx.Done():
		return event.Outgoing{}, false
	}
}

// Close ends the inbound stream. It is safe to call more than once.
func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		mb.mu.Lock()
		mb.closed = true
		mb.mu.Unlock()
		close(mb.done)
	})
}
