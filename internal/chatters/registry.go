// Package chatters tracks who recently chatted in each channel and keeps
// a process-wide index of known identities.
package chatters

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/chanbot/internal/user"
)

// Entry is the presence record of one user in one channel.
type Entry struct {
	User          user.User
	LastActive    time.Time
	LastMessage   string
	LastMessageID string
}

// entryKey prefers the numeric id; usernames are not stable over time.
type entryKey struct {
	id       int64
	username string
}

func keyOf(u user.User) entryKey {
	if u.HasID() {
		return entryKey{id: u.ID}
	}
	return entryKey{username: u.Username}
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	channels map[int64]map[entryKey]*Entry
	index    *Index
	clock    clockwork.Clock
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		channels: make(map[int64]map[entryKey]*Entry),
		index:    newIndex(),
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "chatters")
	return r
}

// Notice records a message from u in the channel. Presence needs a
// channel id; the identity index is updated either way.
func (r *Registry) Notice(channelID int64, u user.User, text, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := r.index.Observe(u)
	if channelID == 0 {
		return
	}

	entries, ok := r.channels[channelID]
	if !ok {
		entries = make(map[entryKey]*Entry)
		r.channels[channelID] = entries
	}

	key := keyOf(canonical)
	if canonical.HasID() {
		// Drop an entry recorded before the id was known.
		delete(entries, entryKey{username: u.Username})
	}
	e, ok := entries[key]
	if !ok {
		e = &Entry{}
		entries[key] = e
	}
	e.User = canonical
	e.LastActive = r.clock.Now()
	e.LastMessage = text
	e.LastMessageID = messageID
}

// recent returns entries active within window. Callers hold the lock.
func (r *Registry) recent(channelID int64, window time.Duration) []*Entry {
	now := r.clock.Now()
	var out []*Entry
	for _, e := range r.channels[channelID] {
		if now.Sub(e.LastActive) < window {
			out = append(out, e)
		}
	}
	return out
}

// List returns the sorted names of users active within window, by
// display name when displayName is set.
func (r *Registry) List(channelID int64, window time.Duration, displayName bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, e := range r.recent(channelID, window) {
		if displayName {
			names = append(names, e.User.Name())
		} else {
			names = append(names, e.User.Username)
		}
	}
	slices.Sort(names)
	return names
}

// RandomMessage returns the last message of a uniformly chosen user
// active within window.
func (r *Registry) RandomMessage(channelID int64, window time.Duration) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.recent(channelID, window)
	if len(entries) == 0 {
		return "", false
	}
	return entries[rand.IntN(len(entries))].LastMessage, true
}

// Entry returns the presence record of u in the channel.
func (r *Registry) Entry(channelID int64, u user.User) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.channels[channelID][keyOf(u)]
	if !ok {
		for _, candidate := range r.channels[channelID] {
			if candidate.User.Equal(u) {
				return *candidate, true
			}
		}
		return Entry{}, false
	}
	return *e, true
}

// ClearChat handles a ban or timeout. A zero target clears the whole
// channel. An unknown channel id resets the registry.
func (r *Registry) ClearChat(channelID int64, target user.User) {
	if channelID == 0 {
		r.logger.Warn("Clear chat for unresolved channel, resetting all chatters", "target", target.Username)
		r.Reset()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if target.Username == "" && !target.HasID() {
		delete(r.channels, channelID)
		return
	}
	entries := r.channels[channelID]
	for key, e := range entries {
		if e.User.Equal(target) {
			delete(entries, key)
		}
	}
}

// ClearMessage handles a deleted message. It removes the entry whose
// last message has messageID, or the entry of login when the id is
// unknown. An unknown channel id resets the registry.
func (r *Registry) ClearMessage(channelID int64, messageID, login string) {
	if channelID == 0 {
		r.logger.Warn("Clear message for unresolved channel, resetting all chatters", "message_id", messageID)
		r.Reset()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.channels[channelID]
	for key, e := range entries {
		if messageID != "" && e.LastMessageID == messageID {
			delete(entries, key)
			return
		}
	}
	if login == "" {
		return
	}
	for key, e := range entries {
		if e.User.Username == login {
			delete(entries, key)
		}
	}
}

// Reset drops every channel's presence. The identity index survives.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.channels = make(map[int64]map[entryKey]*Entry)
	r.mu.Unlock()
}

// Lookup resolves "@name" or "name" to a known identity.
func (r *Registry) Lookup(name string) (user.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Lookup(name)
}

// LookupID resolves a numeric id to a known identity.
func (r *Registry) LookupID(id int64) (user.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.LookupID(id)
}

// Stats reports the number of tracked chatters per channel and the size
// of the identity index.
func (r *Registry) Stats() (perChannel map[int64]int, identities int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perChannel = make(map[int64]int, len(r.channels))
	for id, entries := range r.channels {
		perChannel[id] = len(entries)
	}
	return perChannel, r.index.Len()
}
