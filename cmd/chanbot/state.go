package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/chanbot/internal/response"
	"github.com/edgard/chanbot/internal/state"
)

// Song is a chat command that links to a song.
type Song struct {
	URL      string        `yaml:"url"`
	Cooldown time.Duration `yaml:"cooldown"`
	AddedBy  string        `yaml:"added_by"`
}

// SongList is a channel's song commands keyed by command, e.g. "!walk".
type SongList struct {
	Songs map[string]Song `yaml:"songs"`
}

// Names returns the song commands in sorted order.
func (l SongList) Names() []string {
	names := make([]string, 0, len(l.Songs))
	for name := range l.Songs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Response lists the songs.
func (l SongList) Response() response.Response {
	if len(l.Songs) == 0 {
		return response.New("No songs yet")
	}
	return response.New("Songs: " + strings.Join(l.Names(), ", "))
}

// Counter counts !count invocations per channel.
type Counter struct {
	N int `yaml:"n"`
}

// Blocklist holds lowercase words that get messages deleted.
type Blocklist struct {
	Words []string `yaml:"words"`
}

// Blocks reports whether text contains a blocked word.
func (b Blocklist) Blocks(text string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if slices.Contains(b.Words, w) {
			return true
		}
	}
	return false
}

// Settings is global state shared with handlers.
type Settings struct {
	ChattersWindow time.Duration
}

func songsType(log *slog.Logger) state.PersistedType[SongList] {
	return state.PersistedType[SongList]{
		Filename: "songs",
		Init: func(string) SongList {
			return SongList{Songs: make(map[string]Song)}
		},
		OnWriteError: writeErrorHook(log, "songs"),
	}
}

func counterType(log *slog.Logger) state.PersistedType[Counter] {
	return state.PersistedType[Counter]{
		Filename:     "counter",
		Init:         func(string) Counter { return Counter{} },
		OnWriteError: writeErrorHook(log, "counter"),
	}
}

func blocklistType(log *slog.Logger) state.PersistedType[Blocklist] {
	return state.PersistedType[Blocklist]{
		Filename:     "blocklist",
		Init:         func(string) Blocklist { return Blocklist{} },
		OnWriteError: writeErrorHook(log, "blocklist"),
	}
}

func writeErrorHook(log *slog.Logger, name string) func(string, error) {
	return func(channel string, err error) {
		log.Error("Failed to persist channel value", "value", name, "channel", channel, "error", err)
	}
}

// cooldownTracker rate-limits song commands within one channel.
type cooldownTracker struct {
	mu    sync.Mutex
	last  map[string]time.Time
	clock clockwork.Clock
}

func newCooldownTracker(clock clockwork.Clock) *cooldownTracker {
	return &cooldownTracker{last: make(map[string]time.Time), clock: clock}
}

// Allow reports whether key is off cooldown and, if so, starts a new one.
func (c *cooldownTracker) Allow(key string, cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if last, ok := c.last[key]; ok && now.Sub(last) < cooldown {
		return false
	}
	c.last[key] = now
	return true
}

// channelTemplate registers the per-channel values.
func channelTemplate(log *slog.Logger, clock clockwork.Clock) state.Template {
	return func(b *state.Builder) error {
		if err := state.Register(b, newCooldownTracker(clock)); err != nil {
			return fmt.Errorf("register cooldowns: %w", err)
		}
		if err := state.RegisterPersisted(b, songsType(log)); err != nil {
			return fmt.Errorf("register songs: %w", err)
		}
		if err := state.RegisterPersisted(b, counterType(log)); err != nil {
			return fmt.Errorf("register counter: %w", err)
		}
		if err := state.RegisterPersisted(b, blocklistType(log)); err != nil {
			return fmt.Errorf("register blocklist: %w", err)
		}
		return nil
	}
}
