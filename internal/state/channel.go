package state

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Template populates the state of a channel the first time it is used.
type Template func(b *Builder) error

// Builder is handed to a Template to register a channel's values.
type Builder struct {
	channel string
	dataDir string
	logger  *slog.Logger
	values  *TypeMap
}

// Channel returns the channel being initialized.
func (b *Builder) Channel() string {
	return b.channel
}

// DataDir returns the root directory for persisted values.
func (b *Builder) DataDir() string {
	return b.dataDir
}

// Logger returns a logger scoped to the channel.
func (b *Builder) Logger() *slog.Logger {
	return b.logger
}

// Register adds v to the channel's map.
func Register[T any](b *Builder, v T) error {
	return Set(b.values, v)
}

// ChannelContainer maps channel names to their frozen state maps.
// Channels are never evicted.
type ChannelContainer struct {
	mu       sync.RWMutex
	channels map[string]*TypeMap
	template Template
	dataDir  string
	logger   *slog.Logger
}

// NewChannelContainer returns a container that runs template once per
// channel. A nil template yields empty maps.
func NewChannelContainer(dataDir string, template Template, logger *slog.Logger) *ChannelContainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelContainer{
		channels: make(map[string]*TypeMap),
		template: template,
		dataDir:  dataDir,
		logger:   logger.With("component", "channel_state"),
	}
}

// Get returns the channel's map, initializing it on first use. The
// template runs under the write lock, so concurrent first calls for the
// same channel run it exactly once.
func (c *ChannelContainer) Get(channel string) (*TypeMap, error) {
	c.mu.RLock()
	m, ok := c.channels[channel]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.channels[channel]; ok {
		return m, nil
	}

	m = NewTypeMap()
	if c.template != nil {
		b := &Builder{
			channel: channel,
			dataDir: c.dataDir,
			logger:  c.logger.With("channel", channel),
			values:  m,
		}
		if err := c.template(b); err != nil {
			c.logger.Error("Channel state initialization failed", "channel", channel, "error", err)
			return nil, fmt.Errorf("initialize channel %q: %w", channel, err)
		}
	}
	m.Freeze()
	c.channels[channel] = m

	c.logger.Debug("Initialized channel state", "channel", channel, "types", m.Len())
	return m, nil
}

// Channels lists the initialized channels in sorted order.
func (c *ChannelContainer) Channels() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	c.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Cache remembers channel maps for the duration of one request so that
// repeated lookups skip the container lock. It is not safe for
// concurrent use.
type Cache struct {
	container *ChannelContainer
	local     map[string]*TypeMap
}

// NewCache returns an empty request-scoped cache over c.
func NewCache(c *ChannelContainer) *Cache {
	return &Cache{container: c}
}

// Get returns the channel's map through the cache.
func (c *Cache) Get(channel string) (*TypeMap, error) {
	if m, ok := c.local[channel]; ok {
		return m, nil
	}
	m, err := c.container.Get(channel)
	if err != nil {
		return nil, err
	}
	if c.local == nil {
		c.local = make(map[string]*TypeMap, 1)
	}
	c.local[channel] = m
	return m, nil
}

// Container returns the underlying container.
func (c *Cache) Container() *ChannelContainer {
	return c.container
}
