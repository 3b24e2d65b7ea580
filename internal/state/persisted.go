package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"
)

const (
	persistedExt = ".yaml"
	tempSuffix   = ".temp"
)

// PersistedType describes a value stored in one file per channel.
type PersistedType[T any] struct {
	// Filename is the file stem, e.g. "songs" for "<data>/<channel>/songs.yaml".
	Filename string
	// Init returns the value used when nothing is stored yet.
	Init func(channel string) T
	// OnReadError returns the value used when the file cannot be read or
	// decoded. Defaults to Init.
	OnReadError func(channel string, err error) T
	// OnWriteError is told about failed writes. The in-memory value is
	// kept regardless.
	OnWriteError func(channel string, err error)
}

func (t PersistedType[T]) validate() error {
	if strings.TrimSpace(t.Filename) == "" {
		return errors.New("persisted type needs a filename")
	}
	if strings.ContainsAny(t.Filename, `/\`) {
		return fmt.Errorf("persisted filename %q must not contain path separators", t.Filename)
	}
	if t.Init == nil {
		return fmt.Errorf("persisted type %q needs an Init func", t.Filename)
	}
	return nil
}

// Persisted is one channel's durable value of type T. Reads are lock-free
// once loaded; loading and updates hold a single permit so that
// read-modify-write sequences never interleave.
type Persisted[T any] struct {
	channel string
	path    string
	typ     PersistedType[T]
	value   atomic.Pointer[T]
	permit  *semaphore.Weighted
	logger  *slog.Logger
}

// NewPersisted returns an unloaded value stored under dataDir/channel.
func NewPersisted[T any](dataDir, channel string, typ PersistedType[T], logger *slog.Logger) (*Persisted[T], error) {
	if err := typ.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persisted[T]{
		channel: channel,
		path:    filepath.Join(dataDir, channelDir(channel), typ.Filename+persistedExt),
		typ:     typ,
		permit:  semaphore.NewWeighted(1),
		logger:  logger.With("component", "persisted", "channel", channel, "file", typ.Filename),
	}, nil
}

// RegisterPersisted adds a lazily loaded Persisted[T] to the channel.
// Commands reach it as *Persisted[T].
func RegisterPersisted[T any](b *Builder, typ PersistedType[T]) error {
	p, err := NewPersisted(b.dataDir, b.channel, typ, b.logger)
	if err != nil {
		return err
	}
	return Register(b, p)
}

// RegisterPersistedValue adds a Persisted[T] that starts out holding v
// instead of reading the file.
func RegisterPersistedValue[T any](b *Builder, typ PersistedType[T], v T) error {
	p, err := NewPersisted(b.dataDir, b.channel, typ, b.logger)
	if err != nil {
		return err
	}
	p.value.Store(&v)
	return Register(b, p)
}

// channelDir keeps channel names from escaping the data directory.
func channelDir(channel string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, channel)
	if name == "" || strings.Trim(name, ".") == "" {
		return "_" + name
	}
	return name
}

// Path returns the canonical file path.
func (p *Persisted[T]) Path() string {
	return p.path
}

// Channel returns the owning channel.
func (p *Persisted[T]) Channel() string {
	return p.channel
}

// Loaded reports whether a value is in memory.
func (p *Persisted[T]) Loaded() bool {
	return p.value.Load() != nil
}

// Read returns the current value, loading it on first use. The returned
// value must be treated as read-only.
func (p *Persisted[T]) Read(ctx context.Context) (*T, error) {
	if v := p.value.Load(); v != nil {
		return v, nil
	}

	if err := p.permit.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.permit.Release(1)

	return p.current(), nil
}

// Update replaces the value with f's result and writes it to disk.
func (p *Persisted[T]) Update(ctx context.Context, f func(T) T) (old, updated *T, err error) {
	return p.MaybeUpdate(ctx, func(v T) (T, bool) {
		return f(v), true
	})
}

// MaybeUpdate is Update where f may report no change, in which case
// nothing is written and old == updated. f gets a shallow copy of the
// current value and must copy any slice or map it changes.
func (p *Persisted[T]) MaybeUpdate(ctx context.Context, f func(T) (T, bool)) (old, updated *T, err error) {
	if err := p.permit.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	defer p.permit.Release(1)

	old = p.current()
	next, changed := f(*old)
	if !changed {
		return old, old, nil
	}

	if err := p.write(next); err != nil {
		p.logger.ErrorContext(ctx, "Failed to write persisted value", "path", p.path, "error", err)
		if p.typ.OnWriteError != nil {
			p.typ.OnWriteError(p.channel, err)
		}
	}
	p.value.Store(&next)
	return old, &next, nil
}

// current returns the loaded value, loading it first if needed. Callers
// hold the permit.
func (p *Persisted[T]) current() *T {
	if v := p.value.Load(); v != nil {
		return v
	}
	v := p.load()
	p.value.Store(v)
	return v
}

func (p *Persisted[T]) load() *T {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Debug("No persisted value on disk, initializing", "path", p.path)
		v := p.typ.Init(p.channel)
		return &v
	}
	if err != nil {
		return p.readError(fmt.Errorf("read %s: %w", p.path, err))
	}

	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return p.readError(fmt.Errorf("decode %s: %w", p.path, err))
	}
	return &v
}

func (p *Persisted[T]) readError(err error) *T {
	p.logger.Error("Failed to read persisted value", "error", err)
	var v T
	if p.typ.OnReadError != nil {
		v = p.typ.OnReadError(p.channel, err)
	} else {
		v = p.typ.Init(p.channel)
	}
	return &v
}

// write stores v in a temp file next to the canonical path, syncs it and
// renames it into place.
func (p *Persisted[T]) write(v T) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", filepath.Dir(p.path), err)
	}

	tmpPath := p.path + tempSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", p.path, err)
	}
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", p.path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", p.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", p.path, err)
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", p.path, err)
	}
	committed = true
	return nil
}
