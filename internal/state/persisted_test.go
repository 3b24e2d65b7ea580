package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chanbot/internal/state"
)

type tally struct {
	Count int      `yaml:"count"`
	Names []string `yaml:"names"`
}

var tallyType = state.PersistedType[tally]{
	Filename: "tally",
	Init: func(string) tally {
		return tally{Count: 100}
	},
}

func TestPersistedRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	p, err := state.NewPersisted(dir, "#room", tallyType, nil)
	require.NoError(t, err)
	assert.False(t, p.Loaded())

	v, err := p.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, v.Count)
	_, statErr := os.Stat(p.Path())
	assert.True(t, os.IsNotExist(statErr), "reading must not create the file")

	old, updated, err := p.Update(ctx, func(v tally) tally {
		v.Count++
		v.Names = append(append([]string(nil), v.Names...), "ann")
		return v
	})
	require.NoError(t, err)
	assert.Equal(t, 100, old.Count)
	assert.Equal(t, 101, updated.Count)
	assert.Equal(t, filepath.Join(dir, "#room", "tally.yaml"), p.Path())
	_, statErr = os.Stat(p.Path() + ".temp")
	assert.True(t, os.IsNotExist(statErr))

	// A new value over the same directory behaves like a restart.
	restarted, err := state.NewPersisted(dir, "#room", tallyType, nil)
	require.NoError(t, err)
	v, err = restarted.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, tally{Count: 101, Names: []string{"ann"}}, *v)
}

func TestPersistedMaybeUpdateNoChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := state.NewPersisted(t.TempDir(), "c", tallyType, nil)
	require.NoError(t, err)

	old, updated, err := p.MaybeUpdate(ctx, func(v tally) (tally, bool) {
		return v, false
	})
	require.NoError(t, err)
	assert.Same(t, old, updated)
	_, statErr := os.Stat(p.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestPersistedReadErrorHook(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "c"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c", "tally.yaml"), []byte("count: [not a number"), 0o644))

	var hookErr error
	typ := tallyType
	typ.OnReadError = func(_ string, err error) tally {
		hookErr = err
		return tally{Count: -1}
	}

	p, err := state.NewPersisted(dir, "c", typ, nil)
	require.NoError(t, err)
	v, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, v.Count)
	assert.Error(t, hookErr)
}

var errEncode = errors.New("refusing to encode")

// fragile fails to encode once Broken is set.
type fragile struct {
	Value  int
	Broken bool
}

func (f fragile) MarshalYAML() (any, error) {
	if f.Broken {
		return nil, errEncode
	}
	return map[string]int{"value": f.Value}, nil
}

func (f *fragile) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]int
	if err := unmarshal(&raw); err != nil {
		return err
	}
	f.Value = raw["value"]
	return nil
}

func TestPersistedWriteFailureKeepsFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	var writeErr error
	typ := state.PersistedType[fragile]{
		Filename:     "fragile",
		Init:         func(string) fragile { return fragile{} },
		OnWriteError: func(_ string, err error) { writeErr = err },
	}

	p, err := state.NewPersisted(dir, "c", typ, nil)
	require.NoError(t, err)
	_, _, err = p.Update(ctx, func(fragile) fragile { return fragile{Value: 7} })
	require.NoError(t, err)
	require.NoError(t, writeErr)
	before, err := os.ReadFile(p.Path())
	require.NoError(t, err)

	_, updated, err := p.Update(ctx, func(fragile) fragile { return fragile{Value: 8, Broken: true} })
	require.NoError(t, err)
	require.ErrorIs(t, writeErr, errEncode)
	assert.Equal(t, 8, updated.Value, "in-memory value is kept after a failed write")

	after, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	_, statErr := os.Stat(p.Path() + ".temp")
	assert.True(t, os.IsNotExist(statErr))

	restarted, err := state.NewPersisted(dir, "c", typ, nil)
	require.NoError(t, err)
	v, err := restarted.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Value)
}

func TestPersistedConcurrentUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := state.NewPersisted(t.TempDir(), "c", tallyType, nil)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := p.Update(ctx, func(v tally) tally {
				v.Count++
				return v
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := p.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100+workers, v.Count)
}

func TestRegisterPersisted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	container := state.NewChannelContainer(t.TempDir(), func(b *state.Builder) error {
		if err := state.RegisterPersisted(b, tallyType); err != nil {
			return err
		}
		return state.RegisterPersistedValue(b, state.PersistedType[int]{
			Filename: "seed",
			Init:     func(string) int { return 0 },
		}, 5)
	}, nil)

	m, err := container.Get("chan")
	require.NoError(t, err)

	p, ok := state.Get[*state.Persisted[tally]](m)
	require.True(t, ok)
	v, err := p.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, v.Count)

	seed, ok := state.Get[*state.Persisted[int]](m)
	require.True(t, ok)
	assert.True(t, seed.Loaded())
	n, err := seed.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, *n)
}

func TestPersistedTypeValidation(t *testing.T) {
	t.Parallel()

	_, err := state.NewPersisted(t.TempDir(), "c", state.PersistedType[int]{Filename: "x"}, nil)
	assert.Error(t, err)
	_, err = state.NewPersisted(t.TempDir(), "c", state.PersistedType[int]{Filename: "../x", Init: func(string) int { return 0 }}, nil)
	assert.Error(t, err)
}
