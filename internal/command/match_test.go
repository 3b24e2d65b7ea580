package command_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chanbot/internal/command"
	"github.com/edgard/chanbot/internal/user"
)

func TestMatchSongAdd(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("!song add <command> <url> <cooldown..>")
	args, err := p.Match("!song add !walk https://example.com/ 20m", nil)
	require.NoError(t, err)

	assert.Equal(t, "!walk", args.Raw("command"))
	assert.Equal(t, "https://example.com/", args.Raw("url"))
	assert.Equal(t, "20m", args.Raw("cooldown"))

	cooldown, err := command.Get[string](args, "cooldown")
	require.NoError(t, err)
	assert.Equal(t, "20m", cooldown)
}

func TestMatchTypedParsers(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("!song add <command> <url> <cooldown..>")
	parsers := map[string]command.Parser{
		"url":      command.URL,
		"cooldown": command.Duration,
	}

	args, err := p.Match("!song add !walk https://example.com/ 20m", parsers)
	require.NoError(t, err)
	u, err := command.Get[*url.URL](args, "url")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
	d, err := command.Get[time.Duration](args, "cooldown")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, d)

	_, err = command.Get[int](args, "cooldown")
	assert.ErrorIs(t, err, command.ErrArgumentParsing)

	_, err = p.Match("!song add !walk not-a-url 20m", parsers)
	var cmdErr *command.Error
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, command.NamedArgumentParsing, cmdErr.Kind)
	assert.Equal(t, "url", cmdErr.Name)
}

func TestMatchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		input    string
		want     error
	}{
		{"left over", "!song rm <command>", "!song rm !walk extra", command.ErrArgumentsLeftOver},
		{"other command", "!song rm <command>", "!quote", command.ErrCommandMismatch},
		{"command prefix only", "!song rm <command>", "!songs rm x", command.ErrCommandMismatch},
		{"other subcommand", "!song rm <command>", "!song add !walk", command.ErrSubcommandMismatch},
		{"missing subcommand", "!song rm <command>", "!song", command.ErrSubcommandMismatch},
		{"missing argument", "!song rm <command>", "!song rm", command.ErrArgumentMissing},
		{"missing take-all", "!say <text..>", "!say   ", command.ErrArgumentMissing},
		{"case sensitive", "!song rm <command>", "!Song rm x", command.ErrCommandMismatch},
		{"tail literal mismatch", "!say <text..> please", "!say hi thanks", command.ErrSubcommandMismatch},
		{"literal only left over", "!ping", "!ping pong", command.ErrArgumentsLeftOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := command.MustCompile(tt.template).Match(tt.input, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMatchOptional(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("!chatters [window]")
	parsers := map[string]command.Parser{"window": command.Duration}

	args, err := p.Match("!chatters", parsers)
	require.NoError(t, err)
	assert.False(t, args.Has("window"))

	args, err = p.Match("!chatters 5m", parsers)
	require.NoError(t, err)
	w, ok := command.Lookup[time.Duration](args, "window")
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, w)

	_, err = p.Match("!chatters soon", parsers)
	assert.ErrorIs(t, err, command.ErrNamedArgumentParsing)

	lenient := map[string]command.Parser{"window": command.Optional(command.Duration)}
	args, err = p.Match("!chatters soon", lenient)
	require.NoError(t, err)
	assert.False(t, args.Has("window"))
}

func TestMatchTakeAllWithTail(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("!say <text..> please now")
	args, err := p.Match("!say  hello   big world please now", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello   big world", args.Raw("text"))

	_, err = p.Match("!say please now", nil)
	assert.ErrorIs(t, err, command.ErrArgumentMissing)
}

func TestMatchOptionalTakeAll(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("<command> [rest..]")
	args, err := p.Match("!walk", nil)
	require.NoError(t, err)
	assert.Equal(t, "!walk", args.Raw("command"))
	assert.False(t, args.Has("rest"))

	args, err = p.Match("!walk to the park", nil)
	require.NoError(t, err)
	assert.Equal(t, "to the park", args.Raw("rest"))
}

func TestMatchMarker(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("!ping ..")
	args, err := p.Match("!ping whatever you say", nil)
	require.NoError(t, err)
	assert.Zero(t, args.Len())

	_, err = p.Match("!ping", nil)
	require.NoError(t, err)
}

func TestMatchUserArgument(t *testing.T) {
	t.Parallel()

	p := command.MustCompile("!whois <user>")
	args, err := p.Match("!whois @Bob", map[string]command.Parser{"user": command.UserArg})
	require.NoError(t, err)
	u, err := command.Get[user.Argument](args, "user")
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.Name())
}

func TestParsers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		parser  command.Parser
		input   string
		want    any
		wantErr bool
	}{
		{"int", command.Int, "42", 42, false},
		{"int invalid", command.Int, "4x", nil, true},
		{"int64", command.Int64, "-7", int64(-7), false},
		{"uint", command.Uint, "3", uint(3), false},
		{"float", command.Float, "1.5", 1.5, false},
		{"bool", command.Bool, "true", true, false},
		{"bool invalid", command.Bool, "maybe", nil, true},
		{"duration", command.Duration, "1h30m", 90 * time.Minute, false},
		{"string", command.String, "raw", "raw", false},
		{"url relative", command.URL, "/path", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.parser(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
