package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chanbot/internal/command"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	p, err := command.Compile("!song  add <command> <url> <cooldown..>")
	require.NoError(t, err)
	assert.Equal(t, "!song add <command> <url> <cooldown..>", p.Template())
	assert.Equal(t, []command.Token{
		{Kind: command.KindCommand, Text: "!song"},
		{Kind: command.KindSubcommand, Text: "add"},
		{Kind: command.KindArgument, Text: "command"},
		{Kind: command.KindArgument, Text: "url"},
		{Kind: command.KindArgument, Text: "cooldown", TakeAll: true},
	}, p.Tokens())
	assert.Equal(t, []string{"command", "url", "cooldown"}, p.Arguments())

	p, err = command.Compile("!echo [word] [rest..]")
	require.NoError(t, err)
	assert.Equal(t, []command.Token{
		{Kind: command.KindCommand, Text: "!echo"},
		{Kind: command.KindArgument, Text: "word", Optional: true},
		{Kind: command.KindArgument, Text: "rest", Optional: true, TakeAll: true},
	}, p.Tokens())

	p, err = command.Compile("!say <text..> please now")
	require.NoError(t, err)
	assert.Len(t, p.Tokens(), 4)

	p, err = command.Compile("!ping ..")
	require.NoError(t, err)
	assert.Equal(t, command.KindTakeAll, p.Tokens()[1].Kind)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
	}{
		{"empty", "   "},
		{"two take-alls", "!x <a..> <b..>"},
		{"marker and take-all", "!x .. <b..>"},
		{"argument after take-all", "!x <a..> <b>"},
		{"optional argument after take-all", "!x [a..] [b]"},
		{"required after optional", "!x [a] <b>"},
		{"literal after optional", "!x [a] sub"},
		{"required take-all after optional", "!x [a] <b..>"},
		{"duplicate name", "!x <a> <a>"},
		{"empty name", "!x <>"},
		{"empty take-all name", "!x [..]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := command.Compile(tt.template)
			assert.ErrorIs(t, err, command.ErrInvalidPattern)
		})
	}

	assert.Panics(t, func() { command.MustCompile("!x <a> <a>") })
}
