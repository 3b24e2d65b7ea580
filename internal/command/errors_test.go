package command_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgard/chanbot/internal/command"
)

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	parseErr := errors.New("bad number")
	err := fmt.Errorf("dispatch: %w", &command.Error{Kind: command.NamedArgumentParsing, Name: "n", Err: parseErr})

	assert.ErrorIs(t, err, command.ErrNamedArgumentParsing)
	assert.ErrorIs(t, err, parseErr)
	assert.NotErrorIs(t, err, command.ErrArgumentMissing)
	assert.Equal(t, command.NamedArgumentParsing, command.KindOf(err))
	assert.True(t, command.IsArgumentError(err))
	assert.False(t, command.IsArgumentError(command.ErrSubcommandMismatch))
	assert.Equal(t, command.Kind(0), command.KindOf(parseErr))
	assert.Equal(t, `named argument parsing "n": bad number`, errors.Unwrap(err).Error())
}
