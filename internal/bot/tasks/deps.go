// Package tasks implements the bot's scheduled maintenance tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/chanbot/internal/chatters"
	"github.com/edgard/chanbot/internal/config"
	"github.com/edgard/chanbot/internal/state"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Chatters *chatters.Registry
	Channels *state.ChannelContainer
	Config   *config.Config
}
