// Package config loads the bot configuration from a YAML file, CHANBOT_*
// environment variables and defaults, and validates it.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration wraps every loading and validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete bot configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Bot       BotConfig       `mapstructure:"bot"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig selects the log level and format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// BotConfig controls dispatch.
type BotConfig struct {
	IgnoreSelf     bool          `mapstructure:"ignore_self"`
	DataDir        string        `mapstructure:"data_dir"        validate:"required"`
	ChattersWindow time.Duration `mapstructure:"chatters_window" validate:"min=1s"`
	EventTimeout   time.Duration `mapstructure:"event_timeout"   validate:"min=1s,max=10m"`
	Buffer         int           `mapstructure:"buffer"          validate:"min=1,max=10000"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	Moderators     []int64       `mapstructure:"moderators"      validate:"dive,gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task on a cron schedule with a seconds field.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// IsModerator reports whether a Telegram user id is a configured moderator.
func (c *Config) IsModerator(id int64) bool {
	return slices.Contains(c.Telegram.Moderators, id)
}
