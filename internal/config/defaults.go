package config

import "time"

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Bot defaults
	DefaultBotIgnoreSelf     = true
	DefaultBotDataDir        = "data"
	DefaultBotChattersWindow = 10 * time.Minute
	DefaultBotEventTimeout   = 30 * time.Second // Bound on handling one event
	DefaultBotBuffer         = 100              // Inbound/outbound queue size

	// Telegram defaults
	DefaultTelegramRequestTimeout = 15 * time.Second
)

// DefaultTasks are the scheduled tasks known to the bot, disabled until
// configured.
var DefaultTasks = map[string]TaskConfig{
	"chatters_reset": {Enabled: false, Schedule: "0 0 4 * * *"},
	"channel_stats":  {Enabled: false, Schedule: "0 */15 * * * *"},
}
