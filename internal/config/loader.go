package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CHANBOT_TELEGRAM_TOKEN.
const EnvPrefix = "CHANBOT"

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. CHANBOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow a missing config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	if cfg.Scheduler.Tasks == nil {
		cfg.Scheduler.Tasks = make(map[string]TaskConfig)
	}
	for name, task := range DefaultTasks {
		if _, ok := cfg.Scheduler.Tasks[name]; !ok {
			cfg.Scheduler.Tasks[name] = task
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that environment variables can
// override keys missing from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("bot.ignore_self", DefaultBotIgnoreSelf)
	v.SetDefault("bot.data_dir", DefaultBotDataDir)
	v.SetDefault("bot.chatters_window", DefaultBotChattersWindow)
	v.SetDefault("bot.event_timeout", DefaultBotEventTimeout)
	v.SetDefault("bot.buffer", DefaultBotBuffer)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.moderators", []int64{})
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)
}
