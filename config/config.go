// Package config defines the application configuration and its defaults.
package config

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/lonesomestranger/3x-ui-manager/api"
	"github.com/lonesomestranger/3x-ui-manager/service/profile"
	"github.com/lonesomestranger/3x-ui-manager/service/tgbot"
)

type Config struct {
	Log     LogConfig      `mapstructure:"Log"`
	Panel   api.Config     `mapstructure:"Panel"`
	Profile profile.Config `mapstructure:"Profile"`
	Bot     tgbot.Config   `mapstructure:"Bot"`
}

type LogConfig struct {
	Level string `mapstructure:"Level"`
}

// Default returns the built-in settings used to fill fields the config file
// leaves empty.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Panel: api.Config{
			Timeout: 10,
		},
		Profile: profile.Config{
			RestartWait: 3,
		},
	}
}

// ApplyDefaults merges the built-in defaults into empty fields.
func (c *Config) ApplyDefaults() error {
	return mergo.Merge(c, Default())
}

// Validate rejects configs that cannot produce a working client.
func (c *Config) Validate() error {
	if c.Panel.URL == "" {
		return fmt.Errorf("Panel.Url is required")
	}
	if c.Panel.Username == "" || c.Panel.Password == "" {
		return fmt.Errorf("Panel.Username and Panel.Password are required")
	}
	if c.Profile.InboundID <= 0 {
		return fmt.Errorf("Profile.InboundId must be a positive inbound id")
	}
	if c.Profile.PublicHost == "" {
		return fmt.Errorf("Profile.PublicHost is required")
	}
	if c.Bot.Token == "" {
		return fmt.Errorf("Bot.Token is required")
	}
	if len(c.Bot.AdminIDs) == 0 {
		return fmt.Errorf("Bot.AdminIds must list at least one Telegram user id")
	}
	return nil
}
