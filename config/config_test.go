package config_test

import (
	"testing"

	. "github.com/lonesomestranger/3x-ui-manager/config"
)

func validConfig() *Config {
	c := &Config{}
	c.Panel.URL = "http://panel.local:2053"
	c.Panel.Username = "admin"
	c.Panel.Password = "secret"
	c.Profile.InboundID = 3
	c.Profile.PublicHost = "example.com"
	c.Bot.Token = "123:abc"
	c.Bot.AdminIDs = []int64{42}
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := validConfig()
	if err := c.ApplyDefaults(); err != nil {
		t.Fatal(err)
	}

	if c.Log.Level != "info" {
		t.Errorf("log level %q, want info", c.Log.Level)
	}
	if c.Panel.Timeout != 10 {
		t.Errorf("panel timeout %d, want 10", c.Panel.Timeout)
	}
	if c.Profile.RestartWait != 3 {
		t.Errorf("restart wait %d, want 3", c.Profile.RestartWait)
	}
	if c.Panel.URL != "http://panel.local:2053" {
		t.Error("defaults overwrote configured values")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatal(err)
	}

	broken := []func(*Config){
		func(c *Config) { c.Panel.URL = "" },
		func(c *Config) { c.Panel.Password = "" },
		func(c *Config) { c.Profile.InboundID = 0 },
		func(c *Config) { c.Profile.PublicHost = "" },
		func(c *Config) { c.Bot.Token = "" },
		func(c *Config) { c.Bot.AdminIDs = nil },
	}
	for i, mutate := range broken {
		c := validConfig()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: invalid config accepted", i)
		}
	}
}
