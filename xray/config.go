// Package xray models the routing daemon's JSON configuration as stored by
// the 3x-ui panel. Sections this manager does not own are kept as raw JSON so
// the blob can be written back in its entirety without losing panel-managed
// fields.
package xray

import (
	json "github.com/goccy/go-json"
)

// Config is the full Xray configuration blob. The panel owns it; this process
// only ever holds a transient copy between fetch and write-back.
type Config struct {
	Log              json.RawMessage   `json:"log,omitempty"`
	API              json.RawMessage   `json:"api,omitempty"`
	DNS              json.RawMessage   `json:"dns,omitempty"`
	Inbounds         json.RawMessage   `json:"inbounds,omitempty"`
	Outbounds        []json.RawMessage `json:"outbounds"`
	Routing          *RoutingConfig    `json:"routing,omitempty"`
	Transport        json.RawMessage   `json:"transport,omitempty"`
	Policy           json.RawMessage   `json:"policy,omitempty"`
	Stats            json.RawMessage   `json:"stats,omitempty"`
	Reverse          json.RawMessage   `json:"reverse,omitempty"`
	FakeDNS          json.RawMessage   `json:"fakedns,omitempty"`
	Observatory      json.RawMessage   `json:"observatory,omitempty"`
	BurstObservatory json.RawMessage   `json:"burstObservatory,omitempty"`
	Metrics          json.RawMessage   `json:"metrics,omitempty"`
}

// RoutingConfig keeps individual rules raw. Rules created by the panel carry
// fields this manager knows nothing about, and they must survive a round trip.
type RoutingConfig struct {
	DomainStrategy json.RawMessage   `json:"domainStrategy,omitempty"`
	DomainMatcher  json.RawMessage   `json:"domainMatcher,omitempty"`
	Rules          []json.RawMessage `json:"rules"`
	Balancers      json.RawMessage   `json:"balancers,omitempty"`
}

// Outbound is a socks egress route managed by this process.
type Outbound struct {
	Tag      string           `json:"tag"`
	Protocol string           `json:"protocol"`
	Settings OutboundSettings `json:"settings"`
}

type OutboundSettings struct {
	Servers []SocksServer `json:"servers"`
}

type SocksServer struct {
	Address string         `json:"address"`
	Port    int            `json:"port"`
	Users   []SocksAccount `json:"users"`
}

type SocksAccount struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// RoutingRule binds exactly one client identity to exactly one outbound.
type RoutingRule struct {
	Type        string   `json:"type"`
	InboundTag  []string `json:"inboundTag"`
	OutboundTag string   `json:"outboundTag"`
	User        []string `json:"user"`
}

// NewSocksOutbound builds an outbound entry for a remote socks proxy.
func NewSocksOutbound(tag, address string, port int, user, pass string) Outbound {
	return Outbound{
		Tag:      tag,
		Protocol: "socks",
		Settings: OutboundSettings{
			Servers: []SocksServer{{
				Address: address,
				Port:    port,
				Users:   []SocksAccount{{User: user, Pass: pass}},
			}},
		},
	}
}

// AddOutbound appends the outbound to the config.
func (c *Config) AddOutbound(outbound Outbound) error {
	raw, err := json.Marshal(outbound)
	if err != nil {
		return err
	}
	c.Outbounds = append(c.Outbounds, raw)
	return nil
}

// RemoveOutbound drops every outbound carrying the given tag and reports
// whether anything was removed.
func (c *Config) RemoveOutbound(tag string) bool {
	kept := c.Outbounds[:0]
	removed := false
	for _, raw := range c.Outbounds {
		if outboundTag(raw) == tag {
			removed = true
			continue
		}
		kept = append(kept, raw)
	}
	c.Outbounds = kept
	return removed
}

// InsertRule places a new routing rule ahead of the last two existing rules
// when three or more rules are present, otherwise appends. Trailing catch-all
// rules stay at the tail of the list.
func (c *Config) InsertRule(rule RoutingRule) error {
	raw, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	if c.Routing == nil {
		c.Routing = &RoutingConfig{}
	}

	rules := c.Routing.Rules
	if len(rules) > 2 {
		at := len(rules) - 2
		rules = append(rules, nil)
		copy(rules[at+1:], rules[at:])
		rules[at] = raw
	} else {
		rules = append(rules, raw)
	}
	c.Routing.Rules = rules
	return nil
}

// RemoveUserRules drops every rule whose first user entry equals email and
// returns the number of removed rules.
func (c *Config) RemoveUserRules(email string) int {
	if c.Routing == nil {
		return 0
	}
	kept := c.Routing.Rules[:0]
	removed := 0
	for _, raw := range c.Routing.Rules {
		if ruleUser(raw) == email {
			removed++
			continue
		}
		kept = append(kept, raw)
	}
	c.Routing.Rules = kept
	return removed
}

// UserRules maps the first user entry of each rule to the rule's outbound tag.
// Rules without a user list are skipped.
func (c *Config) UserRules() map[string]string {
	rules := make(map[string]string)
	if c.Routing == nil {
		return rules
	}
	for _, raw := range c.Routing.Rules {
		var rule RoutingRule
		if err := json.Unmarshal(raw, &rule); err != nil {
			continue
		}
		if len(rule.User) > 0 && rule.User[0] != "" {
			rules[rule.User[0]] = rule.OutboundTag
		}
	}
	return rules
}

func outboundTag(raw json.RawMessage) string {
	var peek struct {
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return ""
	}
	return peek.Tag
}

func ruleUser(raw json.RawMessage) string {
	var peek struct {
		User []string `json:"user"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return ""
	}
	if len(peek.User) == 0 {
		return ""
	}
	return peek.User[0]
}
