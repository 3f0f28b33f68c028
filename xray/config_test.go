package xray_test

import (
	"testing"

	json "github.com/goccy/go-json"

	. "github.com/lonesomestranger/3x-ui-manager/xray"
)

func ruleset(config *Config) []string {
	var tags []string
	for _, raw := range config.Routing.Rules {
		var rule struct {
			OutboundTag string `json:"outboundTag"`
		}
		if err := json.Unmarshal(raw, &rule); err != nil {
			tags = append(tags, "?")
			continue
		}
		tags = append(tags, rule.OutboundTag)
	}
	return tags
}

func configWithRules(t *testing.T, tags ...string) *Config {
	t.Helper()
	config := &Config{Routing: &RoutingConfig{}}
	for _, tag := range tags {
		raw, err := json.Marshal(map[string]string{"outboundTag": tag})
		if err != nil {
			t.Fatal(err)
		}
		config.Routing.Rules = append(config.Routing.Rules, raw)
	}
	return config
}

func TestInsertRuleKeepsTrailingRules(t *testing.T) {
	config := configWithRules(t, "r1", "r2", "r3")

	err := config.InsertRule(RoutingRule{Type: "field", OutboundTag: "rN"})
	if err != nil {
		t.Fatal(err)
	}

	got := ruleset(config)
	want := []string{"r1", "rN", "r2", "r3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rule %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInsertRuleAppendsOnShortLists(t *testing.T) {
	for _, existing := range [][]string{{}, {"r1"}, {"r1", "r2"}} {
		config := configWithRules(t, existing...)

		err := config.InsertRule(RoutingRule{Type: "field", OutboundTag: "rN"})
		if err != nil {
			t.Fatal(err)
		}

		got := ruleset(config)
		if got[len(got)-1] != "rN" {
			t.Errorf("existing %v: new rule at %v, want it last", existing, got)
		}
	}
}

func TestInsertRuleAllocatesRouting(t *testing.T) {
	config := &Config{}

	err := config.InsertRule(RoutingRule{Type: "field", OutboundTag: "out-a"})
	if err != nil {
		t.Fatal(err)
	}
	if config.Routing == nil || len(config.Routing.Rules) != 1 {
		t.Fatalf("routing not populated: %+v", config.Routing)
	}
}

func TestRemoveUserRules(t *testing.T) {
	config := &Config{Routing: &RoutingConfig{}}
	err := config.InsertRule(RoutingRule{Type: "field", User: []string{"user-a"}, OutboundTag: "out-a"})
	if err != nil {
		t.Fatal(err)
	}
	err = config.InsertRule(RoutingRule{Type: "field", User: []string{"user-b"}, OutboundTag: "out-b"})
	if err != nil {
		t.Fatal(err)
	}

	if removed := config.RemoveUserRules("user-a"); removed != 1 {
		t.Errorf("removed %d rules, want 1", removed)
	}
	if removed := config.RemoveUserRules("user-a"); removed != 0 {
		t.Errorf("second removal removed %d rules, want 0", removed)
	}

	rules := config.UserRules()
	if _, ok := rules["user-a"]; ok {
		t.Error("user-a still present after removal")
	}
	if rules["user-b"] != "out-b" {
		t.Errorf("user-b bound to %q, want out-b", rules["user-b"])
	}
}

func TestUserRulesSkipsRulesWithoutUser(t *testing.T) {
	config := configWithRules(t, "api", "blocked")
	err := config.InsertRule(RoutingRule{Type: "field", User: []string{"user-a"}, OutboundTag: "out-a"})
	if err != nil {
		t.Fatal(err)
	}

	rules := config.UserRules()
	if len(rules) != 1 || rules["user-a"] != "out-a" {
		t.Errorf("got %v, want only user-a -> out-a", rules)
	}
}

func TestRemoveOutbound(t *testing.T) {
	config := &Config{}
	err := config.AddOutbound(NewSocksOutbound("out-a", "proxy.example.com", 1080, "john", "secret"))
	if err != nil {
		t.Fatal(err)
	}
	err = config.AddOutbound(NewSocksOutbound("out-b", "proxy.example.com", 1081, "john", "secret"))
	if err != nil {
		t.Fatal(err)
	}

	if !config.RemoveOutbound("out-a") {
		t.Error("out-a not reported as removed")
	}
	if config.RemoveOutbound("out-a") {
		t.Error("second removal of out-a reported as removed")
	}
	if len(config.Outbounds) != 1 {
		t.Fatalf("%d outbounds left, want 1", len(config.Outbounds))
	}
}

func TestRoundTripPreservesUnknownFields(t *testing.T) {
	blob := []byte(`{
		"log": {"loglevel": "warning"},
		"inbounds": [{"port": 443, "custom": true}],
		"outbounds": [{"tag": "direct", "protocol": "freedom", "panelOnly": 1}],
		"routing": {
			"domainStrategy": "AsIs",
			"rules": [
				{"type": "field", "ip": ["geoip:private"], "outboundTag": "blocked"},
				{"type": "field", "protocol": ["bittorrent"], "outboundTag": "blocked"}
			]
		}
	}`)

	config := new(Config)
	if err := json.Unmarshal(blob, config); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(config)
	if err != nil {
		t.Fatal(err)
	}

	reread := make(map[string]any)
	if err := json.Unmarshal(out, &reread); err != nil {
		t.Fatal(err)
	}
	outbounds := reread["outbounds"].([]any)
	if outbounds[0].(map[string]any)["panelOnly"] != float64(1) {
		t.Error("panel-owned outbound field lost in round trip")
	}
	rules := reread["routing"].(map[string]any)["rules"].([]any)
	if len(rules) != 2 {
		t.Fatalf("%d rules after round trip, want 2", len(rules))
	}
	if rules[0].(map[string]any)["ip"] == nil {
		t.Error("rule ip matcher lost in round trip")
	}
}
