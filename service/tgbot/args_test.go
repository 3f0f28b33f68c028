package tgbot

import (
	"testing"

	"github.com/lonesomestranger/3x-ui-manager/service/profile"
)

func TestParseCreateArgs(t *testing.T) {
	cases := []struct {
		tokens []string
		want   createArgs
	}{
		{[]string{"Proxy1"}, createArgs{Remark: "Proxy1"}},
		{[]string{"Proxy1", "limit=50", "days=30"}, createArgs{Remark: "Proxy1", LimitGB: 50, Days: 30}},
		{[]string{"limit=50", "My", "Phone", "days=30"}, createArgs{Remark: "My Phone", LimitGB: 50, Days: 30}},
		{[]string{"LIMIT=5", "Office"}, createArgs{Remark: "Office", LimitGB: 5}},
		{[]string{"days=x", "Office"}, createArgs{Remark: "days=x Office"}},
	}
	for _, c := range cases {
		if got := parseCreateArgs(c.tokens); got != c.want {
			t.Errorf("parseCreateArgs(%v) = %+v, want %+v", c.tokens, got, c.want)
		}
	}
}

func TestParseProxyEndpoint(t *testing.T) {
	endpoint, err := parseProxyEndpoint("proxy.example.com:1234:john:secret123")
	if err != nil {
		t.Fatal(err)
	}
	want := profile.ProxyEndpoint{Host: "proxy.example.com", Port: 1234, User: "john", Password: "secret123"}
	if endpoint != want {
		t.Errorf("got %+v, want %+v", endpoint, want)
	}
}

func TestParseProxyEndpointRejectsBadInput(t *testing.T) {
	for _, in := range []string{"proxy.example.com", "host:port:user:pass", "h:1:u", "h:1:u:p:extra"} {
		if _, err := parseProxyEndpoint(in); err == nil {
			t.Errorf("parseProxyEndpoint(%q) accepted", in)
		}
	}
}
