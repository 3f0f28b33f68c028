package profile_test

import (
	"strings"
	"testing"

	"github.com/lonesomestranger/3x-ui-manager/api"
	. "github.com/lonesomestranger/3x-ui-manager/service/profile"
)

func realityInbound(stream string) *api.Inbound {
	return &api.Inbound{
		ID:             1,
		Remark:         "Main",
		Port:           443,
		Protocol:       "vless",
		StreamSettings: stream,
		Tag:            "inbound-443",
	}
}

func TestBuildVlessLink(t *testing.T) {
	inbound := realityInbound(`{
		"network": "tcp",
		"security": "reality",
		"realitySettings": {
			"publicKey": "pk1",
			"serverNames": ["srv.example"],
			"shortIds": ["ab12"]
		}
	}`)

	got, err := BuildVlessLink(inbound, "u-1", "Phone", "example.com")
	if err != nil {
		t.Fatal(err)
	}

	want := "vless://u-1@example.com:443" +
		"?type=tcp&security=reality&flow=xtls-rprx-vision-udp443" +
		"&pbk=pk1&fp=chrome&sni=srv.example&sid=ab12#Main-Phone"
	if got != want {
		t.Errorf("link\n got %s\nwant %s", got, want)
	}
}

func TestBuildVlessLinkIsDeterministic(t *testing.T) {
	inbound := realityInbound(`{"network":"tcp","security":"reality","realitySettings":{"publicKey":"pk1","serverNames":["srv.example"]}}`)

	first, err := BuildVlessLink(inbound, "u-1", "Phone", "example.com")
	if err != nil {
		t.Fatal(err)
	}
	second, err := BuildVlessLink(inbound, "u-1", "Phone", "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("identical inputs produced different links:\n%s\n%s", first, second)
	}
}

func TestBuildVlessLinkPrefersNestedKeyBlock(t *testing.T) {
	inbound := realityInbound(`{
		"network": "tcp",
		"security": "reality",
		"realitySettings": {
			"publicKey": "outer",
			"serverNames": ["srv.example"],
			"settings": {"publicKey": "nested", "fingerprint": "firefox", "spiderX": "/"}
		}
	}`)

	got, err := BuildVlessLink(inbound, "u-1", "Phone", "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "pbk=nested") {
		t.Errorf("link uses outer public key: %s", got)
	}
	if !strings.Contains(got, "fp=firefox") {
		t.Errorf("link ignores nested fingerprint: %s", got)
	}
	if !strings.HasSuffix(got, "&spx=%2F#Main-Phone") {
		t.Errorf("link misses spider parameter: %s", got)
	}
}

func TestBuildVlessLinkEscapesRemark(t *testing.T) {
	inbound := realityInbound(`{"network":"tcp","security":"reality","realitySettings":{"publicKey":"pk1","serverNames":["srv.example"]}}`)

	got, err := BuildVlessLink(inbound, "u-1", "My Phone", "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, "#Main-My%20Phone") {
		t.Errorf("spaces not encoded as %%20: %s", got)
	}
}

func TestBuildVlessLinkDefaults(t *testing.T) {
	inbound := realityInbound(`{"security":"reality","realitySettings":{"publicKey":"pk1","serverNames":["srv.example"]}}`)
	inbound.Remark = ""

	got, err := BuildVlessLink(inbound, "u-1", "Phone", "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "type=tcp") {
		t.Errorf("missing network default: %s", got)
	}
	if !strings.Contains(got, "fp=chrome") {
		t.Errorf("missing fingerprint default: %s", got)
	}
	if !strings.HasSuffix(got, "#VLESS-Phone") {
		t.Errorf("missing fragment fallback: %s", got)
	}
	if strings.Contains(got, "sid=") {
		t.Errorf("sid emitted without a short id: %s", got)
	}
}
