package profile_test

import (
	"testing"

	. "github.com/lonesomestranger/3x-ui-manager/service/profile"
)

func TestSanitizeRemark(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Phone", "my-phone"},
		{"my-phone", "my-phone"},
		{"Office PC: backup", "office-pc--backup"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := SanitizeRemark(c.in); got != c.want {
			t.Errorf("SanitizeRemark(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClientRemarkCollidesCaseInsensitively(t *testing.T) {
	if ClientRemark("My Phone") != ClientRemark("my-phone") {
		t.Error("remarks differing only in case and separators must derive the same client remark")
	}
}

func TestDerivedIdentifiersTruncate(t *testing.T) {
	long := "a very long profile remark well past the cap"

	if got := ClientRemark(long); got != "user-a-very-long-profile-" {
		t.Errorf("ClientRemark = %q", got)
	}
	if got := DerivedOutboundTag(long); got != "out-a-very-long-profile-" {
		t.Errorf("DerivedOutboundTag = %q", got)
	}
}

func TestDisplayRemark(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"my-phone", "My phone"},
		{"plain", "Plain"},
		{"", ""},
	}
	for _, c := range cases {
		if got := DisplayRemark(c.in); got != c.want {
			t.Errorf("DisplayRemark(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
