package profile

import "strings"

// maxDerivedLen caps the sanitized remark inside derived identifiers, so tags
// and emails stay short enough for the panel UI.
const maxDerivedLen = 20

const (
	clientPrefix   = "user-"
	outboundPrefix = "out-"
)

// SanitizeRemark normalizes a human remark for use inside derived
// identifiers: lower-cased, spaces and colons replaced with dashes.
func SanitizeRemark(remark string) string {
	sanitized := strings.ToLower(remark)
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	sanitized = strings.ReplaceAll(sanitized, ":", "-")
	return sanitized
}

// ClientRemark derives the client email used as the profile's identity key.
func ClientRemark(remark string) string {
	return clientPrefix + truncate(SanitizeRemark(remark), maxDerivedLen)
}

// DerivedOutboundTag derives the outbound tag bound to a proxied profile.
func DerivedOutboundTag(remark string) string {
	return outboundPrefix + truncate(SanitizeRemark(remark), maxDerivedLen)
}

// profileID extracts the profile id from a client email, or "" when the email
// does not belong to a managed profile.
func profileID(email string) string {
	if !strings.HasPrefix(email, clientPrefix) {
		return ""
	}
	return strings.TrimPrefix(email, clientPrefix)
}

// DisplayRemark rebuilds the human-facing remark from a profile id.
func DisplayRemark(id string) string {
	remark := []rune(strings.ReplaceAll(id, "-", " "))
	if len(remark) == 0 {
		return ""
	}
	return strings.ToUpper(string(remark[0])) + string(remark[1:])
}

// truncate cuts at rune boundaries, remarks are not always ASCII.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
