package api

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

var (
	// ErrLoginFailed is returned when the panel rejects the credentials.
	ErrLoginFailed = errors.New("panel login failed")
	// ErrInboundNotFound is returned when the target inbound does not exist.
	ErrInboundNotFound = errors.New("inbound not found")
	// ErrProfileNotFound is returned when a referenced profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned on a remark collision during creation.
	ErrProfileExists = errors.New("profile already exists")
	// ErrPanelRejected is returned when the panel answers success=false.
	ErrPanelRejected = errors.New("panel rejected request")
)

// Config holds the panel connection settings.
type Config struct {
	URL      string `mapstructure:"Url"`
	Username string `mapstructure:"Username"`
	Password string `mapstructure:"Password"`
	Timeout  int    `mapstructure:"Timeout"` // seconds, 0 means default
}

// SessionInfo describes a panel session for log prefixes.
type SessionInfo struct {
	URL      string
	Username string
}

// Inbound is a listener configuration as returned by the panel. Settings and
// StreamSettings arrive as nested JSON-encoded strings.
type Inbound struct {
	ID             int    `json:"id"`
	Remark         string `json:"remark"`
	Enable         bool   `json:"enable"`
	Port           int    `json:"port"`
	Protocol       string `json:"protocol"`
	Settings       string `json:"settings"`
	StreamSettings string `json:"streamSettings"`
	Tag            string `json:"tag"`
}

// Client is one credential entry nested inside an inbound's settings.
type Client struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Enable     bool   `json:"enable"`
	Flow       string `json:"flow"`
	LimitIP    int    `json:"limitIp"`
	TotalGB    int64  `json:"totalGB"`
	ExpiryTime int64  `json:"expiryTime"`
	TgID       string `json:"tgId"`
	SubID      string `json:"subId"`
}

// InboundSettings is the decoded form of Inbound.Settings.
type InboundSettings struct {
	Clients []Client `json:"clients"`
}

// Clients decodes the client list nested inside the inbound's settings.
func (i *Inbound) Clients() ([]Client, error) {
	if i.Settings == "" {
		return nil, nil
	}
	var settings InboundSettings
	if err := json.Unmarshal([]byte(i.Settings), &settings); err != nil {
		return nil, fmt.Errorf("decode inbound %d settings: %w", i.ID, err)
	}
	return settings.Clients, nil
}

// StreamSettings is the decoded form of Inbound.StreamSettings, reduced to
// what connection URIs are built from.
type StreamSettings struct {
	Network  string           `json:"network"`
	Security string           `json:"security"`
	Reality  *RealitySettings `json:"realitySettings"`
}

// RealitySettings carries the Reality handshake parameters. Depending on the
// panel version the key material lives either on the top level or in a nested
// "settings" object; accessors below prefer the nested one.
type RealitySettings struct {
	PublicKey   string           `json:"publicKey"`
	Fingerprint string           `json:"fingerprint"`
	SpiderX     string           `json:"spiderX"`
	ServerNames []string         `json:"serverNames"`
	ShortIDs    []string         `json:"shortIds"`
	Settings    *RealityKeyBlock `json:"settings"`
}

type RealityKeyBlock struct {
	PublicKey   string `json:"publicKey"`
	Fingerprint string `json:"fingerprint"`
	SpiderX     string `json:"spiderX"`
}

func (r *RealitySettings) GetPublicKey() string {
	if r.Settings != nil && r.Settings.PublicKey != "" {
		return r.Settings.PublicKey
	}
	return r.PublicKey
}

func (r *RealitySettings) GetFingerprint() string {
	if r.Settings != nil && r.Settings.Fingerprint != "" {
		return r.Settings.Fingerprint
	}
	return r.Fingerprint
}

func (r *RealitySettings) GetSpiderX() string {
	if r.Settings != nil && r.Settings.SpiderX != "" {
		return r.Settings.SpiderX
	}
	return r.SpiderX
}

// Stream decodes the inbound's stream settings.
func (i *Inbound) Stream() (*StreamSettings, error) {
	var stream StreamSettings
	if err := json.Unmarshal([]byte(i.StreamSettings), &stream); err != nil {
		return nil, fmt.Errorf("decode inbound %d stream settings: %w", i.ID, err)
	}
	return &stream, nil
}
