package profile

// Config holds the orchestrator settings. Values are injected at construction
// and treated as immutable for the process lifetime.
type Config struct {
	InboundID   int    `mapstructure:"InboundId"`
	PublicHost  string `mapstructure:"PublicHost"`
	RestartWait int    `mapstructure:"RestartWait"` // seconds to let the daemon settle after a restart, negative disables the wait
}

// Profile is the logical unit composed of one client, one routing rule and
// optionally one outbound. It is never stored: every listing reassembles it
// from a fresh configuration snapshot.
type Profile struct {
	ID           string
	Remark       string
	ClientRemark string
	OutboundTag  string
}

// ProxyEndpoint describes the upstream socks proxy a proxied profile routes
// through.
type ProxyEndpoint struct {
	Host     string
	Port     int
	User     string
	Password string
}

// ProgressFunc receives step updates during a multi-step operation. The chat
// layer uses it to edit a status message in place.
type ProgressFunc func(step, total int, description string)

func (f ProgressFunc) report(step, total int, description string) {
	if f != nil {
		f(step, total, description)
	}
}
