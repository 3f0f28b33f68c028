package api

import "github.com/lonesomestranger/3x-ui-manager/xray"

// Panel is the interface for the remote panel controlling the routing daemon.
type Panel interface {
	// Login authenticates the underlying session. Callers must log in once
	// before any other call of a logical operation.
	Login() (err error)
	// GetInbound returns the inbound with the given id or ErrInboundNotFound.
	GetInbound(inboundID int) (inbound *Inbound, err error)
	// AddClient creates a client credential on the inbound and returns its
	// freshly generated UUID. Quota is in GB, duration in days, zero means
	// unlimited for both.
	AddClient(inboundID int, email string, quotaGB int, durationDays int, flow string) (uuid string, err error)
	// DeleteClientByEmail removes the client carrying the email. A missing
	// client is not an error: the result reports whether anything was deleted.
	DeleteClientByEmail(inboundID int, email string) (result DeleteResult, err error)
	// GetXrayConfig fetches the daemon configuration blob.
	GetXrayConfig() (config *xray.Config, err error)
	// UpdateXrayConfig writes the full configuration blob back.
	UpdateXrayConfig(config *xray.Config) (err error)
	// RestartXray asks the panel to restart the routing daemon.
	RestartXray() (err error)
	// Describe returns static session info for log prefixes.
	Describe() SessionInfo
}

// DeleteResult distinguishes "nothing to do" from an actual removal when
// deleting a possibly-absent client record.
type DeleteResult int

const (
	ClientDeleted DeleteResult = iota
	ClientAbsent
)

func (r DeleteResult) String() string {
	if r == ClientAbsent {
		return "absent"
	}
	return "deleted"
}
