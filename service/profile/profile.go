// Package profile orchestrates profile create/list/delete operations on top
// of the remote panel. A profile couples an inbound client credential, a
// routing rule and (for the proxied variant) an outbound route; the three are
// kept consistent by fixed linear sequences without any transactional
// guarantee from the panel side.
package profile

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/lonesomestranger/3x-ui-manager/api"
	"github.com/lonesomestranger/3x-ui-manager/logger"
	"github.com/lonesomestranger/3x-ui-manager/xray"
)

// DirectOutboundTag is the daemon's built-in egress a direct profile binds to.
// It is never created or removed by this manager.
const DirectOutboundTag = "direct"

const defaultRestartWait = 3 * time.Second

// Service composes the panel session, config accessor and inbound registry
// into profile operations. Each logical operation opens a fresh panel session
// and discards it afterwards.
type Service struct {
	config   *Config
	newPanel func() api.Panel
}

// New returns a profile service. newPanel must yield an unauthenticated panel
// session per call.
func New(config *Config, newPanel func() api.Panel) *Service {
	return &Service{config: config, newPanel: newPanel}
}

// Create builds a proxied profile: a socks outbound towards the given
// endpoint, a client on the managed inbound, and a routing rule binding the
// two. It returns the connection URI. On failure the already-committed steps
// stay in place; a later Delete cleans them up.
func (s *Service) Create(remark string, proxy ProxyEndpoint, quotaGB, durationDays int, progress ProgressFunc) (string, error) {
	panel := s.newPanel()
	if err := panel.Login(); err != nil {
		return "", err
	}

	clientRemark := ClientRemark(remark)
	outboundTag := DerivedOutboundTag(remark)

	progress.report(1, 5, "fetching inbound data")
	inbound, err := panel.GetInbound(s.config.InboundID)
	if err != nil {
		return "", err
	}
	if err := s.checkRemarkFree(inbound, clientRemark, remark); err != nil {
		return "", err
	}

	progress.report(2, 5, "adding outbound "+outboundTag)
	if err := s.addOutbound(panel, outboundTag, proxy); err != nil {
		return "", err
	}

	progress.report(3, 5, "creating client "+clientRemark)
	clientID, err := panel.AddClient(s.config.InboundID, clientRemark, quotaGB, durationDays, "")
	if err != nil {
		return "", err
	}

	progress.report(4, 5, "adding routing rule")
	if err := s.addRoutingRule(panel, inbound, clientRemark, outboundTag); err != nil {
		return "", err
	}

	progress.report(5, 5, "restarting xray")
	if err := s.restart(panel); err != nil {
		return "", err
	}

	return BuildVlessLink(inbound, clientID, remark, s.config.PublicHost)
}

// CreateDirect builds a profile routed through the daemon's built-in direct
// outbound. No outbound entry is created; the client flow is forced to the
// vision constant.
func (s *Service) CreateDirect(remark string, quotaGB, durationDays int, progress ProgressFunc) (string, error) {
	panel := s.newPanel()
	if err := panel.Login(); err != nil {
		return "", err
	}

	clientRemark := ClientRemark(remark)

	progress.report(1, 4, "fetching inbound data")
	inbound, err := panel.GetInbound(s.config.InboundID)
	if err != nil {
		return "", err
	}
	if err := s.checkRemarkFree(inbound, clientRemark, remark); err != nil {
		return "", err
	}

	progress.report(2, 4, "creating client "+clientRemark)
	clientID, err := panel.AddClient(s.config.InboundID, clientRemark, quotaGB, durationDays, VisionFlow)
	if err != nil {
		return "", err
	}

	progress.report(3, 4, "adding routing rule")
	if err := s.addRoutingRule(panel, inbound, clientRemark, DirectOutboundTag); err != nil {
		return "", err
	}

	progress.report(4, 4, "restarting xray")
	if err := s.restart(panel); err != nil {
		return "", err
	}

	return BuildVlessLink(inbound, clientID, remark, s.config.PublicHost)
}

// Delete removes the profile with the given id: the client record (leniently,
// it may already be gone after an interrupted creation), every routing rule
// bound to its identity, and the outbound unless the profile was direct.
func (s *Service) Delete(id string) error {
	panel := s.newPanel()
	if err := panel.Login(); err != nil {
		return err
	}

	target, err := s.find(panel, id)
	if err != nil {
		return err
	}

	result, err := panel.DeleteClientByEmail(s.config.InboundID, target.ClientRemark)
	if err != nil {
		return err
	}
	logger.Infof("profile %s: client record %s", target.ID, result)

	config, err := panel.GetXrayConfig()
	if err != nil {
		return err
	}
	removed := config.RemoveUserRules(target.ClientRemark)
	logger.Debugf("profile %s: removed %d routing rule(s)", target.ID, removed)
	if target.OutboundTag != DirectOutboundTag {
		config.RemoveOutbound(target.OutboundTag)
	}
	if err := panel.UpdateXrayConfig(config); err != nil {
		return err
	}

	return panel.RestartXray()
}

// List reassembles all profiles from one configuration snapshot and one
// inbound fetch. A client without a matching routing rule is not a profile.
func (s *Service) List() ([]Profile, error) {
	panel := s.newPanel()
	if err := panel.Login(); err != nil {
		return nil, err
	}
	return s.list(panel)
}

// Exists reports whether a profile with this remark already occupies the
// derived identity.
func (s *Service) Exists(remark string) (bool, error) {
	panel := s.newPanel()
	if err := panel.Login(); err != nil {
		return false, err
	}
	inbound, err := panel.GetInbound(s.config.InboundID)
	if err != nil {
		return false, err
	}
	return clientExists(inbound, ClientRemark(remark))
}

func (s *Service) list(panel api.Panel) ([]Profile, error) {
	config, err := panel.GetXrayConfig()
	if err != nil {
		return nil, err
	}
	rules := config.UserRules()

	inbound, err := panel.GetInbound(s.config.InboundID)
	if err != nil {
		return nil, err
	}
	clients, err := inbound.Clients()
	if err != nil {
		return nil, err
	}

	var profiles []Profile
	for _, client := range clients {
		id := profileID(client.Email)
		if id == "" {
			continue
		}
		outboundTag, bound := rules[client.Email]
		if !bound {
			continue
		}
		profiles = append(profiles, Profile{
			ID:           id,
			Remark:       DisplayRemark(id),
			ClientRemark: client.Email,
			OutboundTag:  outboundTag,
		})
	}
	return profiles, nil
}

func (s *Service) find(panel api.Panel, id string) (*Profile, error) {
	profiles, err := s.list(panel)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", api.ErrProfileNotFound, id)
}

func (s *Service) checkRemarkFree(inbound *api.Inbound, clientRemark, remark string) error {
	exists, err := clientExists(inbound, clientRemark)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", api.ErrProfileExists, remark)
	}
	return nil
}

// addOutbound appends the socks outbound in one fetch/store cycle.
func (s *Service) addOutbound(panel api.Panel, tag string, proxy ProxyEndpoint) error {
	config, err := panel.GetXrayConfig()
	if err != nil {
		return err
	}
	outbound := xray.NewSocksOutbound(tag, proxy.Host, proxy.Port, proxy.User, proxy.Password)
	if err := config.AddOutbound(outbound); err != nil {
		return err
	}
	return panel.UpdateXrayConfig(config)
}

// addRoutingRule inserts the client→outbound binding in one fetch/store
// cycle, keeping trailing catch-all rules at the tail.
func (s *Service) addRoutingRule(panel api.Panel, inbound *api.Inbound, clientRemark, outboundTag string) error {
	if inbound.Tag == "" {
		return fmt.Errorf("inbound %d has no tag", inbound.ID)
	}
	config, err := panel.GetXrayConfig()
	if err != nil {
		return err
	}
	rule := xray.RoutingRule{
		Type:        "field",
		InboundTag:  []string{inbound.Tag},
		OutboundTag: outboundTag,
		User:        []string{clientRemark},
	}
	if err := config.InsertRule(rule); err != nil {
		return err
	}
	return panel.UpdateXrayConfig(config)
}

// restart triggers the daemon restart and waits a fixed settle delay. This is
// an approximation, not a readiness poll.
func (s *Service) restart(panel api.Panel) error {
	if err := panel.RestartXray(); err != nil {
		return err
	}
	time.Sleep(s.restartWait())
	return nil
}

func (s *Service) restartWait() time.Duration {
	if s.config.RestartWait < 0 {
		return 0
	}
	if s.config.RestartWait == 0 {
		return defaultRestartWait
	}
	return time.Duration(s.config.RestartWait) * time.Second
}

func clientExists(inbound *api.Inbound, clientRemark string) (bool, error) {
	clients, err := inbound.Clients()
	if err != nil {
		return false, err
	}
	emails := mapset.NewSet()
	for _, client := range clients {
		emails.Add(client.Email)
	}
	return emails.Contains(clientRemark), nil
}
