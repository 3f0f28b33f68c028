// Package xui implements the api.Panel interface against a 3x-ui panel.
package xui

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/r3labs/diff/v2"

	"github.com/lonesomestranger/3x-ui-manager/api"
	"github.com/lonesomestranger/3x-ui-manager/logger"
	"github.com/lonesomestranger/3x-ui-manager/xray"
)

const defaultTimeout = 10 * time.Second

// APIClient is an authenticated session against one 3x-ui panel. It is
// created per logical operation and discarded afterwards; the resty cookie
// jar carries the session between the login call and the requests after it.
type APIClient struct {
	client   *resty.Client
	url      string
	username string
	password string

	// snapshot of the last fetched config, kept to log a structural diff on
	// write-back. The read-modify-write window is an accepted race, logging
	// the delta is the only mitigation.
	snapshot *xray.Config
}

// New creates a panel client from the connection config.
func New(config *api.Config) *APIClient {
	client := resty.New()
	client.SetBaseURL(config.URL)
	client.SetHeader("Accept", "application/json")

	if config.Timeout > 0 {
		client.SetTimeout(time.Duration(config.Timeout) * time.Second)
	} else {
		client.SetTimeout(defaultTimeout)
	}

	return &APIClient{
		client:   client,
		url:      config.URL,
		username: config.Username,
		password: config.Password,
	}
}

// Describe returns static session info for log prefixes.
func (c *APIClient) Describe() api.SessionInfo {
	return api.SessionInfo{URL: c.url, Username: c.username}
}

// execute runs one request and decodes the panel envelope. An empty body on a
// 2xx status counts as success: some endpoints answer with no payload.
func (c *APIClient) execute(method, path string, formData map[string]string) (*response, error) {
	req := c.client.R()
	if len(formData) > 0 {
		req.SetFormData(formData)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	if res.StatusCode() > 399 {
		return nil, fmt.Errorf("request %s failed: status %d, %s", path, res.StatusCode(), res.Body())
	}

	body := res.Body()
	if len(body) == 0 {
		return &response{Success: true}, nil
	}

	resp := new(response)
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("request %s failed: malformed body: %w", path, err)
	}
	return resp, nil
}

// Login authenticates the session. Any failure, transport or rejection, is an
// auth error.
func (c *APIClient) Login() error {
	resp, err := c.execute(resty.MethodPost, "/login", map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", api.ErrLoginFailed, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", api.ErrLoginFailed, resp.Msg)
	}
	return nil
}

// GetInbound scans the panel's inbound listing for the given id.
func (c *APIClient) GetInbound(inboundID int) (*api.Inbound, error) {
	resp, err := c.execute(resty.MethodGet, "/panel/api/inbounds/list", nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: list inbounds: %s", api.ErrPanelRejected, resp.Msg)
	}

	var inbounds []*api.Inbound
	if err := json.Unmarshal(resp.Obj, &inbounds); err != nil {
		return nil, fmt.Errorf("decode inbound list: %w", err)
	}
	for _, inbound := range inbounds {
		if inbound.ID == inboundID {
			return inbound, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", api.ErrInboundNotFound, inboundID)
}

// AddClient creates a credential on the inbound. The UUID is generated here,
// the panel is the sole arbiter of acceptance.
func (c *APIClient) AddClient(inboundID int, email string, quotaGB int, durationDays int, flow string) (string, error) {
	clientID := uuid.NewString()

	var totalBytes int64
	if quotaGB > 0 {
		totalBytes = int64(quotaGB) * 1024 * 1024 * 1024
	}
	var expiryTime int64
	if durationDays > 0 {
		expiryTime = time.Now().UnixMilli() + int64(durationDays)*24*60*60*1000
	}

	settings, err := json.Marshal(api.InboundSettings{Clients: []api.Client{{
		ID:         clientID,
		Email:      email,
		Enable:     true,
		Flow:       flow,
		LimitIP:    0,
		TotalGB:    totalBytes,
		ExpiryTime: expiryTime,
		TgID:       "",
		SubID:      "",
	}}})
	if err != nil {
		return "", fmt.Errorf("encode client settings: %w", err)
	}

	resp, err := c.execute(resty.MethodPost, "/panel/api/inbounds/addClient", map[string]string{
		"id":       strconv.Itoa(inboundID),
		"settings": string(settings),
	})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: add client %s: %s", api.ErrPanelRejected, email, resp.Msg)
	}
	return clientID, nil
}

// DeleteClientByEmail removes the client carrying the email from the inbound.
// An absent client is reported, not treated as a failure, so a previously
// interrupted creation can still be cleaned up.
func (c *APIClient) DeleteClientByEmail(inboundID int, email string) (api.DeleteResult, error) {
	inbound, err := c.GetInbound(inboundID)
	if err != nil {
		return api.ClientAbsent, err
	}
	clients, err := inbound.Clients()
	if err != nil {
		return api.ClientAbsent, err
	}

	clientID := ""
	for _, client := range clients {
		if client.Email == email {
			clientID = client.ID
			break
		}
	}
	if clientID == "" {
		logger.Warningf("client %q not found in inbound %d, skipping client deletion", email, inboundID)
		return api.ClientAbsent, nil
	}

	path := fmt.Sprintf("/panel/api/inbounds/%d/delClient/%s", inboundID, clientID)
	resp, err := c.execute(resty.MethodPost, path, nil)
	if err != nil {
		return api.ClientAbsent, err
	}
	if !resp.Success {
		return api.ClientAbsent, fmt.Errorf("%w: delete client %s: %s", api.ErrPanelRejected, email, resp.Msg)
	}
	return api.ClientDeleted, nil
}

// GetXrayConfig fetches the daemon configuration blob. The panel nests it as
// a JSON-encoded string inside the response object.
func (c *APIClient) GetXrayConfig() (*xray.Config, error) {
	resp, err := c.execute(resty.MethodPost, "/panel/xray/", nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: get xray config: %s", api.ErrPanelRejected, resp.Msg)
	}

	var encoded string
	if err := json.Unmarshal(resp.Obj, &encoded); err != nil {
		return nil, fmt.Errorf("decode xray config wrapper: %w", err)
	}
	var setting xraySetting
	if err := json.Unmarshal([]byte(encoded), &setting); err != nil {
		return nil, fmt.Errorf("decode xray setting: %w", err)
	}

	config := new(xray.Config)
	if err := json.Unmarshal(setting.XraySetting, config); err != nil {
		return nil, fmt.Errorf("decode xray config: %w", err)
	}

	c.snapshot = new(xray.Config)
	if err := json.Unmarshal(setting.XraySetting, c.snapshot); err != nil {
		c.snapshot = nil
	}
	return config, nil
}

// UpdateXrayConfig re-serializes the whole blob and posts it back. There is
// no partial update path on the panel side.
func (c *APIClient) UpdateXrayConfig(config *xray.Config) error {
	if c.snapshot != nil {
		if changelog, err := diff.Diff(c.snapshot, config); err == nil {
			logger.Debugf("xray config update: %d changed paths", len(changelog))
		}
	}

	encoded, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encode xray config: %w", err)
	}

	resp, err := c.execute(resty.MethodPost, "/panel/xray/update", map[string]string{
		"xraySetting": string(encoded),
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: update xray config: %s", api.ErrPanelRejected, resp.Msg)
	}
	return nil
}

// RestartXray triggers a daemon restart. Older panels expose the endpoint
// under the xui prefix, so a transport-level failure falls back to it.
func (c *APIClient) RestartXray() error {
	resp, err := c.execute(resty.MethodPost, "/panel/setting/restartPanel", nil)
	if err != nil {
		logger.Debugf("restart via panel prefix failed (%v), trying legacy path", err)
		resp, err = c.execute(resty.MethodPost, "/xui/setting/restartPanel", nil)
	}
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: restart xray: %s", api.ErrPanelRejected, resp.Msg)
	}
	return nil
}
