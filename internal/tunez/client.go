package tunez

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
)

// clientState is the serialized ExtraData blob for a Tunez client.
type clientState struct {
	Address string `json:"address,omitempty"`
}

// Client implements [services.Client] for a Tunez server.
//
// There is no real credential: "authentication" is asking the user for the
// server address, which is then persisted so restarts reconnect silently.
type Client struct {
	identifier string
	deviceID   string
	transport  http.RoundTripper
	config     shared.TunezConfig
	prompter   services.Prompter

	baseAddress *url.URL
	account     *models.Account
}

// NewClient creates a Tunez client with the given identifier.
func NewClient(identifier string, transport http.RoundTripper, config shared.TunezConfig, prompter services.Prompter) *Client {
	return &Client{
		identifier: identifier,
		transport:  transport,
		config:     config,
		prompter:   prompter,
	}
}

func (c *Client) Identifier() string          { return c.identifier }
func (c *Client) Service() models.ServiceType { return models.ServiceTunez }
func (c *Client) DeviceID() string            { return c.deviceID }
func (c *Client) SetDeviceID(id string)       { c.deviceID = id }
func (c *Client) BaseAddress() *url.URL       { return c.baseAddress }

func (c *Client) CurrentAccount() *models.Account { return c.account }

// Transport returns the HTTP transport the client was constructed with.
func (c *Client) Transport() http.RoundTripper { return c.transport }

// RateLimit returns the configured request pacing for the backing server.
func (c *Client) RateLimit() float64 { return c.config.RateLimit }

func (c *Client) ExtraData() string {
	state := clientState{}
	if c.baseAddress != nil {
		state.Address = c.baseAddress.String()
	}
	data, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return string(data)
}

// SetExtraData restores a persisted server address, re-establishing the
// account without an interactive step.
func (c *Client) SetExtraData(data string) {
	if data == "" {
		return
	}
	var state clientState
	if err := json.Unmarshal([]byte(data), &state); err != nil || state.Address == "" {
		return
	}
	base, err := url.Parse(state.Address)
	if err != nil {
		return
	}
	c.baseAddress = base
	c.account = &models.Account{Identifier: c.identifier, Email: state.Address}
}

func (c *Client) ResetData() {
	c.baseAddress = nil
	c.account = nil
}

// Authenticate asks the user for the server address. An abandoned prompt
// resolves to (nil, nil).
func (c *Client) Authenticate(ctx context.Context) (*models.Account, error) {
	if c.baseAddress != nil {
		return c.account, nil
	}

	placeholder := c.config.DefaultAddress
	if placeholder == "" {
		placeholder = "http://test.com:51986"
	}

	address, err := c.prompter.Text(ctx, "Enter Tunez server address", placeholder)
	if err != nil {
		if errors.Is(err, shared.ErrAuthAbandoned) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	base, err := url.Parse(address)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid server address %q", shared.ErrAuthFailed, address)
	}

	c.baseAddress = base
	c.account = &models.Account{Identifier: c.identifier, Email: base.String()}
	return c.account, nil
}

// RefreshAccount reports whether a server address is on file. There is no
// session to refresh.
func (c *Client) RefreshAccount(ctx context.Context) (bool, error) {
	return c.baseAddress != nil, nil
}
