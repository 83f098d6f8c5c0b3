// OAuth-backed [Client] implementations.
//
// Endpoint URLs per vendor developer documentation.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	soundCloudAuthURL     = "https://secure.soundcloud.com/authorize"
	soundCloudTokenURL    = "https://secure.soundcloud.com/oauth/token"
	soundCloudUserInfoURL = "https://api.soundcloud.com/me"

	amazonAuthURL     = "https://www.amazon.com/ap/oa"
	amazonTokenURL    = "https://api.amazon.com/auth/o2/token"
	amazonUserInfoURL = "https://api.amazon.com/user/profile"

	oneDriveAuthURL     = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	oneDriveTokenURL    = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	oneDriveUserInfoURL = "https://graph.microsoft.com/v1.0/me"
)

// oauthState is the serialized form of an OAuthClient's ExtraData blob.
type oauthState struct {
	Token *oauth2.Token `json:"token,omitempty"`
	Email string        `json:"email,omitempty"`
}

// OAuthClient implements [Client] for services authenticated with an
// authorization-code grant via [oauth2].
type OAuthClient struct {
	identifier  string
	service     models.ServiceType
	deviceID    string
	baseAddress *url.URL
	config      *oauth2.Config
	userInfoURL string
	transport   http.RoundTripper
	prompter    Prompter

	token   *oauth2.Token
	email   string
	account *models.Account
}

// NewOAuthClient creates a client for the given service with the vendor's
// OAuth endpoints and the application credentials from configuration.
func NewOAuthClient(identifier string, transport http.RoundTripper, service models.ServiceType, creds shared.OAuthCredentials, endpoint oauth2.Endpoint, scopes []string, userInfoURL, baseAddress string, prompter Prompter) *OAuthClient {
	base, _ := url.Parse(baseAddress)
	return &OAuthClient{
		identifier:  identifier,
		service:     service,
		baseAddress: base,
		transport:   transport,
		prompter:    prompter,
		userInfoURL: userInfoURL,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
	}
}

// NewGoogleClient creates a client for the Google Play Music service.
func NewGoogleClient(identifier string, transport http.RoundTripper, creds shared.OAuthCredentials, prompter Prompter) *OAuthClient {
	return NewOAuthClient(identifier, transport, models.ServiceGoogle, creds,
		oauth2.Endpoint{AuthURL: googleAuthURL, TokenURL: googleTokenURL},
		[]string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/musicmanager"},
		googleUserInfoURL, "https://mclients.googleapis.com/sj/v2.5/", prompter)
}

// NewYouTubeClient creates a client for the YouTube streaming service.
//
// YouTube shares Google's OAuth endpoints but carries its own scopes and
// service identity.
func NewYouTubeClient(identifier string, transport http.RoundTripper, creds shared.OAuthCredentials, prompter Prompter) *OAuthClient {
	return NewOAuthClient(identifier, transport, models.ServiceYouTube, creds,
		oauth2.Endpoint{AuthURL: googleAuthURL, TokenURL: googleTokenURL},
		[]string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/youtube.readonly"},
		googleUserInfoURL, "https://www.googleapis.com/youtube/v3/", prompter)
}

// NewSoundCloudClient creates a client for the SoundCloud service.
func NewSoundCloudClient(identifier string, transport http.RoundTripper, creds shared.OAuthCredentials, prompter Prompter) *OAuthClient {
	return NewOAuthClient(identifier, transport, models.ServiceSoundCloud, creds,
		oauth2.Endpoint{AuthURL: soundCloudAuthURL, TokenURL: soundCloudTokenURL},
		[]string{"non-expiring"},
		soundCloudUserInfoURL, "https://api.soundcloud.com/", prompter)
}

// NewCloudDriveClient creates a client for the Amazon Cloud Drive service.
func NewCloudDriveClient(identifier string, transport http.RoundTripper, creds shared.OAuthCredentials, prompter Prompter) *OAuthClient {
	return NewOAuthClient(identifier, transport, models.ServiceAmazon, creds,
		oauth2.Endpoint{AuthURL: amazonAuthURL, TokenURL: amazonTokenURL},
		[]string{"clouddrive:read"},
		amazonUserInfoURL, "https://drive.amazonaws.com/drive/v1/", prompter)
}

// NewOneDriveClient creates a client for the OneDrive service.
func NewOneDriveClient(identifier string, transport http.RoundTripper, creds shared.OAuthCredentials, prompter Prompter) *OAuthClient {
	return NewOAuthClient(identifier, transport, models.ServiceOneDrive, creds,
		oauth2.Endpoint{AuthURL: oneDriveAuthURL, TokenURL: oneDriveTokenURL},
		[]string{"Files.Read", "User.Read", "offline_access"},
		oneDriveUserInfoURL, "https://graph.microsoft.com/v1.0/me/drive/", prompter)
}

func (c *OAuthClient) Identifier() string          { return c.identifier }
func (c *OAuthClient) Service() models.ServiceType { return c.service }
func (c *OAuthClient) DeviceID() string            { return c.deviceID }
func (c *OAuthClient) SetDeviceID(id string)       { c.deviceID = id }
func (c *OAuthClient) BaseAddress() *url.URL       { return c.baseAddress }

func (c *OAuthClient) CurrentAccount() *models.Account { return c.account }

// ExtraData serializes the client's token and profile state for persistence.
func (c *OAuthClient) ExtraData() string {
	data, err := json.Marshal(oauthState{Token: c.token, Email: c.email})
	if err != nil {
		return ""
	}
	return string(data)
}

// SetExtraData restores a previously persisted token and profile state.
//
// A restored token also restores the account so the provider is usable without
// an interactive step.
func (c *OAuthClient) SetExtraData(data string) {
	if data == "" {
		return
	}
	var state oauthState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return
	}
	c.token = state.Token
	c.email = state.Email
	if c.token != nil {
		c.account = &models.Account{Identifier: c.identifier, Email: c.email}
	}
}

// ResetData clears token, account, and profile state.
func (c *OAuthClient) ResetData() {
	c.token = nil
	c.email = ""
	c.account = nil
}

// Authenticate restores a stored session when possible, otherwise drives the
// interactive authorization-code grant through the prompter.
//
// Returns (nil, nil) when the user abandons the interactive step.
func (c *OAuthClient) Authenticate(ctx context.Context) (*models.Account, error) {
	if ok, err := c.RefreshAccount(ctx); err == nil && ok {
		return c.account, nil
	}

	if c.config.ClientID == "" {
		return nil, fmt.Errorf("%w: no client credentials for %s", shared.ErrMissingConfig, c.service)
	}

	authURL := c.config.AuthCodeURL(c.identifier, oauth2.AccessTypeOffline)
	code, err := c.prompter.AuthCode(ctx, authURL)
	if err != nil {
		if errors.Is(err, shared.ErrAuthAbandoned) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	token, err := c.config.Exchange(c.httpContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}
	c.token = token

	if email, err := c.fetchEmail(ctx); err == nil {
		c.email = email
	}

	c.account = &models.Account{Identifier: c.identifier, Email: c.email}
	return c.account, nil
}

// RefreshAccount silently refreshes the stored token, if any.
func (c *OAuthClient) RefreshAccount(ctx context.Context) (bool, error) {
	if c.token == nil {
		return false, nil
	}

	fresh, err := c.config.TokenSource(c.httpContext(ctx), c.token).Token()
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	c.token = fresh
	c.account = &models.Account{Identifier: c.identifier, Email: c.email}
	return true, nil
}

// fetchEmail retrieves the account email from the vendor's user-info endpoint.
func (c *OAuthClient) fetchEmail(ctx context.Context) (string, error) {
	if c.userInfoURL == "" {
		return "", fmt.Errorf("%w: no user info endpoint", shared.ErrNotImplemented)
	}

	client := c.config.Client(c.httpContext(ctx), c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("user info error: status %d", resp.StatusCode)
	}

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	// Vendors disagree on the field name.
	for _, key := range []string{"email", "mail", "userPrincipalName", "username"} {
		if v, ok := profile[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("no email in profile")
}

// httpContext injects the custom transport into the oauth2 HTTP stack.
func (c *OAuthClient) httpContext(ctx context.Context) context.Context {
	if c.transport == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: c.transport})
}
