package flex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-flexconnect/core"
)

const (
	defaultAuthURL        = "https://identity.officernd.com/oauth/authorize"
	defaultTokenURL       = "https://identity.officernd.com/oauth/token"
	defaultAPIURL         = "https://app.officernd.com/api/v1"
	defaultRequestTimeout = 30 * time.Second
	defaultTokenTTL       = time.Hour
	maxResponseBodyBytes  = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	AuthURL        string
	TokenURL       string
	APIURL         string
	Scopes         string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	Now            func() time.Time
	HTTPClient     HTTPDoer
}

// Client talks to the remote platform: token grants against the identity
// service and bearer-authenticated directory reads against the platform API.
type Client struct {
	cfg        Config
	httpClient HTTPDoer
}

func New(cfg Config) (*Client, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("flex: client id is required")
	}
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.RedirectURI = strings.TrimSpace(cfg.RedirectURI)
	cfg.Scopes = strings.TrimSpace(cfg.Scopes)

	cfg.AuthURL = strings.TrimSpace(cfg.AuthURL)
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time {
			return time.Now().UTC()
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// NewFromConfig builds a client from the service's resolved configuration so
// the oauth block a host layers through core.Config drives the grants this
// client sends. Transport knobs keep their defaults; use New directly to
// override them.
func NewFromConfig(cfg core.Config) (*Client, error) {
	return New(Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURI:  cfg.OAuth.RedirectURI,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		Scopes:       cfg.OAuth.Scopes,
	})
}

// AuthorizeURL builds the browser entry point for the consent flow. State is
// optional; when present the platform echoes it back on the callback.
func (c *Client) AuthorizeURL(state string) string {
	if c == nil {
		return ""
	}
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", c.cfg.ClientID)
	if c.cfg.RedirectURI != "" {
		values.Set("redirect_uri", c.cfg.RedirectURI)
	}
	if c.cfg.Scopes != "" {
		values.Set("scope", c.cfg.Scopes)
	}
	if state = strings.TrimSpace(state); state != "" {
		values.Set("state", state)
	}
	if strings.Contains(c.cfg.AuthURL, "?") {
		return c.cfg.AuthURL + "&" + values.Encode()
	}
	return c.cfg.AuthURL + "?" + values.Encode()
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (core.Credentials, error) {
	if c == nil {
		return core.Credentials{}, fmt.Errorf("flex: client is nil")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return core.Credentials{}, fmt.Errorf("flex: authorization code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if c.cfg.RedirectURI != "" {
		form.Set("redirect_uri", c.cfg.RedirectURI)
	}
	return c.fetchToken(ctx, form)
}

func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (core.Credentials, error) {
	if c == nil {
		return core.Credentials{}, fmt.Errorf("flex: client is nil")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.Credentials{}, fmt.Errorf("flex: refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.fetchToken(ctx, form)
}

func (c *Client) fetchToken(ctx context.Context, form url.Values) (core.Credentials, error) {
	if c.httpClient == nil {
		return core.Credentials{}, fmt.Errorf("flex: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	form.Set("client_id", c.cfg.ClientID)
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		c.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return core.Credentials{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.Credentials{}, fmt.Errorf("flex: token endpoint request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return core.Credentials{}, fmt.Errorf("flex: read token endpoint response: %w", readErr)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return core.Credentials{}, fmt.Errorf("flex: token endpoint response exceeds %d bytes", maxResponseBodyBytes)
	}

	payload, parseErr := parseTokenPayload(body, response.Header.Get("Content-Type"))
	if parseErr != nil {
		return core.Credentials{}, fmt.Errorf("flex: decode token endpoint response: %w", parseErr)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return core.Credentials{}, fmt.Errorf(
			"flex: token endpoint error (%d): %s",
			response.StatusCode,
			describeTokenError(payload),
		)
	}
	if payload.ErrorCode != "" {
		return core.Credentials{}, fmt.Errorf("flex: token endpoint error: %s", describeTokenError(payload))
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.Credentials{}, fmt.Errorf("flex: token endpoint response missing access token")
	}

	ttl := c.cfg.TokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	return core.Credentials{
		AccessToken:  strings.TrimSpace(payload.AccessToken),
		RefreshToken: strings.TrimSpace(payload.RefreshToken),
		ExpiresAt:    c.cfg.Now().UTC().Add(ttl),
	}, nil
}

// Account fetches the canonical organization identity for a slug.
func (c *Client) Account(ctx context.Context, accessToken string, accountSlug string) (core.Account, error) {
	if c == nil {
		return core.Account{}, fmt.Errorf("flex: client is nil")
	}
	accountSlug = strings.TrimSpace(accountSlug)
	if accountSlug == "" {
		return core.Account{}, fmt.Errorf("flex: account slug is required")
	}

	endpoint := c.cfg.APIURL + "/organizations/" + url.PathEscape(accountSlug)
	decoded, err := c.getJSON(ctx, endpoint, accessToken, "account endpoint")
	if err != nil {
		return core.Account{}, err
	}

	account := core.Account{
		ID:   readAnyString(decoded["_id"]),
		Name: readAnyString(decoded["name"]),
		Slug: readAnyString(decoded["slug"]),
	}
	if account.Slug == "" {
		account.Slug = accountSlug
	}
	return account, nil
}

// Integration fetches the integration resource and extracts the shared
// secret from settings. A missing secret is not an error.
func (c *Client) Integration(ctx context.Context, accessToken string, accountSlug string, integrationID string) (core.Integration, error) {
	if c == nil {
		return core.Integration{}, fmt.Errorf("flex: client is nil")
	}
	accountSlug = strings.TrimSpace(accountSlug)
	integrationID = strings.TrimSpace(integrationID)
	if accountSlug == "" || integrationID == "" {
		return core.Integration{}, fmt.Errorf("flex: account slug and integration id are required")
	}

	endpoint := c.cfg.APIURL +
		"/organizations/" + url.PathEscape(accountSlug) +
		"/integrations/" + url.PathEscape(integrationID)
	decoded, err := c.getJSON(ctx, endpoint, accessToken, "integration endpoint")
	if err != nil {
		return core.Integration{}, err
	}

	settings, _ := decoded["settings"].(map[string]any)
	secret := readAnyString(settings["secret"])
	return core.Integration{
		Secret:        secret,
		SecretPresent: secret != "",
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, accessToken string, label string) (map[string]any, error) {
	if c.httpClient == nil {
		return nil, fmt.Errorf("flex: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("flex: access token is required for %s", label)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flex: %s request failed: %w", label, err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("flex: read %s response: %w", label, readErr)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return nil, fmt.Errorf("flex: %s response exceeds %d bytes", label, maxResponseBodyBytes)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("flex: %s error (%d)", label, response.StatusCode)
	}

	decoded, parseErr := parseJSONObject(body)
	if parseErr != nil {
		return nil, fmt.Errorf("flex: decode %s response: %w", label, parseErr)
	}
	return decoded, nil
}

var (
	_ core.TokenEndpoint = (*Client)(nil)
	_ core.DirectoryAPI  = (*Client)(nil)
)
