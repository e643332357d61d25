package flex

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-flexconnect/core"
)

var flexTestNow = time.Date(2025, time.May, 26, 9, 0, 0, 0, time.UTC)

type recordedRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   string
}

type stubDoer struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses []*http.Response
	err       error
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	d.requests = append(d.requests, recordedRequest{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header.Clone(),
		Body:   body,
	})
	if d.err != nil {
		return nil, d.err
	}
	if len(d.responses) == 0 {
		return jsonResponse(http.StatusOK, `{}`), nil
	}
	response := d.responses[0]
	d.responses = d.responses[1:]
	return response, nil
}

func (d *stubDoer) last(t *testing.T) recordedRequest {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		t.Fatal("no request recorded")
	}
	return d.requests[len(d.requests)-1]
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func formResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(t *testing.T, doer *stubDoer) *Client {
	t.Helper()
	client, err := New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://connector.example.com/return",
		Scopes:       "officernd.api.read officernd.api.write",
		Now:          func() time.Time { return flexTestNow },
		HTTPClient:   doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewRequiresClientID(t *testing.T) {
	if _, err := New(Config{ClientID: "   "}); err == nil {
		t.Fatal("expected missing client id to fail")
	}
}

func TestNewFromConfigMapsOAuthBlock(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.OAuth = core.OAuthConfig{
		ClientID:     "cfg-client",
		ClientSecret: "cfg-secret",
		RedirectURI:  "https://connector.example.com/return",
		AuthURL:      "https://auth.example.com/authorize",
		Scopes:       "officernd.api.read",
	}

	client, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}

	parsed, err := url.Parse(client.AuthorizeURL(""))
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if parsed.Host != "auth.example.com" {
		t.Errorf("auth host = %q, want configured endpoint", parsed.Host)
	}
	query := parsed.Query()
	if got := query.Get("client_id"); got != "cfg-client" {
		t.Errorf("client_id = %q", got)
	}
	if got := query.Get("redirect_uri"); got != "https://connector.example.com/return" {
		t.Errorf("redirect_uri = %q", got)
	}
	if got := query.Get("scope"); got != "officernd.api.read" {
		t.Errorf("scope = %q", got)
	}
	if client.cfg.TokenURL != defaultTokenURL {
		t.Errorf("token url = %q, want default when not configured", client.cfg.TokenURL)
	}
	if client.cfg.ClientSecret != "cfg-secret" {
		t.Errorf("client secret = %q", client.cfg.ClientSecret)
	}
}

func TestNewFromConfigRequiresClientID(t *testing.T) {
	if _, err := NewFromConfig(core.DefaultConfig()); err == nil {
		t.Fatal("expected missing oauth client id to fail")
	}
}

func TestAuthorizeURL(t *testing.T) {
	client := newTestClient(t, &stubDoer{})

	raw := client.AuthorizeURL("state xyz")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if parsed.Host != "identity.officernd.com" || parsed.Path != "/oauth/authorize" {
		t.Fatalf("unexpected endpoint %q", raw)
	}

	query := parsed.Query()
	if got := query.Get("response_type"); got != "code" {
		t.Errorf("response_type = %q", got)
	}
	if got := query.Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q", got)
	}
	if got := query.Get("redirect_uri"); got != "https://connector.example.com/return" {
		t.Errorf("redirect_uri = %q", got)
	}
	if got := query.Get("scope"); got != "officernd.api.read officernd.api.write" {
		t.Errorf("scope = %q", got)
	}
	if got := query.Get("state"); got != "state xyz" {
		t.Errorf("state = %q", got)
	}
}

func TestExchangeCodeSendsFormGrant(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"access_token": "at_1",
		"refresh_token": "rt_1",
		"expires_in": 7200
	}`)}}
	client := newTestClient(t, doer)

	creds, err := client.ExchangeCode(context.Background(), " auth-code ")
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}

	req := doer.last(t)
	if req.Method != http.MethodPost {
		t.Errorf("method = %q, want POST", req.Method)
	}
	if req.URL.String() != defaultTokenURL {
		t.Errorf("url = %q, want %q", req.URL, defaultTokenURL)
	}
	if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", got)
	}

	form, parseErr := url.ParseQuery(req.Body)
	if parseErr != nil {
		t.Fatalf("parse form body: %v", parseErr)
	}
	if got := form.Get("grant_type"); got != "authorization_code" {
		t.Errorf("grant_type = %q", got)
	}
	if got := form.Get("code"); got != "auth-code" {
		t.Errorf("code = %q, want trimmed", got)
	}
	if got := form.Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q", got)
	}
	if got := form.Get("client_secret"); got != "client-secret" {
		t.Errorf("client_secret = %q", got)
	}
	if got := form.Get("redirect_uri"); got != "https://connector.example.com/return" {
		t.Errorf("redirect_uri = %q", got)
	}

	if creds.AccessToken != "at_1" || creds.RefreshToken != "rt_1" {
		t.Fatalf("credentials = %+v", creds)
	}
	wantExpiry := flexTestNow.Add(7200 * time.Second)
	if !creds.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at = %v, want %v", creds.ExpiresAt, wantExpiry)
	}
}

func TestExchangeCodeRequiresCode(t *testing.T) {
	client := newTestClient(t, &stubDoer{})
	if _, err := client.ExchangeCode(context.Background(), "  "); err == nil {
		t.Fatal("expected empty code to fail")
	}
}

func TestRefreshGrantSendsRefreshToken(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"access_token": "at_2",
		"refresh_token": "rt_2",
		"expires_in": 3600
	}`)}}
	client := newTestClient(t, doer)

	if _, err := client.RefreshGrant(context.Background(), "rt_1"); err != nil {
		t.Fatalf("refresh grant: %v", err)
	}

	form, parseErr := url.ParseQuery(doer.last(t).Body)
	if parseErr != nil {
		t.Fatalf("parse form body: %v", parseErr)
	}
	if got := form.Get("grant_type"); got != "refresh_token" {
		t.Errorf("grant_type = %q", got)
	}
	if got := form.Get("refresh_token"); got != "rt_1" {
		t.Errorf("refresh_token = %q", got)
	}
}

func TestFetchTokenFormEncodedResponse(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{formResponse(
		http.StatusOK,
		"access_token=at_form&refresh_token=rt_form&expires_in=120",
	)}}
	client := newTestClient(t, doer)

	creds, err := client.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}
	if creds.AccessToken != "at_form" || creds.RefreshToken != "rt_form" {
		t.Fatalf("credentials = %+v", creds)
	}
	if want := flexTestNow.Add(2 * time.Minute); !creds.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", creds.ExpiresAt, want)
	}
}

func TestFetchTokenMissingExpiryUsesDefaultTTL(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"access_token": "at_1",
		"refresh_token": "rt_1"
	}`)}}
	client := newTestClient(t, doer)

	creds, err := client.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}
	if want := flexTestNow.Add(defaultTokenTTL); !creds.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want default ttl %v", creds.ExpiresAt, want)
	}
}

func TestFetchTokenUpstreamError(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusBadRequest, `{
		"error": "invalid_grant",
		"error_description": "authorization code expired"
	}`)}}
	client := newTestClient(t, doer)

	_, err := client.ExchangeCode(context.Background(), "auth-code")
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if !strings.Contains(err.Error(), "token endpoint error") {
		t.Errorf("error %q should name the token endpoint", err)
	}
	if !strings.Contains(err.Error(), "authorization code expired") {
		t.Errorf("error %q should carry the upstream description", err)
	}
}

func TestFetchTokenErrorFieldOnSuccessStatus(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"error": "invalid_client"
	}`)}}
	client := newTestClient(t, doer)

	_, err := client.ExchangeCode(context.Background(), "auth-code")
	if err == nil || !strings.Contains(err.Error(), "invalid_client") {
		t.Fatalf("error = %v, want invalid_client surfaced", err)
	}
}

func TestFetchTokenMissingAccessToken(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"refresh_token": "rt_only"
	}`)}}
	client := newTestClient(t, doer)

	_, err := client.ExchangeCode(context.Background(), "auth-code")
	if err == nil || !strings.Contains(err.Error(), "missing access token") {
		t.Fatalf("error = %v, want missing access token", err)
	}
}

func TestAccountParsesOrganization(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"_id": "5b5b68eb74565a0e0000b068",
		"name": "Billrun Test",
		"slug": "billrun-test-miro"
	}`)}}
	client := newTestClient(t, doer)

	account, err := client.Account(context.Background(), "at_1", "billrun-test-miro")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.ID != "5b5b68eb74565a0e0000b068" {
		t.Errorf("id = %q", account.ID)
	}
	if account.Name != "Billrun Test" {
		t.Errorf("name = %q", account.Name)
	}
	if account.Slug != "billrun-test-miro" {
		t.Errorf("slug = %q", account.Slug)
	}

	req := doer.last(t)
	if req.Method != http.MethodGet {
		t.Errorf("method = %q, want GET", req.Method)
	}
	if wantPath := "/api/v1/organizations/billrun-test-miro"; req.URL.Path != wantPath {
		t.Errorf("path = %q, want %q", req.URL.Path, wantPath)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer at_1" {
		t.Errorf("authorization = %q", got)
	}
}

func TestAccountUpstreamError(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusInternalServerError, `{}`)}}
	client := newTestClient(t, doer)

	_, err := client.Account(context.Background(), "at_1", "acme")
	if err == nil || !strings.Contains(err.Error(), "account endpoint error (500)") {
		t.Fatalf("error = %v, want account endpoint error", err)
	}
}

func TestIntegrationExtractsSecret(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"_id": "int_1",
		"settings": {"secret": "262ff0ec-f9f8-4a72-82b2-b60360beab4a"}
	}`)}}
	client := newTestClient(t, doer)

	integration, err := client.Integration(context.Background(), "at_1", "acme", "int_1")
	if err != nil {
		t.Fatalf("integration: %v", err)
	}
	if !integration.SecretPresent {
		t.Fatal("expected secret present")
	}
	if integration.Secret != "262ff0ec-f9f8-4a72-82b2-b60360beab4a" {
		t.Fatalf("secret = %q", integration.Secret)
	}
	if wantPath := "/api/v1/organizations/acme/integrations/int_1"; doer.last(t).URL.Path != wantPath {
		t.Fatalf("path = %q, want %q", doer.last(t).URL.Path, wantPath)
	}
}

func TestIntegrationMissingSecretIsNotAnError(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusOK, `{
		"_id": "int_1",
		"settings": {}
	}`)}}
	client := newTestClient(t, doer)

	integration, err := client.Integration(context.Background(), "at_1", "acme", "int_1")
	if err != nil {
		t.Fatalf("integration: %v", err)
	}
	if integration.SecretPresent || integration.Secret != "" {
		t.Fatalf("integration = %+v, want absent secret", integration)
	}
}

func TestIntegrationUpstreamError(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{jsonResponse(http.StatusNotFound, `{}`)}}
	client := newTestClient(t, doer)

	_, err := client.Integration(context.Background(), "at_1", "acme", "int_1")
	if err == nil || !strings.Contains(err.Error(), "integration endpoint error (404)") {
		t.Fatalf("error = %v, want integration endpoint error", err)
	}
}

func TestParseTokenPayloadContentTypeFallback(t *testing.T) {
	payload, err := parseTokenPayload(
		[]byte("access_token=at&expires_in=60"),
		"",
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.AccessToken != "at" || payload.ExpiresIn != 60 {
		t.Fatalf("payload = %+v", payload)
	}
}
