package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidIdentity = errors.New("core: invalid identity")

// Identity addresses one token record: the (accountSlug, integrationId) pair.
type Identity struct {
	AccountSlug   string
	IntegrationID string
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.AccountSlug) == "" {
		return fmt.Errorf("%w: account slug is required", ErrInvalidIdentity)
	}
	if strings.TrimSpace(i.IntegrationID) == "" {
		return fmt.Errorf("%w: integration id is required", ErrInvalidIdentity)
	}
	return nil
}

// Key returns a stable coalescing key for per-identity refresh single-flight.
func (i Identity) Key() string {
	return strings.TrimSpace(i.AccountSlug) + "\x00" + strings.TrimSpace(i.IntegrationID)
}

// SecretState tracks signature-readiness for one token. A token starts
// SecretPending; after the integration settings fetch it lands on
// SecretFetched or SecretAbsent and never returns to pending.
type SecretState string

const (
	SecretPending SecretState = "secret_pending"
	SecretFetched SecretState = "secret_fetched"
	SecretAbsent  SecretState = "secret_absent"
)

// Token is one OAuth grant for one (accountSlug, integrationId) pair.
// The store exclusively owns persistence; Service methods hold copies only
// for the duration of one operation.
type Token struct {
	ID                string
	AccessToken       string
	RefreshToken      string
	ExpiresAt         time.Time
	AccountSlug       string
	AccountID         string
	AccountName       string
	IntegrationID     string
	IntegrationSecret string
	Locations         []string
	SecretSyncedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t Token) Identity() Identity {
	return Identity{AccountSlug: t.AccountSlug, IntegrationID: t.IntegrationID}
}

// Expired compares against wall-clock time at the moment of use.
func (t Token) Expired(now time.Time) bool {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return !t.ExpiresAt.After(now.UTC())
}

func (t Token) SecretState() SecretState {
	if t.SecretSyncedAt == nil {
		return SecretPending
	}
	if strings.TrimSpace(t.IntegrationSecret) == "" {
		return SecretAbsent
	}
	return SecretFetched
}

// HasSecret reports whether signature verification can be performed against
// this token. An empty secret means fail closed, never "no verification".
func (t Token) HasSecret() bool {
	return t.SecretState() == SecretFetched
}

// Credentials is the triple minted by a token-endpoint grant. ExpiresAt is
// absolute, converted from the provider's expires_in at receipt time.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("core: credentials missing access token")
	}
	if strings.TrimSpace(c.RefreshToken) == "" {
		return fmt.Errorf("core: credentials missing refresh token")
	}
	return nil
}

// Account is the canonical identity returned by the remote account endpoint.
type Account struct {
	ID   string
	Name string
	Slug string
}

// Integration carries the fields extracted from the remote integration
// settings payload. Extra upstream fields are ignored; SecretPresent is false
// when the response had no settings.secret, which is a valid state.
type Integration struct {
	Secret        string
	SecretPresent bool
}

// ConnectionStatus is the Connection Checker result.
type ConnectionStatus struct {
	AccountName string
}
