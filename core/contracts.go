package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// SaveTokenInput creates a new token record after a successful
// authorization-code exchange.
type SaveTokenInput struct {
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
	AccountSlug   string
	IntegrationID string
	Locations     []string
}

// UpdateCredentialsInput replaces the credential triple on an existing record.
type UpdateCredentialsInput struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// UpdateIntegrationDetailsInput enriches a record with the integration secret
// and canonical account identity. SecretPresent false still marks the record
// as synced so the secret state becomes terminal.
type UpdateIntegrationDetailsInput struct {
	Secret        string
	SecretPresent bool
	AccountID     string
	AccountName   string
}

// TokenStore persists tokens keyed by identity pair. There is no delete
// operation; deletion is an external administrative action. Implementations
// must support concurrent readers and whole-record writes.
type TokenStore interface {
	Create(ctx context.Context, in SaveTokenInput) (Token, error)
	LatestByIdentity(ctx context.Context, accountSlug string, integrationID string) (Token, error)
	LatestBySlug(ctx context.Context, accountSlug string) (Token, error)
	UpdateCredentials(ctx context.Context, id string, in UpdateCredentialsInput) (Token, error)
	UpdateIntegrationDetails(ctx context.Context, id string, in UpdateIntegrationDetailsInput) (Token, error)
}

// TokenEndpoint issues grants against the remote OAuth token endpoint.
type TokenEndpoint interface {
	ExchangeCode(ctx context.Context, code string) (Credentials, error)
	RefreshGrant(ctx context.Context, refreshToken string) (Credentials, error)
}

// DirectoryAPI reads the remote account and integration resources with a
// bearer credential.
type DirectoryAPI interface {
	Account(ctx context.Context, accessToken string, accountSlug string) (Account, error)
	Integration(ctx context.Context, accessToken string, accountSlug string, integrationID string) (Integration, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
