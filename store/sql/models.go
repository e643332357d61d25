package sqlstore

import (
	"time"

	"github.com/goliatone/go-flexconnect/core"
	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:flex_oauth_tokens,alias:ft"`

	ID                string     `bun:"id,pk"`
	AccessToken       string     `bun:"access_token,notnull"`
	RefreshToken      string     `bun:"refresh_token,notnull"`
	ExpiresAt         time.Time  `bun:"expires_at,notnull"`
	AccountSlug       string     `bun:"account_slug,notnull"`
	AccountID         string     `bun:"account_id"`
	AccountName       string     `bun:"account_name"`
	IntegrationID     string     `bun:"integration_id,notnull"`
	IntegrationSecret string     `bun:"integration_secret"`
	Locations         []string   `bun:"locations,type:jsonb,notnull"`
	SecretSyncedAt    *time.Time `bun:"secret_synced_at,nullzero"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newTokenRecord(in core.SaveTokenInput, now time.Time) *tokenRecord {
	locations := in.Locations
	if locations == nil {
		locations = []string{}
	}
	return &tokenRecord{
		AccessToken:   in.AccessToken,
		RefreshToken:  in.RefreshToken,
		ExpiresAt:     in.ExpiresAt.UTC(),
		AccountSlug:   in.AccountSlug,
		IntegrationID: in.IntegrationID,
		Locations:     locations,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (r *tokenRecord) toDomain() core.Token {
	if r == nil {
		return core.Token{}
	}
	var syncedAt *time.Time
	if r.SecretSyncedAt != nil {
		value := r.SecretSyncedAt.UTC()
		syncedAt = &value
	}
	return core.Token{
		ID:                r.ID,
		AccessToken:       r.AccessToken,
		RefreshToken:      r.RefreshToken,
		ExpiresAt:         r.ExpiresAt.UTC(),
		AccountSlug:       r.AccountSlug,
		AccountID:         r.AccountID,
		AccountName:       r.AccountName,
		IntegrationID:     r.IntegrationID,
		IntegrationSecret: r.IntegrationSecret,
		Locations:         append([]string(nil), r.Locations...),
		SecretSyncedAt:    syncedAt,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}
