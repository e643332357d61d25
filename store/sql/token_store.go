package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-flexconnect/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// TokenStore persists OAuth token records in flex_oauth_tokens. The latest
// record per identity is the one with the newest expiry; history is retained.
type TokenStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
	now  func() time.Time
}

func (s *TokenStore) Create(ctx context.Context, in core.SaveTokenInput) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	in.AccessToken = strings.TrimSpace(in.AccessToken)
	in.RefreshToken = strings.TrimSpace(in.RefreshToken)
	in.AccountSlug = strings.TrimSpace(in.AccountSlug)
	in.IntegrationID = strings.TrimSpace(in.IntegrationID)
	if in.AccessToken == "" || in.RefreshToken == "" {
		return core.Token{}, fmt.Errorf("sqlstore: access token and refresh token are required")
	}
	if in.ExpiresAt.IsZero() {
		return core.Token{}, fmt.Errorf("sqlstore: token expiry is required")
	}

	record := newTokenRecord(in, s.clock())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Token{}, err
	}
	return created.toDomain(), nil
}

func (s *TokenStore) LatestByIdentity(ctx context.Context, accountSlug string, integrationID string) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	accountSlug = strings.TrimSpace(accountSlug)
	integrationID = strings.TrimSpace(integrationID)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("account_slug", "=", accountSlug),
		repository.SelectBy("integration_id", "=", integrationID),
		repository.OrderBy("expires_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Token{}, err
	}
	if len(records) == 0 {
		return core.Token{}, fmt.Errorf(
			"sqlstore: token not found for account %q integration %q", accountSlug, integrationID,
		)
	}
	return records[0].toDomain(), nil
}

func (s *TokenStore) LatestBySlug(ctx context.Context, accountSlug string) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	accountSlug = strings.TrimSpace(accountSlug)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("account_slug", "=", accountSlug),
		repository.OrderBy("expires_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Token{}, err
	}
	if len(records) == 0 {
		return core.Token{}, fmt.Errorf("sqlstore: token not found for account %q", accountSlug)
	}
	return records[0].toDomain(), nil
}

// UpdateCredentials replaces the credential triple on an existing record.
// Identity fields and locations are untouched.
func (s *TokenStore) UpdateCredentials(ctx context.Context, id string, in core.UpdateCredentialsInput) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Token{}, fmt.Errorf("sqlstore: token id is required")
	}
	in.AccessToken = strings.TrimSpace(in.AccessToken)
	in.RefreshToken = strings.TrimSpace(in.RefreshToken)
	if in.AccessToken == "" || in.RefreshToken == "" {
		return core.Token{}, fmt.Errorf("sqlstore: access token and refresh token are required")
	}

	current, err := s.getByID(ctx, trimmedID)
	if err != nil {
		return core.Token{}, err
	}
	current.AccessToken = in.AccessToken
	current.RefreshToken = in.RefreshToken
	current.ExpiresAt = in.ExpiresAt.UTC()
	current.UpdatedAt = s.clock()

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(trimmedID))
	if err != nil {
		return core.Token{}, err
	}
	return updated.toDomain(), nil
}

// UpdateIntegrationDetails marks the record synced and writes the account
// identity. The secret column changes only when the platform reported one,
// so a synced record with an empty secret is a terminal secret-absent state.
func (s *TokenStore) UpdateIntegrationDetails(ctx context.Context, id string, in core.UpdateIntegrationDetailsInput) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Token{}, fmt.Errorf("sqlstore: token id is required")
	}

	current, err := s.getByID(ctx, trimmedID)
	if err != nil {
		return core.Token{}, err
	}
	now := s.clock()
	if in.SecretPresent {
		current.IntegrationSecret = strings.TrimSpace(in.Secret)
	}
	if accountID := strings.TrimSpace(in.AccountID); accountID != "" {
		current.AccountID = accountID
	}
	if accountName := strings.TrimSpace(in.AccountName); accountName != "" {
		current.AccountName = accountName
	}
	current.SecretSyncedAt = &now
	current.UpdatedAt = now

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(trimmedID))
	if err != nil {
		return core.Token{}, err
	}
	return updated.toDomain(), nil
}

func (s *TokenStore) getByID(ctx context.Context, id string) (*tokenRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no rows") {
			return nil, fmt.Errorf("sqlstore: token not found for id %q", id)
		}
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("sqlstore: token not found for id %q", id)
	}
	return record, nil
}

func (s *TokenStore) clock() time.Time {
	if s != nil && s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

var _ core.TokenStore = (*TokenStore)(nil)
