package core

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
)

// ExchangeCode posts an authorization_code grant and persists a new token
// record for the given identity. The upstream error body is retained in
// internal logs only; callers receive a generic exchange failure.
func (s *Service) ExchangeCode(
	ctx context.Context,
	code string,
	accountSlug string,
	integrationID string,
	locations []string,
) (token Token, err error) {
	startedAt := s.clock()
	defer func() {
		s.observeOperation(ctx, startedAt, "exchange_code", err, map[string]any{
			"account_slug":   accountSlug,
			"integration_id": integrationID,
		})
	}()

	if s == nil || s.tokenEndpoint == nil || s.tokenStore == nil {
		return Token{}, fmt.Errorf("core: token endpoint and token store are required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		err = s.mapError(fmt.Errorf("core: authorization code is required"))
		return Token{}, err
	}

	creds, exchangeErr := s.tokenEndpoint.ExchangeCode(ctx, code)
	if exchangeErr != nil {
		s.logError(ctx, "authorization code exchange rejected upstream", map[string]any{
			"account_slug":   accountSlug,
			"integration_id": integrationID,
			"upstream_error": exchangeErr.Error(),
		})
		err = goerrors.New("core: failed to exchange authorization code", goerrors.CategoryOperation).
			WithTextCode(ErrorUpstreamTokenError)
		err = s.mapError(err)
		return Token{}, err
	}
	if validateErr := creds.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return Token{}, err
	}

	token, err = s.tokenStore.Create(ctx, SaveTokenInput{
		AccessToken:   creds.AccessToken,
		RefreshToken:  creds.RefreshToken,
		ExpiresAt:     creds.ExpiresAt,
		AccountSlug:   strings.TrimSpace(accountSlug),
		IntegrationID: strings.TrimSpace(integrationID),
		Locations:     append([]string(nil), locations...),
	})
	if err != nil {
		err = s.mapError(err)
		return Token{}, err
	}
	return token, nil
}

// RefreshCredentials posts a refresh_token grant and returns the new triple
// without mutating the store. The caller decides whether and where to
// persist, so a lookup-triggered refresh can update the record it already
// holds instead of creating an ambiguous new one.
func (s *Service) RefreshCredentials(ctx context.Context, refreshToken string) (creds Credentials, err error) {
	startedAt := s.clock()
	defer func() {
		s.observeOperation(ctx, startedAt, "refresh_credentials", err, nil)
	}()

	if s == nil || s.tokenEndpoint == nil {
		return Credentials{}, fmt.Errorf("core: token endpoint is required")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		err = s.mapError(fmt.Errorf("core: refresh token is required"))
		return Credentials{}, err
	}

	creds, refreshErr := s.tokenEndpoint.RefreshGrant(ctx, refreshToken)
	if refreshErr != nil {
		s.logError(ctx, "refresh grant rejected upstream", map[string]any{
			"upstream_error": refreshErr.Error(),
		})
		err = goerrors.New("core: failed to refresh token", goerrors.CategoryOperation).
			WithTextCode(ErrorUpstreamTokenError)
		err = s.mapError(err)
		return Credentials{}, err
	}
	if validateErr := creds.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return Credentials{}, err
	}
	return creds, nil
}

// GetValidToken returns the latest token for the identity, refreshing it
// first when expired. The refreshed credentials are written back onto the
// same record; identity fields and locations are untouched. Refreshes for
// one identity are coalesced so concurrent expired reads share a single
// refresh grant.
func (s *Service) GetValidToken(ctx context.Context, accountSlug string, integrationID string) (token Token, err error) {
	startedAt := s.clock()
	defer func() {
		s.observeOperation(ctx, startedAt, "get_valid_token", err, map[string]any{
			"account_slug":   accountSlug,
			"integration_id": integrationID,
		})
	}()

	if s == nil || s.tokenStore == nil {
		return Token{}, fmt.Errorf("core: token store is required")
	}
	identity := Identity{AccountSlug: accountSlug, IntegrationID: integrationID}
	if validateErr := identity.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return Token{}, err
	}

	current, lookupErr := s.tokenStore.LatestByIdentity(ctx, identity.AccountSlug, identity.IntegrationID)
	if lookupErr != nil {
		err = s.mapError(lookupErr)
		return Token{}, err
	}
	if !current.Expired(s.clock()) {
		return current, nil
	}

	refreshed, refreshErr, _ := s.refreshGroup.Do(identity.Key(), func() (any, error) {
		// Re-read inside the flight: a coalesced loser arrives after the
		// winner already persisted fresh credentials.
		latest, readErr := s.tokenStore.LatestByIdentity(ctx, identity.AccountSlug, identity.IntegrationID)
		if readErr != nil {
			return Token{}, readErr
		}
		if !latest.Expired(s.clock()) {
			return latest, nil
		}
		creds, grantErr := s.RefreshCredentials(ctx, latest.RefreshToken)
		if grantErr != nil {
			return Token{}, grantErr
		}
		return s.tokenStore.UpdateCredentials(ctx, latest.ID, UpdateCredentialsInput{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			ExpiresAt:    creds.ExpiresAt,
		})
	})
	if refreshErr != nil {
		err = s.mapError(refreshErr)
		return Token{}, err
	}
	token, ok := refreshed.(Token)
	if !ok {
		err = s.mapError(fmt.Errorf("core: unexpected refresh result type %T", refreshed))
		return Token{}, err
	}
	return token, nil
}

// FetchAndStoreIntegrationDetails fetches the account identity and the
// integration settings concurrently with the token's bearer credential, then
// writes the secret and account fields onto the token record. A response
// without settings.secret is a valid state: the record is marked synced with
// no secret and no error is raised.
func (s *Service) FetchAndStoreIntegrationDetails(ctx context.Context, token Token) (err error) {
	startedAt := s.clock()
	defer func() {
		s.observeOperation(ctx, startedAt, "fetch_integration_details", err, map[string]any{
			"account_slug":   token.AccountSlug,
			"integration_id": token.IntegrationID,
		})
	}()

	if s == nil || s.directory == nil || s.tokenStore == nil {
		return fmt.Errorf("core: directory api and token store are required")
	}
	identity := token.Identity()
	if validateErr := identity.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return err
	}

	var (
		account     Account
		integration Integration
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, fetchErr := s.directory.Account(groupCtx, token.AccessToken, identity.AccountSlug)
		if fetchErr != nil {
			return fetchErr
		}
		account = fetched
		return nil
	})
	group.Go(func() error {
		fetched, fetchErr := s.directory.Integration(groupCtx, token.AccessToken, identity.AccountSlug, identity.IntegrationID)
		if fetchErr != nil {
			return fetchErr
		}
		integration = fetched
		return nil
	})
	if waitErr := group.Wait(); waitErr != nil {
		err = s.mapError(waitErr)
		return err
	}

	if !integration.SecretPresent {
		s.logInfo(ctx, "integration has no configured secret", map[string]any{
			"account_slug":   identity.AccountSlug,
			"integration_id": identity.IntegrationID,
		})
	}
	_, updateErr := s.tokenStore.UpdateIntegrationDetails(ctx, token.ID, UpdateIntegrationDetailsInput{
		Secret:        integration.Secret,
		SecretPresent: integration.SecretPresent,
		AccountID:     account.ID,
		AccountName:   account.Name,
	})
	if updateErr != nil {
		err = s.mapError(updateErr)
		return err
	}
	return nil
}

// ConnectIntegration is the callback-flow composition: exchange the code,
// then enrich the new token with account identity and the integration
// secret. Both identity parts are required since a token cannot be addressed
// without them.
func (s *Service) ConnectIntegration(
	ctx context.Context,
	code string,
	accountSlug string,
	integrationID string,
	locations []string,
) (token Token, err error) {
	startedAt := s.clock()
	defer func() {
		s.observeOperation(ctx, startedAt, "connect_integration", err, map[string]any{
			"account_slug":   accountSlug,
			"integration_id": integrationID,
		})
	}()

	identity := Identity{AccountSlug: accountSlug, IntegrationID: integrationID}
	if validateErr := identity.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return Token{}, err
	}

	created, exchangeErr := s.ExchangeCode(ctx, code, identity.AccountSlug, identity.IntegrationID, locations)
	if exchangeErr != nil {
		err = exchangeErr
		return Token{}, err
	}
	if detailsErr := s.FetchAndStoreIntegrationDetails(ctx, created); detailsErr != nil {
		err = detailsErr
		return Token{}, err
	}

	token, err = s.tokenStore.LatestByIdentity(ctx, identity.AccountSlug, identity.IntegrationID)
	if err != nil {
		err = s.mapError(err)
		return Token{}, err
	}
	return token, nil
}

// CallbackRedirectURL is where the collaborator sends the browser after a
// successful callback completion.
func (s *Service) CallbackRedirectURL() string {
	if s == nil {
		return ""
	}
	return strings.TrimRight(s.config.Flex.RootURL, "/") + "/connect/external-integration/return"
}
