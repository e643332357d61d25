package core

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// CheckConnection proves the stored link is usable end to end: a valid token
// must exist for the identity and its bearer credential must still be
// accepted by the account endpoint. Upstream rejection after a successful
// token read surfaces as a connection failure, not as a missing token.
func (s *Service) CheckConnection(ctx context.Context, accountSlug string, integrationID string) (status ConnectionStatus, err error) {
	startedAt := s.clock()
	defer func() {
		s.observeOperation(ctx, startedAt, "check_connection", err, map[string]any{
			"account_slug":   accountSlug,
			"integration_id": integrationID,
		})
	}()

	if s == nil || s.directory == nil {
		return ConnectionStatus{}, fmt.Errorf("core: directory api is required")
	}

	token, tokenErr := s.GetValidToken(ctx, accountSlug, integrationID)
	if tokenErr != nil {
		err = tokenErr
		return ConnectionStatus{}, err
	}

	account, fetchErr := s.directory.Account(ctx, token.AccessToken, token.AccountSlug)
	if fetchErr != nil {
		s.logError(ctx, "connection probe rejected upstream", map[string]any{
			"account_slug":   token.AccountSlug,
			"integration_id": token.IntegrationID,
			"upstream_error": fetchErr.Error(),
		})
		err = goerrors.New("core: connection check failed against account endpoint", goerrors.CategoryOperation).
			WithTextCode(ErrorConnectionFailed)
		err = s.mapError(err)
		return ConnectionStatus{}, err
	}

	return ConnectionStatus{AccountName: account.Name}, nil
}
