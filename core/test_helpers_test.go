package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTokenStore struct {
	mu      sync.Mutex
	records map[string]Token
	seq     int

	createCalls        int
	updateCredCalls    int
	updateDetailsCalls int
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{records: map[string]Token{}}
}

func (s *fakeTokenStore) Create(_ context.Context, in SaveTokenInput) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	s.seq++
	token := Token{
		ID:            fmt.Sprintf("tok_%d", s.seq),
		AccessToken:   in.AccessToken,
		RefreshToken:  in.RefreshToken,
		ExpiresAt:     in.ExpiresAt,
		AccountSlug:   in.AccountSlug,
		IntegrationID: in.IntegrationID,
		Locations:     append([]string(nil), in.Locations...),
	}
	s.records[token.ID] = token
	return token, nil
}

func (s *fakeTokenStore) LatestByIdentity(_ context.Context, accountSlug string, integrationID string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest Token
	found := false
	for _, token := range s.records {
		if token.AccountSlug != accountSlug || token.IntegrationID != integrationID {
			continue
		}
		if !found || token.ExpiresAt.After(latest.ExpiresAt) {
			latest = token
			found = true
		}
	}
	if !found {
		return Token{}, fmt.Errorf(
			"fake: token not found for account %q integration %q", accountSlug, integrationID,
		)
	}
	return latest, nil
}

func (s *fakeTokenStore) LatestBySlug(_ context.Context, accountSlug string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest Token
	found := false
	for _, token := range s.records {
		if token.AccountSlug != accountSlug {
			continue
		}
		if !found || token.ExpiresAt.After(latest.ExpiresAt) {
			latest = token
			found = true
		}
	}
	if !found {
		return Token{}, fmt.Errorf("fake: token not found for account %q", accountSlug)
	}
	return latest, nil
}

func (s *fakeTokenStore) UpdateCredentials(_ context.Context, id string, in UpdateCredentialsInput) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCredCalls++
	token, ok := s.records[id]
	if !ok {
		return Token{}, fmt.Errorf("fake: token not found for id %q", id)
	}
	token.AccessToken = in.AccessToken
	token.RefreshToken = in.RefreshToken
	token.ExpiresAt = in.ExpiresAt
	s.records[id] = token
	return token, nil
}

func (s *fakeTokenStore) UpdateIntegrationDetails(_ context.Context, id string, in UpdateIntegrationDetailsInput) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateDetailsCalls++
	token, ok := s.records[id]
	if !ok {
		return Token{}, fmt.Errorf("fake: token not found for id %q", id)
	}
	if in.SecretPresent {
		token.IntegrationSecret = strings.TrimSpace(in.Secret)
	}
	if in.AccountID != "" {
		token.AccountID = in.AccountID
	}
	if in.AccountName != "" {
		token.AccountName = in.AccountName
	}
	syncedAt := time.Now().UTC()
	token.SecretSyncedAt = &syncedAt
	s.records[id] = token
	return token, nil
}

func (s *fakeTokenStore) get(id string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.records[id]
	return token, ok
}

func (s *fakeTokenStore) put(token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token.ID == "" {
		s.seq++
		token.ID = fmt.Sprintf("tok_%d", s.seq)
	}
	s.records[token.ID] = token
}

type fakeTokenEndpoint struct {
	mu sync.Mutex

	exchangeCreds Credentials
	exchangeErr   error
	exchangeCalls int

	refreshCreds Credentials
	refreshErr   error
	refreshCalls int
	refreshDelay time.Duration
}

func (e *fakeTokenEndpoint) ExchangeCode(context.Context, string) (Credentials, error) {
	e.mu.Lock()
	e.exchangeCalls++
	creds, err := e.exchangeCreds, e.exchangeErr
	e.mu.Unlock()
	return creds, err
}

func (e *fakeTokenEndpoint) RefreshGrant(context.Context, string) (Credentials, error) {
	e.mu.Lock()
	e.refreshCalls++
	creds, err, delay := e.refreshCreds, e.refreshErr, e.refreshDelay
	e.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return creds, err
}

func (e *fakeTokenEndpoint) counts() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exchangeCalls, e.refreshCalls
}

type fakeDirectory struct {
	mu sync.Mutex

	account    Account
	accountErr error

	integration    Integration
	integrationErr error

	accountCalls     int
	integrationCalls int
}

func (d *fakeDirectory) Account(context.Context, string, string) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accountCalls++
	return d.account, d.accountErr
}

func (d *fakeDirectory) Integration(context.Context, string, string, string) (Integration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.integrationCalls++
	return d.integration, d.integrationErr
}

func newTestService(t *testing.T, now time.Time, opts ...Option) *Service {
	t.Helper()
	base := []Option{WithClock(func() time.Time { return now })}
	service, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}
