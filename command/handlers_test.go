package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-flexconnect/core"
)

type stubMutatingService struct {
	connectFn func(ctx context.Context, code string, accountSlug string, integrationID string, locations []string) (core.Token, error)
	refreshFn func(ctx context.Context, refreshToken string) (core.Credentials, error)
}

func (s stubMutatingService) ConnectIntegration(ctx context.Context, code string, accountSlug string, integrationID string, locations []string) (core.Token, error) {
	if s.connectFn == nil {
		return core.Token{}, fmt.Errorf("connect not stubbed")
	}
	return s.connectFn(ctx, code, accountSlug, integrationID, locations)
}

func (s stubMutatingService) RefreshCredentials(ctx context.Context, refreshToken string) (core.Credentials, error) {
	if s.refreshFn == nil {
		return core.Credentials{}, fmt.Errorf("refresh not stubbed")
	}
	return s.refreshFn(ctx, refreshToken)
}

func TestConnectIntegrationCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.Token{ID: "tok_1", AccountSlug: "acme", IntegrationID: "int_1"}
	called := false

	svc := stubMutatingService{
		connectFn: func(_ context.Context, code string, accountSlug string, integrationID string, locations []string) (core.Token, error) {
			called = true
			if code != "auth-code" || accountSlug != "acme" || integrationID != "int_1" {
				t.Fatalf("unexpected connect payload: %q %q %q", code, accountSlug, integrationID)
			}
			if len(locations) != 1 || locations[0] != "loc_1" {
				t.Fatalf("unexpected locations: %v", locations)
			}
			return expected, nil
		},
	}

	cmd := NewConnectIntegrationCommand(svc)
	collector := gocmd.NewResult[core.Token]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, ConnectIntegrationMessage{
		Code:          "auth-code",
		AccountSlug:   "acme",
		IntegrationID: "int_1",
		Locations:     []string{"loc_1"},
	})
	if err != nil {
		t.Fatalf("execute connect integration: %v", err)
	}
	if !called {
		t.Fatalf("expected connect service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.ID != expected.ID || result.AccountSlug != expected.AccountSlug {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestRefreshCredentialsCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.Credentials{
		AccessToken:  "at_new",
		RefreshToken: "rt_new",
		ExpiresAt:    time.Date(2025, time.May, 26, 10, 0, 0, 0, time.UTC),
	}
	called := false

	svc := stubMutatingService{
		refreshFn: func(_ context.Context, refreshToken string) (core.Credentials, error) {
			called = true
			if refreshToken != "rt_old" {
				t.Fatalf("unexpected refresh token %q", refreshToken)
			}
			return expected, nil
		},
	}

	cmd := NewRefreshCredentialsCommand(svc)
	collector := gocmd.NewResult[core.Credentials]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, RefreshCredentialsMessage{RefreshToken: "rt_old"}); err != nil {
		t.Fatalf("execute refresh credentials: %v", err)
	}
	if !called {
		t.Fatalf("expected refresh service invocation")
	}
	stored, ok := collector.Load()
	if !ok {
		t.Fatalf("expected credentials result")
	}
	if stored.AccessToken != expected.AccessToken {
		t.Fatalf("unexpected result: %#v", stored)
	}
}

func TestCommands_PropagateServiceErrors(t *testing.T) {
	wantErr := fmt.Errorf("upstream rejected the grant")
	svc := stubMutatingService{
		connectFn: func(context.Context, string, string, string, []string) (core.Token, error) {
			return core.Token{}, wantErr
		},
		refreshFn: func(context.Context, string) (core.Credentials, error) {
			return core.Credentials{}, wantErr
		},
	}

	if err := NewConnectIntegrationCommand(svc).Execute(context.Background(), ConnectIntegrationMessage{
		Code: "c", AccountSlug: "a", IntegrationID: "i",
	}); err == nil {
		t.Fatalf("expected connect error")
	}
	if err := NewRefreshCredentialsCommand(svc).Execute(context.Background(), RefreshCredentialsMessage{
		RefreshToken: "rt",
	}); err == nil {
		t.Fatalf("expected refresh error")
	}
}

func TestCommands_RequireService(t *testing.T) {
	var connect *ConnectIntegrationCommand
	if err := connect.Execute(context.Background(), ConnectIntegrationMessage{}); err == nil {
		t.Fatalf("expected nil handler to fail")
	}
	if err := NewRefreshCredentialsCommand(nil).Execute(context.Background(), RefreshCredentialsMessage{}); err == nil {
		t.Fatalf("expected missing service to fail")
	}
}

func TestMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{
			name: "valid connect",
			msg: ConnectIntegrationMessage{
				Code: "c", AccountSlug: "acme", IntegrationID: "int_1",
			},
		},
		{
			name:    "connect missing code",
			msg:     ConnectIntegrationMessage{AccountSlug: "acme", IntegrationID: "int_1"},
			wantErr: true,
		},
		{
			name:    "connect missing slug",
			msg:     ConnectIntegrationMessage{Code: "c", IntegrationID: "int_1"},
			wantErr: true,
		},
		{
			name:    "connect missing integration",
			msg:     ConnectIntegrationMessage{Code: "c", AccountSlug: "acme"},
			wantErr: true,
		},
		{
			name: "valid refresh",
			msg:  RefreshCredentialsMessage{RefreshToken: "rt"},
		},
		{
			name:    "refresh missing token",
			msg:     RefreshCredentialsMessage{RefreshToken: "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageTypes(t *testing.T) {
	if got := (ConnectIntegrationMessage{}).Type(); got != TypeConnectIntegration {
		t.Fatalf("connect type = %q", got)
	}
	if got := (RefreshCredentialsMessage{}).Type(); got != TypeRefreshCredentials {
		t.Fatalf("refresh type = %q", got)
	}
}
