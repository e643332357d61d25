package command

import (
	"fmt"
	"strings"
)

const (
	TypeConnectIntegration = "flexconnect.command.integration.connect"
	TypeRefreshCredentials = "flexconnect.command.credentials.refresh"
)

// ConnectIntegrationMessage carries the callback parameters for the full
// connect flow: code exchange plus account and secret enrichment.
type ConnectIntegrationMessage struct {
	Code          string
	AccountSlug   string
	IntegrationID string
	Locations     []string
}

func (ConnectIntegrationMessage) Type() string { return TypeConnectIntegration }

func (m ConnectIntegrationMessage) Validate() error {
	if strings.TrimSpace(m.Code) == "" {
		return fmt.Errorf("command: authorization code is required")
	}
	if strings.TrimSpace(m.AccountSlug) == "" {
		return fmt.Errorf("command: account slug is required")
	}
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("command: integration id is required")
	}
	return nil
}

type RefreshCredentialsMessage struct {
	RefreshToken string
}

func (RefreshCredentialsMessage) Type() string { return TypeRefreshCredentials }

func (m RefreshCredentialsMessage) Validate() error {
	if strings.TrimSpace(m.RefreshToken) == "" {
		return fmt.Errorf("command: refresh token is required")
	}
	return nil
}
