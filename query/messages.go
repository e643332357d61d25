package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetValidToken   = "flexconnect.query.token.get_valid"
	TypeCheckConnection = "flexconnect.query.connection.check"
)

type GetValidTokenMessage struct {
	AccountSlug   string
	IntegrationID string
}

func (GetValidTokenMessage) Type() string { return TypeGetValidToken }

func (m GetValidTokenMessage) Validate() error {
	if strings.TrimSpace(m.AccountSlug) == "" {
		return fmt.Errorf("query: account slug is required")
	}
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("query: integration id is required")
	}
	return nil
}

type CheckConnectionMessage struct {
	AccountSlug   string
	IntegrationID string
}

func (CheckConnectionMessage) Type() string { return TypeCheckConnection }

func (m CheckConnectionMessage) Validate() error {
	if strings.TrimSpace(m.AccountSlug) == "" {
		return fmt.Errorf("query: account slug is required")
	}
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("query: integration id is required")
	}
	return nil
}
