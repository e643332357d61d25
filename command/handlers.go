package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-flexconnect/core"
)

type MutatingService interface {
	ConnectIntegration(
		ctx context.Context,
		code string,
		accountSlug string,
		integrationID string,
		locations []string,
	) (core.Token, error)
	RefreshCredentials(ctx context.Context, refreshToken string) (core.Credentials, error)
}

type ConnectIntegrationCommand struct {
	service MutatingService
}

func NewConnectIntegrationCommand(service MutatingService) *ConnectIntegrationCommand {
	return &ConnectIntegrationCommand{service: service}
}

func (c *ConnectIntegrationCommand) Execute(ctx context.Context, msg ConnectIntegrationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.ConnectIntegration(ctx, msg.Code, msg.AccountSlug, msg.IntegrationID, msg.Locations)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCredentialsCommand struct {
	service MutatingService
}

func NewRefreshCredentialsCommand(service MutatingService) *RefreshCredentialsCommand {
	return &RefreshCredentialsCommand{service: service}
}

func (c *RefreshCredentialsCommand) Execute(ctx context.Context, msg RefreshCredentialsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	out, err := c.service.RefreshCredentials(ctx, msg.RefreshToken)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
