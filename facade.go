package flexconnect

import (
	"fmt"

	flexcommand "github.com/goliatone/go-flexconnect/command"
	flexquery "github.com/goliatone/go-flexconnect/query"
)

// CommandQueryService is the surface the facade dispatches against.
// *core.Service satisfies it.
type CommandQueryService interface {
	flexcommand.MutatingService
	flexquery.TokenReader
	flexquery.ConnectionChecker
}

type Commands struct {
	ConnectIntegration *flexcommand.ConnectIntegrationCommand
	RefreshCredentials *flexcommand.RefreshCredentialsCommand
}

type Queries struct {
	GetValidToken   *flexquery.GetValidTokenQuery
	CheckConnection *flexquery.CheckConnectionQuery
}

// Facade bundles the command and query handlers over one service instance so
// hosts can register them with a dispatcher in a single pass.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("flexconnect: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			ConnectIntegration: flexcommand.NewConnectIntegrationCommand(service),
			RefreshCredentials: flexcommand.NewRefreshCredentialsCommand(service),
		},
		queries: Queries{
			GetValidToken:   flexquery.NewGetValidTokenQuery(service),
			CheckConnection: flexquery.NewCheckConnectionQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
