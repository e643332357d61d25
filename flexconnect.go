package flexconnect

import "github.com/goliatone/go-flexconnect/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Token = core.Token
type Credentials = core.Credentials
type Identity = core.Identity
type Account = core.Account
type Integration = core.Integration
type ConnectionStatus = core.ConnectionStatus
type TokenStore = core.TokenStore
type TokenEndpoint = core.TokenEndpoint
type DirectoryAPI = core.DirectoryAPI

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithTokenStore      = core.WithTokenStore
	WithTokenEndpoint   = core.WithTokenEndpoint
	WithDirectoryAPI    = core.WithDirectoryAPI
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
