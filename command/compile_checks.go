package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ConnectIntegrationMessage] = (*ConnectIntegrationCommand)(nil)
	_ gocmd.Commander[RefreshCredentialsMessage] = (*RefreshCredentialsCommand)(nil)
)
