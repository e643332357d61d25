package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-flexconnect/core"
)

var (
	_ gocmd.Querier[GetValidTokenMessage, core.Token]              = (*GetValidTokenQuery)(nil)
	_ gocmd.Querier[CheckConnectionMessage, core.ConnectionStatus] = (*CheckConnectionQuery)(nil)
)
