package query

import (
	"context"

	"github.com/goliatone/go-flexconnect/core"
)

type TokenReader interface {
	GetValidToken(ctx context.Context, accountSlug string, integrationID string) (core.Token, error)
}

type ConnectionChecker interface {
	CheckConnection(ctx context.Context, accountSlug string, integrationID string) (core.ConnectionStatus, error)
}

type GetValidTokenQuery struct {
	reader TokenReader
}

func NewGetValidTokenQuery(reader TokenReader) *GetValidTokenQuery {
	return &GetValidTokenQuery{reader: reader}
}

func (q *GetValidTokenQuery) Query(ctx context.Context, msg GetValidTokenMessage) (core.Token, error) {
	if q == nil || q.reader == nil {
		return core.Token{}, queryDependencyError("query: token reader is required")
	}
	return q.reader.GetValidToken(ctx, msg.AccountSlug, msg.IntegrationID)
}

type CheckConnectionQuery struct {
	checker ConnectionChecker
}

func NewCheckConnectionQuery(checker ConnectionChecker) *CheckConnectionQuery {
	return &CheckConnectionQuery{checker: checker}
}

func (q *CheckConnectionQuery) Query(ctx context.Context, msg CheckConnectionMessage) (core.ConnectionStatus, error) {
	if q == nil || q.checker == nil {
		return core.ConnectionStatus{}, queryDependencyError("query: connection checker is required")
	}
	return q.checker.CheckConnection(ctx, msg.AccountSlug, msg.IntegrationID)
}
