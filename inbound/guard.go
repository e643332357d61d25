package inbound

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-flexconnect/core"
	"github.com/goliatone/go-flexconnect/signature"
	glog "github.com/goliatone/go-logger/glog"
)

// payloadKeys is the agreed wire order for signed platform queries. Every key
// participates in the canonical payload even when the query omits it, so an
// absent parameter signs as an empty string.
var payloadKeys = [...]string{"slug", "locations", "organizationId", "memberId"}

// SignatureParam carries the `t=<ts>,signature=<hex>` value and is excluded
// from the canonical payload.
const SignatureParam = "signature"

type GuardConfig struct {
	Service *core.Service
	Tokens  core.TokenStore
	MaxAge  time.Duration
	Now     func() time.Time
	Logger  glog.Logger
}

// Guard authenticates inbound platform queries. Every internal failure kind,
// whether a missing token, an unfetched secret, or any signature defect,
// leaves the Guard as the same uniform rejection so a sender cannot probe
// which check failed.
type Guard struct {
	service  *core.Service
	tokens   core.TokenStore
	verifier signature.Verifier
	logger   glog.Logger
}

func NewGuard(cfg GuardConfig) (*Guard, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("inbound: service is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("inbound: token store is required")
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		// The service's resolved signature config drives the replay window
		// unless the host overrides it explicitly.
		if seconds := cfg.Service.Config().Signature.MaxAgeSeconds; seconds > 0 {
			maxAge = time.Duration(seconds) * time.Second
		} else {
			maxAge = signature.DefaultMaxAge
		}
	}
	return &Guard{
		service:  cfg.Service,
		tokens:   cfg.Tokens,
		verifier: signature.Verifier{MaxAge: maxAge, Now: cfg.Now},
		logger:   glog.Ensure(cfg.Logger),
	}, nil
}

// Authorize verifies the signed query and returns the token whose integration
// secret validated it. The token is resolved by account slug; a token without
// a fetched secret fails closed.
func (g *Guard) Authorize(ctx context.Context, query url.Values) (core.Token, error) {
	if g == nil {
		return core.Token{}, fmt.Errorf("inbound: guard is nil")
	}

	slug := strings.TrimSpace(query.Get("slug"))
	if slug == "" {
		return core.Token{}, g.reject(ctx, "missing_slug", "", nil)
	}

	token, err := g.tokens.LatestBySlug(ctx, slug)
	if err != nil {
		return core.Token{}, g.reject(ctx, "token_lookup", slug, err)
	}
	if !token.HasSecret() {
		return core.Token{}, g.reject(ctx, "secret_"+string(token.SecretState()), slug, nil)
	}

	if err := g.verifier.Verify(PayloadFromQuery(query), query.Get(SignatureParam), token.IntegrationSecret); err != nil {
		return core.Token{}, g.reject(ctx, rejectionKind(err), slug, err)
	}
	return token, nil
}

// Check answers the platform's connectivity probe: signature first, then an
// end-to-end connection check with the token's own identity.
func (g *Guard) Check(ctx context.Context, query url.Values) (core.ConnectionStatus, error) {
	token, err := g.Authorize(ctx, query)
	if err != nil {
		return core.ConnectionStatus{}, err
	}
	return g.service.CheckConnection(ctx, token.AccountSlug, token.IntegrationID)
}

// Configure verifies the signed configure request and returns the relative
// redirect target for the account's configuration page. A valid token must
// exist; an expired one is refreshed on the way.
func (g *Guard) Configure(ctx context.Context, query url.Values) (string, error) {
	token, err := g.Authorize(ctx, query)
	if err != nil {
		return "", err
	}
	if _, err := g.service.GetValidToken(ctx, token.AccountSlug, token.IntegrationID); err != nil {
		return "", err
	}
	return "/" + token.AccountSlug, nil
}

// PayloadFromQuery reconstructs the canonical signing payload from the query
// parameters, in wire order, signature excluded.
func PayloadFromQuery(query url.Values) *signature.Fields {
	fields := signature.NewFields()
	for _, key := range payloadKeys {
		fields.Set(key, query.Get(key))
	}
	return fields
}

func (g *Guard) reject(ctx context.Context, kind string, slug string, cause error) error {
	logger := g.logger
	if ctx != nil && logger != nil {
		logger = logger.WithContext(ctx)
	}
	if logger != nil {
		args := []any{"kind", kind}
		if slug != "" {
			args = append(args, "account_slug", slug)
		}
		if cause != nil {
			args = append(args, "cause", cause.Error())
		}
		logger.Warn("inbound request rejected", args...)
	}
	return rejectionError()
}

func rejectionKind(err error) string {
	switch {
	case err == nil:
		return ""
	case isKind(err, signature.ErrSignatureMissing):
		return "signature_missing"
	case isKind(err, signature.ErrSignatureMalformed):
		return "signature_malformed"
	case isKind(err, signature.ErrSignatureExpired):
		return "signature_expired"
	case isKind(err, signature.ErrSignatureMismatch):
		return "signature_mismatch"
	default:
		return "verification_error"
	}
}
