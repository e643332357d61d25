package inbound

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-flexconnect/core"
)

// rejectionError is the single outward failure shape for unauthenticated
// inbound requests. The internal cause is logged and never attached.
func rejectionError() error {
	return goerrors.New("inbound: request rejected", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.ErrorRequestRejected)
}

// IsRejection reports whether err is the uniform inbound rejection.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth && richErr.TextCode == core.ErrorRequestRejected
}

func isKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
