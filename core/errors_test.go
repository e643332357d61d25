package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestFlexErrorMapper(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category goerrors.Category
		code     int
		textCode string
	}{
		{
			name:     "token endpoint failure",
			err:      errors.New("flex: token endpoint error (invalid_grant)"),
			category: goerrors.CategoryOperation,
			code:     http.StatusBadGateway,
			textCode: ErrorUpstreamTokenError,
		},
		{
			name:     "account endpoint failure",
			err:      errors.New("flex: account endpoint error (500)"),
			category: goerrors.CategoryOperation,
			code:     http.StatusBadGateway,
			textCode: ErrorUpstreamAPIError,
		},
		{
			name:     "integration endpoint failure",
			err:      errors.New("flex: integration endpoint error (404)"),
			category: goerrors.CategoryOperation,
			code:     http.StatusBadGateway,
			textCode: ErrorUpstreamAPIError,
		},
		{
			name:     "store miss",
			err:      errors.New("sqlstore: token not found for account \"acme\""),
			category: goerrors.CategoryNotFound,
			code:     http.StatusNotFound,
			textCode: ErrorTokenNotFound,
		},
		{
			name:     "signature failure",
			err:      errors.New("signature: signature mismatch"),
			category: goerrors.CategoryAuth,
			code:     http.StatusUnauthorized,
			textCode: ErrorRequestRejected,
		},
		{
			name:     "validation failure",
			err:      errors.New("core: account slug is required"),
			category: goerrors.CategoryBadInput,
			code:     http.StatusBadRequest,
			textCode: ErrorBadInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := flexErrorMapper(tt.err)
			if mapped == nil {
				t.Fatal("expected mapped error")
			}
			if mapped.Category != tt.category {
				t.Errorf("category = %q, want %q", mapped.Category, tt.category)
			}
			if mapped.Code != tt.code {
				t.Errorf("code = %d, want %d", mapped.Code, tt.code)
			}
			if mapped.TextCode != tt.textCode {
				t.Errorf("text code = %q, want %q", mapped.TextCode, tt.textCode)
			}
		})
	}
}

func TestFlexErrorMapperKeepsExistingEnvelope(t *testing.T) {
	original := goerrors.New("core: connection check failed against account endpoint", goerrors.CategoryOperation).
		WithTextCode(ErrorConnectionFailed)

	mapped := flexErrorMapper(original)
	if mapped.TextCode != ErrorConnectionFailed {
		t.Fatalf("text code = %q, want %q", mapped.TextCode, ErrorConnectionFailed)
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("code = %d, want %d", mapped.Code, http.StatusBadGateway)
	}
}

func TestFlexErrorMapperNil(t *testing.T) {
	if mapped := flexErrorMapper(nil); mapped != nil {
		t.Fatalf("expected nil, got %v", mapped)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(flexErrorMapper(errors.New("sqlstore: token not found for account \"acme\""))) {
		t.Fatal("mapped store miss should read as not found")
	}
	if IsNotFound(flexErrorMapper(errors.New("flex: token endpoint error (500)"))) {
		t.Fatal("upstream failure must not read as not found")
	}
	if IsNotFound(nil) {
		t.Fatal("nil error must not read as not found")
	}
}
