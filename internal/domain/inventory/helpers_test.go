package inventory

import (
	"errors"
	"testing"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertDomainErrorCode asserts that err is a DomainError with the given code
func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}
