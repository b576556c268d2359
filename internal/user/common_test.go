//go:build unit || integration

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-api/pkg/cerror"
)

const (
	TestUserId       = "0b8f4c84-9a43-4f3b-a0ad-6a8a9a1c2b10"
	TestAdminId      = "7d1e2f3a-4b5c-4d6e-8f90-a1b2c3d4e5f6"
	TestFullName     = "Test User"
	TestEmail        = "test@test.com"
	TestPassword     = "Abc123!@"
	TestNewPassword  = "Xyz789#$"
	TestWeakPassword = "abc12345"
)

func assertCustomError(t *testing.T, err error, status int, message string) *cerror.CustomError {
	t.Helper()

	var cerr *cerror.CustomError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, status, cerr.HttpStatusCode)
	assert.Equal(t, message, cerr.LogMessage)

	return cerr
}
