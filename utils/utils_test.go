package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.NoError(t, CheckPassword(hash, "admin123"))
	assert.Error(t, CheckPassword(hash, "wrong-password"))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestErrorWithTrace(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := ErrorWithTrace(base, "connecting to database")

	require.Error(t, wrapped)
	assert.True(t, strings.Contains(wrapped.Error(), "connection refused"))
	assert.True(t, strings.Contains(wrapped.Error(), "connecting to database"))
	assert.True(t, strings.Contains(wrapped.Error(), "utils_test.go"))

	assert.NoError(t, ErrorWithTrace(nil, "ignored"))
}
