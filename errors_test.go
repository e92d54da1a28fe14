package guard_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	guard "github.com/goliatone/go-route-guard"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      guard.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Wrapped token expired error",
			err:      fmt.Errorf("resolve: %w", guard.ErrTokenExpired),
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      guard.ErrSessionNotFound,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, guard.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, guard.IsMalformedError(guard.ErrTokenMalformed))
	assert.True(t, guard.IsMalformedError(errors.New("jwt: token is malformed")))
	assert.True(t, guard.IsMalformedError(fmt.Errorf("resolve: %w", guard.ErrTokenMalformed.Clone())))
	assert.False(t, guard.IsMalformedError(guard.ErrTokenExpired))
}

func TestErrorTextCodes(t *testing.T) {
	tests := []struct {
		err      *goerrors.Error
		textCode string
		category any
	}{
		{guard.ErrNoCredential, guard.TextCodeNoCredential, goerrors.CategoryAuth},
		{guard.ErrTokenExpired, guard.TextCodeTokenExpired, goerrors.CategoryAuth},
		{guard.ErrSessionNotFound, guard.TextCodeSessionNotFound, goerrors.CategoryAuth},
		{guard.ErrSessionStoreUnavailable, guard.TextCodeSessionUnavailable, goerrors.CategoryInternal},
		{guard.ErrInvalidConfig, guard.TextCodeInvalidConfig, goerrors.CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.Equal(t, tt.category, tt.err.Category)
		})
	}
}
