package guard

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeNoCredential       = "guard_no_credential"
	TextCodeTokenExpired       = "guard_token_expired"
	TextCodeTokenMalformed     = "guard_token_malformed"
	TextCodeSigningDisabled    = "guard_signing_disabled"
	TextCodeSessionNotFound    = "guard_session_not_found"
	TextCodeSessionUnavailable = "guard_session_store_unavailable"
	TextCodeResolverRequired   = "guard_resolver_required"
	TextCodeInvalidConfig      = "guard_invalid_config"
	TextCodeUnparsableUser     = "guard_unparsable_user"
)

// ErrNoCredential is returned when a request carries no session credential.
var ErrNoCredential = errors.New("missing session credential", errors.CategoryAuth).
	WithTextCode(TextCodeNoCredential).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for expired session tokens.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrSigningDisabled is returned by validate-only token services.
var ErrSigningDisabled = errors.New("token signing is not configured", errors.CategoryInternal).
	WithTextCode(TextCodeSigningDisabled).
	WithCode(errors.CodeInternal)

// ErrSessionNotFound is returned when a session id has no stored session.
var ErrSessionNotFound = errors.New("session not found", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrSessionStoreUnavailable is returned when the session backend fails.
var ErrSessionStoreUnavailable = errors.New("session store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeSessionUnavailable).
	WithCode(errors.CodeInternal)

// ErrResolverRequired is returned when a guard has no way to resolve sessions.
var ErrResolverRequired = errors.New("session resolver is required", errors.CategoryInternal).
	WithTextCode(TextCodeResolverRequired).
	WithCode(errors.CodeInternal)

// ErrInvalidConfig wraps configuration validation failures.
var ErrInvalidConfig = errors.New("invalid guard configuration", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(errors.CodeBadRequest)

// ErrUnableToParseUser is returned when a user record cannot be read.
var ErrUnableToParseUser = errors.New("unable to parse user", errors.CategoryBadInput).
	WithTextCode(TextCodeUnparsableUser).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) || hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) || hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == code
}
