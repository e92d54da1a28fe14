package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Claims are the JWT claims carried by session tokens
type Claims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
}

// UserID returns the user ID
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// User builds the session record from the claims
func (c *Claims) User() *User {
	return &User{
		ID:       c.UserID(),
		Username: c.Name,
		Role:     c.UserRole,
	}
}

// TokenService signs and validates session tokens
type TokenService struct {
	signingKey []byte
	keyfunc    jwt.Keyfunc
	issuer     string
	audience   jwt.ClaimStrings
	ttl        time.Duration
	logger     Logger
}

var _ SessionResolver = (*TokenService)(nil)

// TokenOption configures a TokenService
type TokenOption func(*TokenService)

// WithIssuer sets the issuer written and required on tokens
func WithIssuer(issuer string) TokenOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// WithAudience sets the audience written and required on tokens
func WithAudience(audience ...string) TokenOption {
	return func(ts *TokenService) {
		ts.audience = audience
	}
}

// WithTokenTTL sets the token lifetime
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.ttl = ttl
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates an HS256 token service
func NewTokenService(signingKey []byte, opts ...TokenOption) *TokenService {
	ts := &TokenService{
		signingKey: signingKey,
		ttl:        24 * time.Hour,
		logger:     defLogger{},
	}
	ts.keyfunc = ts.hmacKey
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// NewJWKSTokenService creates a validate-only token service that verifies
// signatures against a remote JWKS. Call the returned stop function to end
// the background refresh.
func NewJWKSTokenService(jwksURL string, opts ...TokenOption) (*TokenService, func(), error) {
	ts := &TokenService{
		ttl:    24 * time.Hour,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			ts.logger.Error("jwks refresh failed", "url", jwksURL, "error", err)
		},
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to load JWKS").
			WithMetadata(map[string]any{"url": jwksURL})
	}

	ts.keyfunc = jwks.Keyfunc
	return ts, jwks.EndBackground, nil
}

// Sign issues a token for user
func (ts *TokenService) Sign(user *User) (string, error) {
	if len(ts.signingKey) == 0 {
		return "", ErrSigningDisabled
	}
	if user == nil || user.ID == "" {
		return "", errors.New("user with an ID is required", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID:      user.ID,
		UserRole: user.Role,
		Name:     user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}
	return signed, nil
}

// Validate parses and validates a token string
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, ts.keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		malformed := ErrTokenMalformed.Clone()
		if malformed == nil {
			return nil, ErrTokenMalformed
		}
		malformed.Source = err
		return nil, malformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode claims")
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Resolve validates the credential as a token and returns its user
func (ts *TokenService) Resolve(_ context.Context, credential string) (*User, error) {
	if credential == "" {
		return nil, ErrNoCredential
	}
	claims, err := ts.Validate(credential)
	if err != nil {
		return nil, err
	}
	return claims.User(), nil
}

func (ts *TokenService) hmacKey(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		ts.logger.Error("token service encountered unexpected signing method", "alg", t.Header["alg"])
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return ts.signingKey, nil
}
