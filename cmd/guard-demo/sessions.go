package main

import (
	"context"
	"time"

	guard "github.com/goliatone/go-route-guard"
)

// sessionBackend issues the credential stored in the session cookie and
// resolves it back for the guards.
type sessionBackend interface {
	guard.SessionResolver
	Name() string
	Issue(ctx context.Context, user *guard.User, ttl time.Duration) (string, error)
	Revoke(ctx context.Context, credential string) error
}

type tokenBackend struct {
	tokens *guard.TokenService
}

func (b tokenBackend) Name() string {
	return "jwt"
}

func (b tokenBackend) Resolve(ctx context.Context, credential string) (*guard.User, error) {
	return b.tokens.Resolve(ctx, credential)
}

func (b tokenBackend) Issue(_ context.Context, user *guard.User, _ time.Duration) (string, error) {
	return b.tokens.Sign(user)
}

// Revoke is a no-op, signed tokens stay valid until they expire
func (b tokenBackend) Revoke(context.Context, string) error {
	return nil
}

type redisBackend struct {
	sessions *guard.RedisSessions
}

func (b redisBackend) Name() string {
	return "redis"
}

func (b redisBackend) Resolve(ctx context.Context, credential string) (*guard.User, error) {
	return b.sessions.Resolve(ctx, credential)
}

func (b redisBackend) Issue(ctx context.Context, user *guard.User, ttl time.Duration) (string, error) {
	return b.sessions.Create(ctx, user, ttl)
}

func (b redisBackend) Revoke(ctx context.Context, credential string) error {
	return b.sessions.Delete(ctx, credential)
}
